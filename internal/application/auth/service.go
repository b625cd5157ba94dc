package auth

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

type Service struct {
	users  UserRepo
	hasher PasswordHasher
	signer SessionSigner
	mailer Mailer
	media  MediaStore

	log   zerolog.Logger
	now   func() time.Time
	audit func(ctx context.Context, action string, fields map[string]string)

	sessionTTL      time.Duration
	verificationTTL time.Duration
	resetTTL        time.Duration

	// reset links are built as <frontendURL>/reset-password/<token>
	frontendURL string
}

type Config struct {
	SessionTTL      time.Duration
	VerificationTTL time.Duration
	ResetTTL        time.Duration
	FrontendURL     string
}

func NewService(
	users UserRepo,
	hasher PasswordHasher,
	signer SessionSigner,
	mailer Mailer,
	media MediaStore,
	cfg Config,
) *Service {
	sessionTTL := cfg.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	verifyTTL := cfg.VerificationTTL
	if verifyTTL <= 0 {
		verifyTTL = 24 * time.Hour
	}
	resetTTL := cfg.ResetTTL
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &Service{
		users:  users,
		hasher: hasher,
		signer: signer,
		mailer: mailer,
		media:  media,

		log:   zerolog.Nop(),
		now:   time.Now,
		audit: func(context.Context, string, map[string]string) {},

		sessionTTL:      sessionTTL,
		verificationTTL: verifyTTL,
		resetTTL:        resetTTL,
		frontendURL:     strings.TrimRight(cfg.FrontendURL, "/"),
	}
}

func (s *Service) WithAudit(fn func(ctx context.Context, action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

func (s *Service) WithLogger(lg zerolog.Logger) *Service {
	s.log = lg.With().Str("component", "auth_service").Logger()
	return s
}

// WithClock replaces the time source used for token expiry.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// SessionTTL is the lifetime of issued session tokens; handlers use it for cookie MaxAge.
func (s *Service) SessionTTL() time.Duration { return s.sessionTTL }

// AuthResult is returned by the flows that establish a session.
type AuthResult struct {
	Account      domain.Account
	SessionToken string
}

func (s *Service) issueSession(userID string) (string, error) {
	tok, err := s.signer.SignSessionToken(userID, s.sessionTTL)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	return tok, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
