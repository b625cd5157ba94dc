package auth

import (
	"context"
	"strings"

	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

// VerifyEmail consumes a verification code and marks the holder verified.
func (s *Service) VerifyEmail(ctx context.Context, code string) (domain.Account, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Account{}, domain.ErrMissingField("verificationCode")
	}

	u, err := s.users.FindByVerificationToken(ctx, Digest(TokenVerifyEmail, code), s.now())
	if err != nil {
		if domain.Is(err, domain.CodeNotFound) {
			return domain.Account{}, domain.ErrInvalidOrExpiredToken()
		}
		return domain.Account{}, err
	}

	u.IsVerified = true
	u.Verification = nil
	if err := s.users.Save(ctx, u); err != nil {
		return domain.Account{}, err
	}

	s.audit(ctx, "email_verified", map[string]string{"user_id": u.ID, "email": u.Email})
	s.runAfterCommit(ctx, u.ID, afterCommit{
		name: "send_welcome",
		fn: func(ctx context.Context) error {
			return s.mailer.SendWelcome(ctx, u.Email, u.FullName)
		},
	})

	return u.Sanitize(), nil
}
