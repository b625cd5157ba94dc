package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

type SignupInput struct {
	FullName string
	Email    string
	Password string
	Contact  string
}

// Signup creates an unverified account, issues a session token and mails a
// 6-digit verification code once the account is stored.
func (s *Service) Signup(ctx context.Context, in SignupInput) (AuthResult, error) {
	name := strings.TrimSpace(in.FullName)
	email := normalizeEmail(in.Email)
	switch {
	case name == "":
		return AuthResult{}, domain.ErrMissingField("fullname")
	case email == "":
		return AuthResult{}, domain.ErrMissingField("email")
	case in.Password == "":
		return AuthResult{}, domain.ErrMissingField("password")
	}
	if err := checkPasswordLength("password", in.Password); err != nil {
		return AuthResult{}, err
	}

	if _, err := s.users.FindByName(ctx, name); err == nil {
		return AuthResult{}, domain.ErrDuplicateUser()
	} else if !domain.Is(err, domain.CodeNotFound) {
		return AuthResult{}, err
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return AuthResult{}, err
	}

	code, err := newVerificationCode()
	if err != nil {
		return AuthResult{}, err
	}

	now := s.now()
	u := domain.User{
		ID:           uuid.NewString(),
		FullName:     name,
		Email:        email,
		Contact:      strings.TrimSpace(in.Contact),
		PasswordHash: hash,
		IsVerified:   false,
		Verification: &domain.OneTimeToken{
			Hash:      Digest(TokenVerifyEmail, code),
			ExpiresAt: now.Add(s.verificationTTL),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	session, err := s.issueSession(u.ID)
	if err != nil {
		return AuthResult{}, err
	}

	created, err := s.users.Create(ctx, u)
	if err != nil {
		return AuthResult{}, err
	}

	s.audit(ctx, "signup", map[string]string{"user_id": created.ID, "email": created.Email})
	s.runAfterCommit(ctx, created.ID, afterCommit{
		name: "send_verification",
		fn: func(ctx context.Context) error {
			return s.mailer.SendVerification(ctx, created.Email, code)
		},
	})

	return AuthResult{Account: created.Sanitize(), SessionToken: session}, nil
}
