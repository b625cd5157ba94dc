package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

// ForgotPassword issues a fresh reset token, replacing any pending one, and
// mails the reset link. The raw token is never returned to the caller.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return domain.ErrMissingField("email")
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}

	u.PasswordReset = &domain.OneTimeToken{
		Hash:      Digest(TokenPasswordReset, token),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.users.Save(ctx, u); err != nil {
		return err
	}

	s.audit(ctx, "password_reset_requested", map[string]string{"user_id": u.ID, "email": u.Email})
	link := s.resetLink(token)
	s.runAfterCommit(ctx, u.ID, afterCommit{
		name: "send_password_reset",
		fn: func(ctx context.Context) error {
			return s.mailer.SendPasswordReset(ctx, u.Email, link)
		},
	})
	return nil
}

// ResetPassword consumes a reset token and stores the new password hash in
// the same write that clears the token.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ErrMissingField("token")
	}
	if newPassword == "" {
		return domain.ErrMissingField("newPassword")
	}
	if err := checkPasswordLength("newPassword", newPassword); err != nil {
		return err
	}

	u, err := s.users.FindByResetToken(ctx, Digest(TokenPasswordReset, token), s.now())
	if err != nil {
		if domain.Is(err, domain.CodeNotFound) {
			return domain.ErrInvalidOrExpiredToken()
		}
		return err
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	u.PasswordHash = hash
	u.PasswordReset = nil
	if err := s.users.Save(ctx, u); err != nil {
		return err
	}

	s.audit(ctx, "password_reset_completed", map[string]string{"user_id": u.ID, "email": u.Email})
	s.runAfterCommit(ctx, u.ID, afterCommit{
		name: "send_reset_success",
		fn: func(ctx context.Context) error {
			return s.mailer.SendResetSuccess(ctx, u.Email)
		},
	})
	return nil
}

func (s *Service) resetLink(token string) string {
	return s.frontendURL + "/reset-password/" + token
}

// MaxPasswordBytes is the longest password bcrypt accepts, counted in bytes.
const MaxPasswordBytes = 72

func checkPasswordLength(field, password string) error {
	if len(password) > MaxPasswordBytes {
		return domain.ErrInvalidField(field, fmt.Sprintf("%s must be at most %d bytes", field, MaxPasswordBytes))
	}
	return nil
}

// hashPassword passes validation errors from the hasher through; anything
// else is a hashing failure.
func (s *Service) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) && de.Kind == domain.KindValidation {
			return "", de
		}
		return "", domain.ErrHashFailed(err)
	}
	return hash, nil
}
