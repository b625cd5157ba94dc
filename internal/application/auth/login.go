package auth

import (
	"context"
	"strings"

	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

// Login authenticates by full name and password and records the login time.
func (s *Service) Login(ctx context.Context, fullName, password string) (AuthResult, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return AuthResult{}, domain.ErrMissingField("fullname")
	}
	if password == "" {
		return AuthResult{}, domain.ErrMissingField("password")
	}

	u, err := s.users.FindByName(ctx, fullName)
	if err != nil {
		if domain.Is(err, domain.CodeNotFound) {
			s.audit(ctx, "login_failed", map[string]string{"reason": "unknown_user"})
		}
		return AuthResult{}, err
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		s.audit(ctx, "login_failed", map[string]string{"user_id": u.ID, "reason": "bad_password"})
		return AuthResult{}, domain.ErrInvalidCredentials()
	}

	session, err := s.issueSession(u.ID)
	if err != nil {
		return AuthResult{}, err
	}

	// leave the stored hash untouched
	u.PasswordHash = ""
	u.LastLogin = s.now()
	if err := s.users.Save(ctx, u); err != nil {
		return AuthResult{}, err
	}

	s.audit(ctx, "login_success", map[string]string{"user_id": u.ID, "email": u.Email})
	return AuthResult{Account: u.Sanitize(), SessionToken: session}, nil
}
