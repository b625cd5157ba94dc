package auth

import (
	"context"

	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

// CheckAuth resolves the identity carried by a verified session token.
func (s *Service) CheckAuth(ctx context.Context, userID string) (domain.Account, error) {
	if userID == "" {
		return domain.Account{}, domain.ErrUnauthenticated()
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return domain.Account{}, err
	}
	return u.Sanitize(), nil
}
