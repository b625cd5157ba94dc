package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

type ProfileInput struct {
	FullName *string
	Email    *string
	Address  *string
	City     *string
	Country  *string

	// ProfilePicture is a data URI or base64 image; empty keeps the current picture.
	ProfilePicture string
}

// UpdateProfile uploads the picture (if any) and patches the caller's own profile.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (domain.Account, error) {
	if userID == "" {
		return domain.Account{}, domain.ErrUnauthenticated()
	}

	var patch domain.ProfilePatch

	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return domain.Account{}, domain.ErrInvalidField("fullname", "empty")
		}
		existing, err := s.users.FindByName(ctx, name)
		switch {
		case err == nil && existing.ID != userID:
			return domain.Account{}, domain.ErrDuplicateUser()
		case err != nil && !domain.Is(err, domain.CodeNotFound):
			return domain.Account{}, err
		}
		patch.FullName = &name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email == "" {
			return domain.Account{}, domain.ErrInvalidField("email", "empty")
		}
		patch.Email = &email
	}
	patch.Address = trimmed(in.Address)
	patch.City = trimmed(in.City)
	patch.Country = trimmed(in.Country)

	if in.ProfilePicture != "" {
		url, err := s.media.Upload(ctx, in.ProfilePicture)
		if err != nil {
			var de *domain.Error
			if errors.As(err, &de) {
				return domain.Account{}, de
			}
			return domain.Account{}, domain.ErrUpstream("media", err)
		}
		patch.ProfilePictureURL = &url
	}

	u, err := s.users.Update(ctx, userID, patch)
	if err != nil {
		return domain.Account{}, err
	}

	s.audit(ctx, "profile_updated", map[string]string{"user_id": u.ID})
	return u.Sanitize(), nil
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
