package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

type SeederHasher interface {
	Hash(password string) (string, error)
}

type SeederRepo interface {
	Create(ctx context.Context, u domain.User) (domain.User, error)
}

// SeedUsers creates verified demo accounts for local development and returns
// how many were created. Existing accounts are skipped, so it is restart safe.
func SeedUsers(ctx context.Context, repo SeederRepo, hasher SeederHasher, lg zerolog.Logger) int {
	type seedUser struct {
		Name  string
		Email string
		Pass  string
	}

	seeds := []seedUser{
		{Name: "demo", Email: "demo@tasterail.local", Pass: "DemoPassword123!"},
		{Name: "owner", Email: "owner@tasterail.local", Pass: "OwnerPassword123!"},
	}

	created := 0
	for _, s := range seeds {
		hash, err := hasher.Hash(s.Pass)
		if err != nil {
			lg.Warn().Err(err).Str("name", s.Name).Msg("seed hash failed")
			continue
		}

		now := time.Now()
		u := domain.User{
			ID:           uuid.NewString(),
			FullName:     s.Name,
			Email:        s.Email,
			PasswordHash: hash,
			IsVerified:   true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if _, err := repo.Create(ctx, u); err != nil {
			// duplicates are expected on restart
			continue
		}
		created++
	}

	lg.Info().Int("created", created).Msg("dev users seeded")
	return created
}
