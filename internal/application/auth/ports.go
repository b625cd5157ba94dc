package auth

import (
	"context"
	"time"

	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

/*
UserRepo
--------
Persistence port for accounts.
FindByName is the only read that returns the password hash; every other
read is a hash-free projection. Token lookups match the stored digest and
require expires_at > now.
*/
type UserRepo interface {
	FindByName(ctx context.Context, fullName string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, error)
	FindByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (domain.User, error)
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (domain.User, error)

	Create(ctx context.Context, u domain.User) (domain.User, error)

	// Save persists verification state, both token pairs, last login and,
	// when non-empty, the password hash.
	Save(ctx context.Context, u domain.User) error
	Update(ctx context.Context, id string, patch domain.ProfilePatch) (domain.User, error)
}

/*
PasswordHasher
--------------
Abstracts bcrypt.
*/
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error // nil if match
}

/*
SessionSigner
-------------
Issues and verifies session tokens (JWT).
Used by service + session guard middleware.
*/
type SessionClaims struct {
	UserID string
	Exp    time.Time
}

type SessionSigner interface {
	SignSessionToken(userID string, ttl time.Duration) (string, error)
	VerifySessionToken(token string) (SessionClaims, error)
}

/*
Mailer
------
Transactional email collaborator. Called only from post-commit hooks.
*/
type Mailer interface {
	SendVerification(ctx context.Context, email, code string) error
	SendWelcome(ctx context.Context, email, name string) error
	SendPasswordReset(ctx context.Context, email, link string) error
	SendResetSuccess(ctx context.Context, email string) error
}

/*
MediaStore
----------
Stores a profile picture (data URI or base64 payload) and returns its URL.
*/
type MediaStore interface {
	Upload(ctx context.Context, raw string) (url string, err error)
}
