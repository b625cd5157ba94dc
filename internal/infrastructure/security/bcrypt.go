package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

// bcryptMaxBytes is bcrypt's input limit. It counts bytes, not runes.
const bcryptMaxBytes = 72

// BcryptHasher hashes account passwords. Over-long passwords are rejected as
// invalid input and never truncated.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher uses bcrypt.DefaultCost when cost is not positive.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if len(password) > bcryptMaxBytes {
		return "", errPasswordTooLong()
	}

	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	switch {
	case err == nil:
		return string(b), nil
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		return "", errPasswordTooLong()
	default:
		return "", domain.ErrHashFailed(err)
	}
}

// Compare returns nil only when password matches the stored hash. An empty
// or malformed hash never matches.
func (h *BcryptHasher) Compare(hash string, password string) error {
	if hash == "" {
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func errPasswordTooLong() *domain.Error {
	return domain.ErrInvalidField("password", fmt.Sprintf("password must be at most %d bytes", bcryptMaxBytes))
}
