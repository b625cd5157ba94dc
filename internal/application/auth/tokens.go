package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

// TokenKind separates the digest space of verification codes and reset tokens,
// so a raw value issued for one class never matches a record of the other.
type TokenKind string

const (
	TokenVerifyEmail   TokenKind = "verify_email"
	TokenPasswordReset TokenKind = "password_reset"
)

const resetTokenBytes = 40

// Digest is the stored form of a raw one-time token.
func Digest(kind TokenKind, raw string) string {
	sum := sha256.Sum256([]byte(string(kind) + ":" + raw))
	return hex.EncodeToString(sum[:])
}

// newVerificationCode returns a uniformly random 6-digit code in [100000, 999999].
func newVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", domain.ErrRandomFailed(err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// newResetToken returns 40 random bytes, hex encoded.
func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", domain.ErrRandomFailed(err)
	}
	return hex.EncodeToString(b), nil
}
