package postgres

import (
	"database/sql"
	"time"

	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

type userRow struct {
	ID                    string
	FullName              string
	Email                 string
	Contact               string
	PasswordHash          string
	IsVerified            bool
	VerificationTokenHash sql.NullString
	VerificationExpiresAt sql.NullTime
	ResetTokenHash        sql.NullString
	ResetExpiresAt        sql.NullTime
	LastLogin             sql.NullTime
	Address               string
	City                  string
	Country               string
	ProfilePictureURL     string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanUserRow scans projectionColumns, optionally followed by password_hash.
func scanUserRow(row rowScanner, withHash bool) (userRow, error) {
	var ur userRow
	dest := []any{
		&ur.ID,
		&ur.FullName,
		&ur.Email,
		&ur.Contact,
		&ur.IsVerified,
		&ur.VerificationTokenHash,
		&ur.VerificationExpiresAt,
		&ur.ResetTokenHash,
		&ur.ResetExpiresAt,
		&ur.LastLogin,
		&ur.Address,
		&ur.City,
		&ur.Country,
		&ur.ProfilePictureURL,
		&ur.CreatedAt,
		&ur.UpdatedAt,
	}
	if withHash {
		dest = append(dest, &ur.PasswordHash)
	}
	err := row.Scan(dest...)
	return ur, err
}

func tokenPair(hash sql.NullString, exp sql.NullTime) *domain.OneTimeToken {
	if !hash.Valid || !exp.Valid {
		return nil
	}
	return &domain.OneTimeToken{Hash: hash.String, ExpiresAt: exp.Time}
}

// pairArgs returns both columns of a token pair, NULL together when absent.
func pairArgs(t *domain.OneTimeToken) (any, any) {
	if t == nil {
		return nil, nil
	}
	return t.Hash, t.ExpiresAt
}

func toDomainUser(ur userRow) domain.User {
	u := domain.User{
		ID:                ur.ID,
		FullName:          ur.FullName,
		Email:             ur.Email,
		Contact:           ur.Contact,
		PasswordHash:      ur.PasswordHash,
		IsVerified:        ur.IsVerified,
		Verification:      tokenPair(ur.VerificationTokenHash, ur.VerificationExpiresAt),
		PasswordReset:     tokenPair(ur.ResetTokenHash, ur.ResetExpiresAt),
		Address:           ur.Address,
		City:              ur.City,
		Country:           ur.Country,
		ProfilePictureURL: ur.ProfilePictureURL,
		CreatedAt:         ur.CreatedAt,
		UpdatedAt:         ur.UpdatedAt,
	}
	if ur.LastLogin.Valid {
		u.LastLogin = ur.LastLogin.Time
	}
	return u
}
