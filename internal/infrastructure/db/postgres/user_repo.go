package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

// projectionColumns never include password_hash; credential reads append it.
const projectionColumns = `id, full_name, email, contact, is_verified,
verification_token_hash, verification_expires_at, reset_token_hash, reset_expires_at,
last_login, address, city, country, profile_picture_url, created_at, updated_at`

const pgUniqueViolation = "23505"

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// ---------- helpers ----------

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (r *UserRepo) findOne(ctx context.Context, withHash bool, where string, args ...any) (domain.User, error) {
	cols := projectionColumns
	if withHash {
		cols += ", password_hash"
	}
	q := "SELECT " + cols + "\nFROM users\nWHERE " + where + "\nLIMIT 1;"

	ur, err := scanUserRow(r.db.QueryRowContext(ctx, q, args...), withHash)
	if err != nil {
		if isNoRows(err) {
			return domain.User{}, domain.ErrNotFound()
		}
		return domain.User{}, domain.ErrStoreUnavailable(err)
	}
	return toDomainUser(ur), nil
}

// ---------- auth.UserRepo ----------

// FindByName is the credential read: it is the only lookup returning the hash.
func (r *UserRepo) FindByName(ctx context.Context, fullName string) (domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return domain.User{}, domain.ErrMissingField("fullname")
	}
	return r.findOne(ctx, true, "full_name = $1", fullName)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}
	return r.findOne(ctx, false, "email = $1\nORDER BY created_at", email)
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}
	return r.findOne(ctx, false, "id = $1", id)
}

func (r *UserRepo) FindByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (domain.User, error) {
	if tokenHash == "" {
		return domain.User{}, domain.ErrNotFound()
	}
	return r.findOne(ctx, false, "verification_token_hash = $1 AND verification_expires_at > $2", tokenHash, now)
}

func (r *UserRepo) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (domain.User, error) {
	if tokenHash == "" {
		return domain.User{}, domain.ErrNotFound()
	}
	return r.findOne(ctx, false, "reset_token_hash = $1 AND reset_expires_at > $2", tokenHash, now)
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	u.Email = normalizeEmail(u.Email)
	u.FullName = strings.TrimSpace(u.FullName)
	if u.ID == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}
	if u.FullName == "" {
		return domain.User{}, domain.ErrMissingField("fullname")
	}
	if u.Email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}
	if u.PasswordHash == "" {
		return domain.User{}, domain.ErrMissingField("password_hash")
	}

	vHash, vExp := pairArgs(u.Verification)
	rHash, rExp := pairArgs(u.PasswordReset)

	q := `
INSERT INTO users (id, full_name, email, contact, password_hash, is_verified,
    verification_token_hash, verification_expires_at, reset_token_hash, reset_expires_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING ` + projectionColumns + `;
`
	ur, err := scanUserRow(r.db.QueryRowContext(ctx, q,
		u.ID, u.FullName, u.Email, u.Contact, u.PasswordHash, u.IsVerified,
		vHash, vExp, rHash, rExp,
	), false)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, domain.ErrDuplicateUser()
		}
		return domain.User{}, domain.ErrStoreUnavailable(err)
	}
	return toDomainUser(ur), nil
}

// Save writes the lifecycle fields in one statement; an empty PasswordHash
// keeps the stored hash.
func (r *UserRepo) Save(ctx context.Context, u domain.User) error {
	if strings.TrimSpace(u.ID) == "" {
		return domain.ErrMissingField("id")
	}

	vHash, vExp := pairArgs(u.Verification)
	rHash, rExp := pairArgs(u.PasswordReset)

	var lastLogin any
	if !u.LastLogin.IsZero() {
		lastLogin = u.LastLogin
	}

	const q = `
UPDATE users
SET is_verified = $2,
    verification_token_hash = $3,
    verification_expires_at = $4,
    reset_token_hash = $5,
    reset_expires_at = $6,
    last_login = $7,
    password_hash = COALESCE(NULLIF($8, ''), password_hash),
    updated_at = NOW()
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q,
		u.ID, u.IsVerified, vHash, vExp, rHash, rExp, lastLogin, u.PasswordHash,
	)
	if err != nil {
		return domain.ErrStoreUnavailable(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrNotFound()
	}
	return nil
}

func (r *UserRepo) Update(ctx context.Context, id string, patch domain.ProfilePatch) (domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}
	if patch.Empty() {
		return r.FindByID(ctx, id)
	}

	q := `
UPDATE users
SET full_name = COALESCE($2, full_name),
    email = COALESCE($3, email),
    address = COALESCE($4, address),
    city = COALESCE($5, city),
    country = COALESCE($6, country),
    profile_picture_url = COALESCE($7, profile_picture_url),
    updated_at = NOW()
WHERE id = $1
RETURNING ` + projectionColumns + `;
`
	ur, err := scanUserRow(r.db.QueryRowContext(ctx, q,
		id,
		nullable(patch.FullName),
		nullable(patch.Email),
		nullable(patch.Address),
		nullable(patch.City),
		nullable(patch.Country),
		nullable(patch.ProfilePictureURL),
	), false)
	if err != nil {
		switch {
		case isNoRows(err):
			return domain.User{}, domain.ErrNotFound()
		case isUniqueViolation(err):
			return domain.User{}, domain.ErrDuplicateUser()
		}
		return domain.User{}, domain.ErrStoreUnavailable(err)
	}
	return toDomainUser(ur), nil
}

func nullable(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
