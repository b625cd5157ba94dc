package domain

import "time"

// OneTimeToken is a stored token digest together with its expiry.
// A nil *OneTimeToken on a User means no token of that class is outstanding.
type OneTimeToken struct {
	Hash      string
	ExpiresAt time.Time
}

// Valid reports whether the token has not yet expired at now.
func (t *OneTimeToken) Valid(now time.Time) bool {
	return t != nil && now.Before(t.ExpiresAt)
}

// User is the persisted account record. PasswordHash is populated only on
// credential reads and never leaves the service layer.
type User struct {
	ID           string
	FullName     string
	Email        string
	Contact      string
	PasswordHash string `json:"-"`
	IsVerified   bool

	Verification  *OneTimeToken `json:"-"`
	PasswordReset *OneTimeToken `json:"-"`

	LastLogin         time.Time
	Address           string
	City              string
	Country           string
	ProfilePictureURL string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Account is the sanitized outward projection of a User.
type Account struct {
	ID                string
	FullName          string
	Email             string
	Contact           string
	IsVerified        bool
	LastLogin         time.Time
	Address           string
	City              string
	Country           string
	ProfilePictureURL string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Sanitize drops every credential and token field.
func (u User) Sanitize() Account {
	return Account{
		ID:                u.ID,
		FullName:          u.FullName,
		Email:             u.Email,
		Contact:           u.Contact,
		IsVerified:        u.IsVerified,
		LastLogin:         u.LastLogin,
		Address:           u.Address,
		City:              u.City,
		Country:           u.Country,
		ProfilePictureURL: u.ProfilePictureURL,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

// ProfilePatch is a partial profile update; nil fields are left unchanged.
type ProfilePatch struct {
	FullName          *string
	Email             *string
	Address           *string
	City              *string
	Country           *string
	ProfilePictureURL *string
}

// Empty reports whether the patch changes nothing.
func (p ProfilePatch) Empty() bool {
	return p.FullName == nil && p.Email == nil && p.Address == nil &&
		p.City == nil && p.Country == nil && p.ProfilePictureURL == nil
}

// Apply copies the set fields of p onto u.
func (p ProfilePatch) Apply(u *User) {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
	if p.City != nil {
		u.City = *p.City
	}
	if p.Country != nil {
		u.Country = *p.Country
	}
	if p.ProfilePictureURL != nil {
		u.ProfilePictureURL = *p.ProfilePictureURL
	}
}
