package dto

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FlexString accepts a JSON string or number; older clients send contact as a number.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// -------- Signup / login --------

type SignupRequest struct {
	FullName string     `json:"fullname" validate:"required,max=100"`
	Email    string     `json:"email" validate:"required,email,max=254"`
	Password string     `json:"password" validate:"required,max=72"`
	Contact  FlexString `json:"contact" validate:"max=32"`
}

func (r *SignupRequest) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Contact = FlexString(strings.TrimSpace(string(r.Contact)))
}

type LoginRequest struct {
	FullName string `json:"fullname" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
}

// -------- Email verification --------

type VerifyEmailRequest struct {
	VerificationCode string `json:"verificationCode" validate:"required"`
}

func (r *VerifyEmailRequest) Normalize() {
	r.VerificationCode = strings.TrimSpace(r.VerificationCode)
}

// -------- Password reset --------

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *ForgotPasswordRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

// The token travels in the URL path.
type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,max=72"`
}

func (r *ResetPasswordRequest) Normalize() {}

// -------- Profile --------

// UpdateProfileRequest fields are optional; absent fields are left unchanged.
type UpdateProfileRequest struct {
	FullName       *string `json:"fullname" validate:"omitempty,min=1,max=100"`
	Email          *string `json:"email" validate:"omitempty,email,max=254"`
	Address        *string `json:"address" validate:"omitempty,max=200"`
	City           *string `json:"city" validate:"omitempty,max=100"`
	Country        *string `json:"country" validate:"omitempty,max=100"`
	ProfilePicture string  `json:"profilePicture"`
}

func (r *UpdateProfileRequest) Normalize() {
	for _, p := range []*string{r.FullName, r.Email, r.Address, r.City, r.Country} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	if r.Email != nil {
		*r.Email = strings.ToLower(*r.Email)
	}
	r.ProfilePicture = strings.TrimSpace(r.ProfilePicture)
}
