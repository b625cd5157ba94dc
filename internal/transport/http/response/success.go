package response

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

// Envelope is the body of every successful account response.
type Envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *AccountBody `json:"user,omitempty"`
}

// AccountBody is the JSON shape of a sanitized account.
type AccountBody struct {
	ID             string     `json:"_id"`
	FullName       string     `json:"fullname"`
	Email          string     `json:"email"`
	Contact        string     `json:"contact"`
	Address        string     `json:"address"`
	City           string     `json:"city"`
	Country        string     `json:"country"`
	ProfilePicture string     `json:"profilePicture"`
	IsVerified     bool       `json:"isVerified"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func NewAccountBody(a domain.Account) *AccountBody {
	b := &AccountBody{
		ID:             a.ID,
		FullName:       a.FullName,
		Email:          a.Email,
		Contact:        a.Contact,
		Address:        a.Address,
		City:           a.City,
		Country:        a.Country,
		ProfilePicture: a.ProfilePictureURL,
		IsVerified:     a.IsVerified,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
	if !a.LastLogin.IsZero() {
		ll := a.LastLogin
		b.LastLogin = &ll
	}
	return b
}

// WriteJSON writes v as JSON with the given status code.
// It sets Content-Type to application/json; charset=utf-8 if not already set.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a 200 {"success": true, "message": ...} response.
func OK(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Message: message})
}

// Account writes {"success": true, "message": ..., "user": ...} with status.
func Account(w http.ResponseWriter, status int, message string, a domain.Account) {
	WriteJSON(w, status, Envelope{Success: true, Message: message, User: NewAccountBody(a)})
}
