package http_handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/VaibhavAI05/TasteRail/internal/application/auth"
	"github.com/VaibhavAI05/TasteRail/internal/domain"
	"github.com/VaibhavAI05/TasteRail/internal/infrastructure/security"
	"github.com/VaibhavAI05/TasteRail/internal/logger"
	"github.com/VaibhavAI05/TasteRail/internal/transport/http/dto"
	"github.com/VaibhavAI05/TasteRail/internal/transport/http/middleware"
	"github.com/VaibhavAI05/TasteRail/internal/transport/http/response"
)

const defaultMaxBodyBytes = 1 << 20

type AccountHandler struct {
	svc           *auth.Service
	sessionTTL    time.Duration
	secureCookies bool

	// profile updates carry a base64 picture, so their body limit is larger
	maxProfileBytes int64
}

func NewAccountHandler(svc *auth.Service, secureCookies bool, maxUploadSize int64) *AccountHandler {
	// base64 inflates by 4/3; leave room for the other fields
	limit := maxUploadSize*4/3 + 64*1024
	if maxUploadSize <= 0 {
		limit = defaultMaxBodyBytes
	}
	return &AccountHandler{
		svc:             svc,
		sessionTTL:      svc.SessionTTL(),
		secureCookies:   secureCookies,
		maxProfileBytes: limit,
	}
}

// decode reads, normalizes and validates a request body.
func decode[T any, P interface {
	*T
	Normalize()
}](w http.ResponseWriter, r *http.Request, limit int64) (P, bool) {
	req := P(new(T))
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := response.DecodeJSON(r, req); err != nil {
		response.WriteError(w, r, err)
		return nil, false
	}
	req.Normalize()
	if err := dto.Validate(req); err != nil {
		response.WriteError(w, r, err)
		return nil, false
	}
	return req, true
}

func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[dto.SignupRequest](w, r, defaultMaxBodyBytes)
	if !ok {
		return
	}

	res, err := h.svc.Signup(r.Context(), auth.SignupInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Contact:  string(req.Contact),
	})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("user_id", res.Account.ID).
		Msg("user_signed_up")

	security.SetSessionToken(w, res.SessionToken, h.sessionTTL, h.secureCookies)
	response.Account(w, http.StatusCreated, "Account created successfully", res.Account)
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[dto.LoginRequest](w, r, defaultMaxBodyBytes)
	if !ok {
		return
	}

	res, err := h.svc.Login(r.Context(), req.FullName, req.Password)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("user_id", res.Account.ID).
		Msg("user_logged_in")

	security.SetSessionToken(w, res.SessionToken, h.sessionTTL, h.secureCookies)
	response.Account(w, http.StatusOK, "Welcome back "+res.Account.FullName, res.Account)
}

func (h *AccountHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[dto.VerifyEmailRequest](w, r, defaultMaxBodyBytes)
	if !ok {
		return
	}

	acct, err := h.svc.VerifyEmail(r.Context(), req.VerificationCode)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.Account(w, http.StatusOK, "Email verified successfully", acct)
}

// Logout is idempotent and needs no session. An expired or forged cookie is
// still cleared.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.svc.Logout(r.Context(), security.ReadSessionToken(r))

	security.ClearSessionToken(w, h.secureCookies)
	response.OK(w, "Logged out successfully")
}

func (h *AccountHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[dto.ForgotPasswordRequest](w, r, defaultMaxBodyBytes)
	if !ok {
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, "Password reset link sent to your email")
}

func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		response.WriteError(w, r, domain.ErrMissingField("token"))
		return
	}

	req, ok := decode[dto.ResetPasswordRequest](w, r, defaultMaxBodyBytes)
	if !ok {
		return
	}

	if err := h.svc.ResetPassword(r.Context(), token, req.NewPassword); err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, "Password reset successfully")
}

func (h *AccountHandler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrUnauthenticated())
		return
	}

	acct, err := h.svc.CheckAuth(r.Context(), userID)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.Account(w, http.StatusOK, "User authenticated", acct)
}

func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrUnauthenticated())
		return
	}

	req, ok := decode[dto.UpdateProfileRequest](w, r, h.maxProfileBytes)
	if !ok {
		return
	}

	acct, err := h.svc.UpdateProfile(r.Context(), userID, auth.ProfileInput{
		FullName:       req.FullName,
		Email:          req.Email,
		Address:        req.Address,
		City:           req.City,
		Country:        req.Country,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.Account(w, http.StatusOK, "Profile updated successfully", acct)
}
