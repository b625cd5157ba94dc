package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthHandler interface {
	Healthz(w http.ResponseWriter, r *http.Request)
	Readyz(w http.ResponseWriter, r *http.Request)
}

type AccountHandler interface {
	Signup(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	VerifyEmail(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)

	// Password reset
	ForgotPassword(w http.ResponseWriter, r *http.Request)
	ResetPassword(w http.ResponseWriter, r *http.Request)

	// Session guarded
	CheckAuth(w http.ResponseWriter, r *http.Request)
	UpdateProfile(w http.ResponseWriter, r *http.Request)
}

type Deps struct {
	Health  HealthHandler
	Account AccountHandler

	RequestIDMW func(http.Handler) http.Handler
	AccessLogMW func(http.Handler) http.Handler
	MetricsMW   func(http.Handler) http.Handler
	AuthMW      func(http.Handler) http.Handler

	// RateLimitMW guards the credential endpoints; nil disables it.
	RateLimitMW func(http.Handler) http.Handler

	// MetricsHandler serves /metrics; defaults to promhttp.Handler().
	MetricsHandler http.Handler
}

func New(deps Deps) (http.Handler, error) {
	if deps.Health == nil {
		return nil, fmt.Errorf("nil Health handler")
	}
	if deps.Account == nil {
		return nil, fmt.Errorf("nil Account handler")
	}
	if deps.AuthMW == nil {
		return nil, fmt.Errorf("nil Auth middleware")
	}

	r := chi.NewRouter()

	// RealIP resolves the client address before the request id records it;
	// the request id precedes every layer that logs.
	r.Use(chimw.RealIP)
	for _, mw := range []func(http.Handler) http.Handler{deps.RequestIDMW, deps.AccessLogMW, deps.MetricsMW} {
		if mw != nil {
			r.Use(mw)
		}
	}
	r.Use(chimw.Recoverer)

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)

	metricsH := deps.MetricsHandler
	if metricsH == nil {
		metricsH = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsH)

	r.Route("/api/v1/user", func(r chi.Router) {
		r.Post("/logout", deps.Account.Logout)

		// --- Credential endpoints (rate limited) ---
		r.Group(func(r chi.Router) {
			if deps.RateLimitMW != nil {
				r.Use(deps.RateLimitMW)
			}
			r.Post("/signup", deps.Account.Signup)
			r.Post("/login", deps.Account.Login)
			r.Post("/verify-email", deps.Account.VerifyEmail)

			// --- Password reset ---
			r.Post("/forgot-password", deps.Account.ForgotPassword)
			r.Post("/reset-password/{token}", deps.Account.ResetPassword)
		})

		// --- Session guarded ---
		r.With(deps.AuthMW).Get("/check-auth", deps.Account.CheckAuth)
		r.With(deps.AuthMW).Put("/profile/update", deps.Account.UpdateProfile)
	})

	return r, nil
}
