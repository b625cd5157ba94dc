package middleware

import (
	"net/http"
	"strings"

	"github.com/VaibhavAI05/TasteRail/internal/application/auth"
	"github.com/VaibhavAI05/TasteRail/internal/domain"
	"github.com/VaibhavAI05/TasteRail/internal/infrastructure/security"
)

type TokenVerifier interface {
	VerifySessionToken(token string) (auth.SessionClaims, error)
}

type WriteErrFunc func(http.ResponseWriter, *http.Request, error)

// Auth guards a route with the session cookie and injects the user id into the
// request context. It never touches the store; a deleted account surfaces as
// NotFound from the handler.
func Auth(verifier TokenVerifier, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(security.ReadSessionToken(r))
			if raw == "" {
				writeErr(w, r, domain.ErrUnauthenticated())
				return
			}

			claims, err := verifier.VerifySessionToken(raw)
			if err != nil {
				writeErr(w, r, domain.ErrInvalidToken())
				return
			}
			if strings.TrimSpace(claims.UserID) == "" {
				writeErr(w, r, domain.ErrInvalidToken())
				return
			}

			ctx := WithUser(r.Context(), claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
