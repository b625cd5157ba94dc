package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

// RateLimitByIP caps requests per client IP in a sliding window. Rejections
// use the regular JSON error body with status 429.
func RateLimitByIP(limit int, window time.Duration, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeErr(w, r, domain.ErrRateLimited())
		}),
	)
}
