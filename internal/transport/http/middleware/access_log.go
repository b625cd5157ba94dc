package middleware

import (
	"net/http"
	"time"

	"github.com/VaibhavAI05/TasteRail/internal/logger"
)

// AccessLog writes one line per request: method, route, status, duration.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		lg := logger.WithCtx(r.Context())
		ev := lg.Info()
		switch {
		case rec.status >= 500:
			ev = lg.Error()
		case rec.status >= 400:
			ev = lg.Warn()
		}
		ev.Str("method", r.Method).
			Str("route", routePattern(r)).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}
