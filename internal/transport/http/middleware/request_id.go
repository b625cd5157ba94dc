package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	appCtx "github.com/VaibhavAI05/TasteRail/internal/pkg/context"
)

const HeaderXRequestID = "X-Request-Id"

// RequestID propagates a well-formed incoming X-Request-Id or mints one,
// echoes it back, and records the client address for audit events. Mount it
// after chi's RealIP so the address is the resolved one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get(HeaderXRequestID))
		if !appCtx.ValidRequestID(reqID) {
			reqID = uuid.NewString()
		}

		w.Header().Set(HeaderXRequestID, reqID)

		ctx := appCtx.WithRequestMeta(r.Context(), appCtx.RequestMeta{
			RequestID: reqID,
			ClientIP:  hostOnly(r.RemoteAddr),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
