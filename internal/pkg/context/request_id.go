// Package context carries per-request metadata that logging and audit read
// without depending on the HTTP layer.
package context

import "context"

type metaKey struct{}

// RequestMeta is attached once per request by the request-id middleware.
type RequestMeta struct {
	RequestID string
	ClientIP  string
}

func WithRequestMeta(ctx context.Context, m RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, m)
}

// Meta returns the request metadata, or the zero value outside a request.
func Meta(ctx context.Context) RequestMeta {
	if ctx == nil {
		return RequestMeta{}
	}
	m, _ := ctx.Value(metaKey{}).(RequestMeta)
	return m
}

// WithRequestID sets the request id and keeps any other metadata.
func WithRequestID(ctx context.Context, id string) context.Context {
	m := Meta(ctx)
	m.RequestID = id
	return WithRequestMeta(ctx, m)
}

func GetRequestID(ctx context.Context) string { return Meta(ctx).RequestID }

func ClientIP(ctx context.Context) string { return Meta(ctx).ClientIP }

// MaxRequestIDLen bounds client-supplied request ids.
const MaxRequestIDLen = 128

// ValidRequestID reports whether a client-supplied id may be echoed and
// logged: 1 to MaxRequestIDLen visible ASCII characters.
func ValidRequestID(id string) bool {
	if id == "" || len(id) > MaxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if c := id[i]; c <= ' ' || c > '~' {
			return false
		}
	}
	return true
}
