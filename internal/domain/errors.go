package domain

import (
	"errors"
	"fmt"
)

// ErrKind is used to map domain errors to HTTP status codes consistently.
type ErrKind string

const (
	KindValidation ErrKind = "validation" // 400
	KindRejected   ErrKind = "rejected"   // 400
	KindAuth       ErrKind = "auth"       // 401
	KindNotFound   ErrKind = "not_found"  // 404
	KindRateLimit  ErrKind = "rate_limit" // 429
	KindUpstream   ErrKind = "upstream"   // 500
	KindInternal   ErrKind = "internal"   // 500
)

// Error is a structured domain error.
// - Kind: high-level category for HTTP mapping
// - Code: stable machine code (do not change casually)
// - Message: safe summary for clients (avoid leaking sensitive details)
// - Meta: optional details (field, reason, etc.)
// - Cause: wrapped internal error for logging/diagnostics
type Error struct {
	Kind    ErrKind
	Code    string
	Message string
	Meta    map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind ErrKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind ErrKind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

func WithMeta(err *Error, meta map[string]string) *Error {
	err.Meta = meta
	return err
}

// Is reports whether err carries a domain error with the given code.
func Is(err error, code string) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// KindOf returns the kind of a domain error, or KindInternal for anything else.
func KindOf(err error) ErrKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Stable error codes.
const (
	CodeDuplicateUser         = "duplicate_user"
	CodeNotFound              = "not_found"
	CodeInvalidCredentials    = "invalid_credentials"
	CodeInvalidOrExpiredToken = "invalid_or_expired_token"
	CodeUnauthenticated       = "unauthenticated"
	CodeInvalidToken          = "invalid_token"
	CodeUpstreamFailure       = "upstream_failure"
)

// ----------------------
// Validation errors (400)
// ----------------------

func ErrInvalidJSON(cause error) *Error {
	return Wrap(KindValidation, "invalid_json", "invalid JSON body", cause)
}

func ErrMissingField(field string) *Error {
	return WithMeta(New(KindValidation, "missing_field", "missing required field"), map[string]string{
		"field": field,
	})
}

func ErrInvalidField(field, reason string) *Error {
	return WithMeta(New(KindValidation, "invalid_field", "invalid field"), map[string]string{
		"field":  field,
		"reason": reason,
	})
}

// ----------------------
// Rejected requests (400)
// ----------------------

func ErrDuplicateUser() *Error {
	return New(KindRejected, CodeDuplicateUser, "User already exists")
}

func ErrInvalidCredentials() *Error {
	return New(KindRejected, CodeInvalidCredentials, "Invalid credentials")
}

// Wrong, expired and already consumed tokens all collapse into this one.
func ErrInvalidOrExpiredToken() *Error {
	return New(KindRejected, CodeInvalidOrExpiredToken, "Invalid or expired token")
}

// ----------------------
// Auth errors (401)
// ----------------------

func ErrUnauthenticated() *Error {
	return New(KindAuth, CodeUnauthenticated, "User is not authenticated")
}

func ErrInvalidToken() *Error {
	return New(KindAuth, CodeInvalidToken, "Invalid token")
}

// ----------------------
// Not Found (404)
// ----------------------

func ErrNotFound() *Error {
	return New(KindNotFound, CodeNotFound, "User not found")
}

// ----------------------
// Rate limit (429)
// ----------------------

func ErrRateLimited() *Error {
	return New(KindRateLimit, "rate_limited", "Too many requests, please try again later")
}

// ----------------------
// Upstream / internal (500)
// ----------------------

func ErrUpstream(component string, cause error) *Error {
	return WithMeta(
		Wrap(KindUpstream, CodeUpstreamFailure, "upstream failure", cause),
		map[string]string{"component": component},
	)
}

func ErrStoreUnavailable(cause error) *Error {
	return ErrUpstream("store", cause)
}

func ErrHashFailed(cause error) *Error {
	return Wrap(KindInternal, "hash_failed", "password hashing failed", cause)
}

func ErrTokenSignFailed(cause error) *Error {
	return Wrap(KindInternal, "token_sign_failed", "token signing failed", cause)
}

func ErrRandomFailed(cause error) *Error {
	return Wrap(KindInternal, "random_failed", "random generation failed", cause)
}

func ErrInternal(cause error) *Error {
	return Wrap(KindInternal, "internal_error", "internal error", cause)
}
