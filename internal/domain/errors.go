package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrKind maps domain errors to HTTP status codes consistently.
type ErrKind string

const (
	KindValidation     ErrKind = "validation"      // 422
	KindBadRequest     ErrKind = "bad_request"     // 400
	KindAuth           ErrKind = "auth"            // 401
	KindForbidden      ErrKind = "forbidden"       // 403
	KindNotFound       ErrKind = "not_found"       // 404
	KindRateLimited    ErrKind = "rate_limited"    // 429
	KindInfrastructure ErrKind = "infrastructure"  // 503
	KindInternal       ErrKind = "internal"        // 500
)

// Error is a structured domain error.
// - Kind: high-level category for HTTP mapping
// - Code: stable machine code (do not change casually)
// - Message: safe summary for clients
// - Details: optional per-field messages (validation) or context
// - Cause: wrapped internal error, logged server-side only
type Error struct {
	Kind       ErrKind
	Code       string
	Message    string
	Details    map[string]string
	RetryAfter time.Duration
	Cause      error
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

func WithDetails(err *Error, details map[string]string) *Error {
	err.Details = details
	return err
}

func Is(err error, code string) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// ----------------------
// Validation (422)
// ----------------------

func ErrInvalidJSON(cause error) *Error {
	return Wrap(KindBadRequest, "INVALID_JSON", "invalid JSON body", cause)
}

func ErrValidation(details map[string]string) *Error {
	return WithDetails(New(KindValidation, "VALIDATION_ERROR", "The given data was invalid."), details)
}

func ErrDuplicateEmail() *Error {
	return WithDetails(New(KindValidation, "VALIDATION_ERROR", "The given data was invalid."), map[string]string{
		"email": "The email has already been taken.",
	})
}

// ErrInvalidCredentials deliberately reports the same shape for an unknown
// email and a wrong password to avoid user enumeration.
func ErrInvalidCredentials() *Error {
	return WithDetails(New(KindValidation, "INVALID_CREDENTIALS", "These credentials do not match our records."), map[string]string{
		"email": "These credentials do not match our records.",
	})
}

func ErrInvalidOrExpiredToken() *Error {
	return WithDetails(New(KindValidation, "INVALID_OR_EXPIRED_TOKEN", "This password reset token is invalid or has expired."), map[string]string{
		"token": "This password reset token is invalid or has expired.",
	})
}

// ----------------------
// Bad request (400)
// ----------------------

func ErrInvalidProvider(provider string) *Error {
	return WithDetails(New(KindBadRequest, "INVALID_PROVIDER", "Invalid social provider"), map[string]string{
		"provider": provider,
	})
}

// ----------------------
// Auth (401)
// ----------------------

func ErrUnauthenticated() *Error {
	return New(KindAuth, "UNAUTHENTICATED", "Unauthenticated.")
}

// ----------------------
// Forbidden (403)
// ----------------------

func ErrAlreadyAuthenticated() *Error {
	return New(KindForbidden, "ALREADY_AUTHENTICATED", "Already authenticated.")
}

func ErrForbidden() *Error {
	return New(KindForbidden, "FORBIDDEN", "Forbidden.")
}

func ErrInvalidSignature() *Error {
	return New(KindForbidden, "INVALID_SIGNATURE", "Invalid signature.")
}

// ----------------------
// Not found (404)
// ----------------------

func ErrUserNotFound() *Error {
	return New(KindNotFound, "USER_NOT_FOUND", "User not found.")
}

// ----------------------
// Rate limit (429)
// ----------------------

func ErrRateLimited(scope string, retryAfter time.Duration) *Error {
	e := New(KindRateLimited, "RATE_LIMITED", "Too many requests.")
	e.Details = map[string]string{"scope": scope}
	e.RetryAfter = retryAfter
	return e
}

// ----------------------
// Infrastructure / internal (5xx)
// ----------------------

// ErrSocialAuth hides provider/transport detail behind a generic message.
// The cause is logged server-side, never serialized to the client.
func ErrSocialAuth(provider string, cause error) *Error {
	return Wrap(KindInternal, "SOCIAL_AUTH_ERROR", "Failed to authenticate with "+provider, cause)
}

func ErrEmailSendFailed(cause error) *Error {
	return Wrap(KindInternal, "EMAIL_SEND_FAILED", "Failed to send email", cause)
}

func ErrDBUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "DB_UNAVAILABLE", "database unavailable", cause)
}

func ErrSessionStoreUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "SESSION_STORE_UNAVAILABLE", "session store unavailable", cause)
}

func ErrHashFailed(cause error) *Error {
	return Wrap(KindInternal, "HASH_FAILED", "password hashing failed", cause)
}

func ErrTokenSignFailed(cause error) *Error {
	return Wrap(KindInternal, "TOKEN_SIGN_FAILED", "token signing failed", cause)
}

func ErrRandomFailed(cause error) *Error {
	return Wrap(KindInternal, "RANDOM_FAILED", "random generation failed", cause)
}

func ErrInternal(cause error) *Error {
	return Wrap(KindInternal, "INTERNAL_ERROR", "internal error", cause)
}
