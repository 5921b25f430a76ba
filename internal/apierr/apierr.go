// Package apierr defines the error taxonomy shared by the proxy data plane
// and the control API, and the JSON envelope both write on failure.
package apierr

import "net/http"

// Error is a typed API error: a stable machine code, a human message, and
// the HTTP status it maps to. It satisfies the error interface so domain
// services can return it directly.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string { return e.Message }

func new(status int, code, message string) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

// Input validation family (400).
func InvalidEmail() *Error     { return new(http.StatusBadRequest, "INVALID_EMAIL", "invalid email address") }
func InvalidCode() *Error      { return new(http.StatusBadRequest, "INVALID_CODE", "invalid or expired verification code") }
func InvalidCaptcha() *Error   { return new(http.StatusBadRequest, "INVALID_CAPTCHA", "invalid captcha") }
func WeakPassword() *Error     { return new(http.StatusBadRequest, "WEAK_PASSWORD", "password does not meet requirements") }
func InvalidRequest(msg string) *Error {
	if msg == "" {
		msg = "invalid request"
	}
	return new(http.StatusBadRequest, "INVALID_REQUEST", msg)
}

// Authentication/authorization family (401/403).
func InvalidCredentials() *Error { return new(http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials") }
func InvalidToken() *Error       { return new(http.StatusUnauthorized, "INVALID_TOKEN", "invalid token") }
func TokenExpired() *Error       { return new(http.StatusUnauthorized, "TOKEN_EXPIRED", "token expired") }
func TokenRevoked() *Error       { return new(http.StatusUnauthorized, "TOKEN_REVOKED", "token revoked") }
func MissingToken() *Error       { return new(http.StatusUnauthorized, "MISSING_TOKEN", "missing bearer token") }
func EmailNotVerified() *Error   { return new(http.StatusForbidden, "EMAIL_NOT_VERIFIED", "email not verified") }
func Forbidden(msg string) *Error {
	if msg == "" {
		msg = "forbidden"
	}
	return new(http.StatusForbidden, "FORBIDDEN", msg)
}

// Resource state family (404/409).
func NotFound(msg string) *Error {
	if msg == "" {
		msg = "not found"
	}
	return new(http.StatusNotFound, "NOT_FOUND", msg)
}
func EmailExists() *Error { return new(http.StatusConflict, "EMAIL_EXISTS", "email already registered") }

// Rate/limit family (429).
func RateLimited() *Error { return new(http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded") }

// Infrastructure family (500).
func Internal() *Error {
	return new(http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// Envelope is the wire shape written for every error response, both on the
// proxy listener and the control API listener.
type Envelope struct {
	Error     EnvelopeBody `json:"error"`
	RequestID *string      `json:"request_id"`
}

type EnvelopeBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToEnvelope converts any error into the wire envelope, defaulting to
// Internal() for errors that are not *Error so nothing leaks verbatim.
func ToEnvelope(err error) (*Envelope, int) {
	apiErr, ok := err.(*Error)
	if !ok {
		apiErr = Internal()
	}
	return &Envelope{
		Error: EnvelopeBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
		RequestID: nil,
	}, apiErr.Status
}
