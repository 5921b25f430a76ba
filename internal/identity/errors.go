package identity

import "errors"

// Sentinel errors returned by repository implementations; services map
// these onto the apierr taxonomy rather than leaking storage detail.
var (
	ErrCodeInvalid     = errors.New("identity: verification code invalid, expired, or already used")
	ErrTooManyAttempts = errors.New("identity: too many verification attempts")
	ErrEmailExists     = errors.New("identity: email already registered")
	ErrTokenInvalid    = errors.New("identity: registration token invalid, expired, or already used")
	ErrNotFound        = errors.New("identity: not found")
)
