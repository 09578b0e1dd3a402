package domain

import "errors"

var (
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrInvalidIdentity    = errors.New("identity requires subject, username and a known role")
	ErrMalformedHash      = errors.New("stored credential hash is malformed")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
	ErrStoreUnavailable   = errors.New("user store unavailable")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidInput       = errors.New("username must be 1-50 characters and password 1-72 bytes")
)
