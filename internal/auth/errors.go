package auth

import "errors"

// Expected outcomes surfaced to callers. Anything outside this set is an
// infrastructure failure and propagates as-is.
var (
	ErrDuplicateEmail       = errors.New("auth: email already registered")
	ErrDuplicateUsername    = errors.New("auth: username already taken")
	ErrRegistrationConflict = errors.New("auth: registration conflict")
	ErrInvalidCredentials   = errors.New("auth: invalid credentials")
	ErrInvalidToken         = errors.New("auth: invalid token")
	ErrPermissionDenied     = errors.New("auth: permission denied")

	ErrInvalidInput = errors.New("auth: invalid input")
	ErrNotFound     = errors.New("auth: not found")
	ErrConflict     = errors.New("auth: conflict")
)
