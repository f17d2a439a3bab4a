// Package domain holds the error taxonomy shared by repositories, services
// and handlers. Handlers map these sentinels to HTTP statuses; anything not
// listed here is treated as an infrastructure failure.
package domain

import "errors"

var (
	// ErrInvalidInput marks client-correctable validation failures.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateEmail is returned when registration races or repeats an
	// existing email. The unique index on lower(email) is the single point
	// of truth, so exactly one concurrent registration wins.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials covers both unknown email and wrong password,
	// deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken covers malformed, tampered and expired session tokens.
	ErrInvalidToken = errors.New("invalid or expired token")

	ErrNotFound = errors.New("not found")

	// ErrRecognitionUpstream marks a failed round trip to the external
	// prediction service. The upstream status and body are attached to the
	// wrapping error for logs and must never reach the client.
	ErrRecognitionUpstream = errors.New("recognition service failure")
)
