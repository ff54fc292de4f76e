// Package apperr declares the sentinel errors every service method returns.
// The HTTP layer maps each of them to exactly one status code, so no caller
// ever has to match on error strings.
package apperr

import "errors"

var (
	// ErrInvalidCredentials covers both unknown email and wrong password,
	// deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountDisabled means the identity was proven but the account is
	// deactivated.
	ErrAccountDisabled = errors.New("account disabled")

	// ErrInvalidToken covers malformed, signature-invalid, expired tokens
	// and refresh tokens whose row is missing or already revoked.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenVersionMismatch means the token's embedded version is stale
	// relative to the live user record.
	ErrTokenVersionMismatch = errors.New("token version mismatch")

	// ErrUnauthorized is a generic identity/ownership mismatch.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPermissionDenied means the role lacks the required action flag.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrProtectedEntity rejects mutation of system roles/features.
	ErrProtectedEntity = errors.New("protected entity")

	// ErrInvalidReference means a supplied foreign id does not exist.
	ErrInvalidReference = errors.New("invalid reference")

	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)
