// Package common defines shared constants and sentinel errors used across
// TaskKeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors. ErrorNotFound also covers rows that exist but
	// belong to a different owner, so non-owners cannot probe for existence.
	ErrorNotFound = errors.New("not found")

	// Registration errors. The email uniqueness constraint maps here.
	ErrEmailAlreadyExists = errors.New("email already registered")

	// Login errors. Unknown email and wrong password both collapse to this
	// value so callers cannot enumerate registered addresses.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Token verification errors. Malformed, badly signed and expired tokens
	// all collapse to this value.
	ErrUnauthenticated = errors.New("unauthenticated")

	// Password reset errors (missing, expired or already consumed token).
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")

	// Transient storage failures, retryable by the caller.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Startup-fatal configuration problems, e.g. a missing signing key.
	// Never recoverable per-request.
	ErrMisconfigured = errors.New("misconfigured")

	// Generic internal flow control.
	ErrorInternal = errors.New("internal error")
)
