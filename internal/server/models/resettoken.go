package models

import "time"

// ResetToken is a single-use password-reset grant. Only the SHA-256 digest of
// the secret is stored; the plaintext token leaves the process exactly once,
// inside the reset email.
type ResetToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
}
