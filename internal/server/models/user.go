package models

import (
	"strings"
	"time"
)

// User is a registered account. PasswordHash holds a bcrypt digest; the
// plaintext password is never persisted or logged.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
}

// DisplayName returns the user's full name for token claims and UI.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
