package common

import (
	"crypto/rand"
	"encoding/base64"
)

// MakeRandURLString generates size random bytes and encodes them with
// unpadded base64url, suitable for secrets carried in links or headers.
// It returns an error only if the random number generator fails.
func MakeRandURLString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
