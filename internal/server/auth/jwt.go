// Package auth mints and verifies the bearer tokens that authenticate every
// request. Tokens are self-contained HS256 JWTs; nothing is looked up
// server-side, so verification is a pure function of (token, key, clock).
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskkeeper/internal/common"
	"taskkeeper/internal/server/models"
)

// Claims carried inside an access token: the standard registered set plus
// the owning user's id, email and display name. UserID is the sole
// authorization key for every downstream data operation.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// GenerateToken signs a token for the given user, valid from now for
// validityDuration. An empty secret key is a configuration error, never a
// per-request condition.
func GenerateToken(user *models.User, secretKey []byte, validityDuration time.Duration) (string, error) {
	if len(secretKey) == 0 {
		return "", common.ErrMisconfigured
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.DisplayName(),
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies signature and expiry and returns the embedded claims.
// Every failure mode (malformed token, wrong algorithm, bad signature,
// expired) collapses to common.ErrUnauthenticated so callers cannot tell
// which check rejected the token.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, common.ErrUnauthenticated
	}

	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrUnauthenticated
	}

	return claims, nil
}
