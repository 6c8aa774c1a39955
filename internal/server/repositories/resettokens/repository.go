package resettokens

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error
	DeleteForUser(ctx context.Context, userID string) error
	// Consume atomically removes the token identified by (userID, tokenHash)
	// and returns its expiry. A token can therefore validate at most once.
	Consume(ctx context.Context, userID string, tokenHash string) (time.Time, error)
}
