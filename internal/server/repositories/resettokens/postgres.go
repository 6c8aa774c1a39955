// Package resettokens provides the PostgreSQL-backed repository for
// single-use password-reset tokens. Only token digests are stored.
package resettokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taskkeeper/internal/common"
	"taskkeeper/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error {
	query :=
		`INSERT INTO reset_tokens (token_hash, user_id, expires_at)
		 VALUES ($1, $2, $3)
		 `

	if _, err := r.db.ExecContext(ctx, query, tokenHash, userID, expiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteForUser drops every outstanding token for a user, so issuing a new
// reset invalidates prior ones.
func (r *PostgresRepository) DeleteForUser(ctx context.Context, userID string) error {
	query :=
		`DELETE FROM reset_tokens
		 WHERE user_id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Consume deletes the matching token and returns its expiry in one statement.
// A missing row (never issued, or already consumed) yields common.ErrorNotFound.
func (r *PostgresRepository) Consume(ctx context.Context, userID string, tokenHash string) (time.Time, error) {
	query :=
		`DELETE FROM reset_tokens
		 WHERE token_hash = $1 AND user_id = $2
		 RETURNING expires_at
		 `

	var expiresAt time.Time
	err := r.db.QueryRowContext(ctx, query, tokenHash, userID).Scan(&expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, common.ErrorNotFound
		}
		return time.Time{}, fmt.Errorf("db error: %w", err)
	}
	return expiresAt, nil
}
