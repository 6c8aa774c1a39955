// Package categories provides the PostgreSQL-backed repository for
// ownership-scoped category persistence.
package categories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"taskkeeper/internal/common"
	"taskkeeper/internal/dbx"
	"taskkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns the owner's categories in name order, each with the number of
// tasks currently attached to it.
func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.Category, error) {
	query :=
		`SELECT c.id, c.name, c.color, c.user_id, count(t.id)
		 FROM categories c
		 LEFT JOIN tasks t ON t.category_id = c.id
		 WHERE c.user_id = $1
		 GROUP BY c.id, c.name, c.color, c.user_id
		 ORDER BY c.name
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Category
	for rows.Next() {
		var item models.Category
		if err := rows.Scan(&item.ID, &item.Name, &item.Color, &item.UserID, &item.TaskCount); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string, userID string) (*models.Category, error) {
	query :=
		`SELECT id, name, color, user_id FROM categories
		 WHERE id = $1 AND user_id = $2
		 `

	category := &models.Category{}
	err := r.db.QueryRowContext(ctx, query, id, userID).
		Scan(&category.ID, &category.Name, &category.Color, &category.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return category, nil
}

func (r *PostgresRepository) Create(ctx context.Context, category *models.Category) (*models.Category, error) {
	category.ID = uuid.NewString()

	query :=
		`INSERT INTO categories (id, name, color, user_id)
		 VALUES ($1, $2, $3, $4)
		 `

	if _, err := r.db.ExecContext(ctx, query,
		category.ID, category.Name, category.Color, category.UserID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return category, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, userID string, name string, color string) (*models.Category, error) {
	query :=
		`UPDATE categories SET name = $1, color = $2
		 WHERE id = $3 AND user_id = $4
		 RETURNING id, name, color, user_id
		 `

	category := &models.Category{}
	err := r.db.QueryRowContext(ctx, query, name, color, id, userID).
		Scan(&category.ID, &category.Name, &category.Color, &category.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return category, nil
}

// Delete removes a category scoped to its owner. Attached tasks are detached
// by the ON DELETE SET NULL constraint, never deleted.
func (r *PostgresRepository) Delete(ctx context.Context, id string, userID string) (bool, error) {
	query :=
		`DELETE FROM categories
		 WHERE id = $1 AND user_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}
