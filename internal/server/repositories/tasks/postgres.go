// Package tasks provides the PostgreSQL-backed repository for
// ownership-scoped task persistence.
package tasks

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

const taskColumns = `t.id, t.title, t.description, t.is_completed, t.created_at, t.completed_at,
		t.due_date, t.priority, t.user_id, t.category_id, c.name, c.color`

// List returns the owner's tasks, newest-created first, with category name
// and color joined in.
func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + `
		 FROM tasks t
		 LEFT JOIN categories c ON c.id = t.category_id
		 WHERE t.user_id = $1
		 ORDER BY t.created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Get returns one task scoped to its owner. Somebody else's task is
// indistinguishable from a missing one: both yield common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id string, userID string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + `
		 FROM tasks t
		 LEFT JOIN categories c ON c.id = t.category_id
		 WHERE t.id = $1 AND t.user_id = $2
		 `

	rows, err := r.db.QueryContext(ctx, query, id, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		return nil, common.ErrorNotFound
	}
	return scanTask(rows)
}

// Create inserts a task for its owner. The owner id comes from the
// authenticated caller, never from a request payload.
func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	task.ID = uuid.NewString()

	query :=
		`INSERT INTO tasks (id, title, description, due_date, priority, user_id, category_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING is_completed, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		task.ID, task.Title, task.Description, task.DueDate, task.Priority, task.UserID, task.CategoryID).
		Scan(&task.IsCompleted, &task.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}

// Update replaces the mutable fields of a task in a single statement. The
// completion timestamp transition happens inside the query so it is atomic
// with the flag change: entering completed stamps completed_at, leaving it
// clears the stamp, staying completed preserves it.
func (r *PostgresRepository) Update(ctx context.Context, id string, userID string, p UpdateParams) (*models.Task, error) {
	query :=
		`UPDATE tasks SET
			title = $1,
			description = $2,
			completed_at = CASE
				WHEN $3::boolean AND NOT is_completed THEN now()
				WHEN NOT $3::boolean THEN NULL
				ELSE completed_at
			END,
			is_completed = $3,
			due_date = $4,
			priority = $5,
			category_id = $6
		 WHERE id = $7 AND user_id = $8
		 RETURNING id, title, description, is_completed, created_at, completed_at, due_date, priority, user_id, category_id
		 `

	task := &models.Task{}
	var completedAt, dueDate sql.NullTime
	var categoryID sql.NullString

	err := r.db.QueryRowContext(ctx, query,
		p.Title, p.Description, p.IsCompleted, p.DueDate, p.Priority, p.CategoryID, id, userID).
		Scan(&task.ID, &task.Title, &task.Description, &task.IsCompleted, &task.CreatedAt,
			&completedAt, &dueDate, &task.Priority, &task.UserID, &categoryID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}
	if dueDate.Valid {
		task.DueDate = &dueDate.Time
	}
	if categoryID.Valid {
		task.CategoryID = &categoryID.String
	}
	return task, nil
}

// Delete removes a task and reports whether a row matching both id and owner
// existed.
func (r *PostgresRepository) Delete(ctx context.Context, id string, userID string) (bool, error) {
	query :=
		`DELETE FROM tasks
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

func scanTask(rows *sql.Rows) (*models.Task, error) {
	task := &models.Task{}
	var completedAt, dueDate sql.NullTime
	var categoryID, categoryName, categoryColor sql.NullString

	if err := rows.Scan(
		&task.ID, &task.Title, &task.Description, &task.IsCompleted, &task.CreatedAt,
		&completedAt, &dueDate, &task.Priority, &task.UserID,
		&categoryID, &categoryName, &categoryColor,
	); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}
	if dueDate.Valid {
		task.DueDate = &dueDate.Time
	}
	if categoryID.Valid {
		task.CategoryID = &categoryID.String
	}
	if categoryName.Valid {
		task.CategoryName = &categoryName.String
	}
	if categoryColor.Valid {
		task.CategoryColor = &categoryColor.String
	}
	return task, nil
}
