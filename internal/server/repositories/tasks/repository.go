package tasks

import (
	"context"
	"time"

	"taskkeeper/internal/server/models"
)

// UpdateParams is the full replacement value set for an update. DueDate and
// CategoryID are pointers: nil clears the stored value, so an update can
// remove a due date or detach a category.
type UpdateParams struct {
	Title       string
	Description string
	IsCompleted bool
	DueDate     *time.Time
	Priority    int
	CategoryID  *string
}

// Repository operations all take the owner's user id and fold it into the
// WHERE clause, so "exists but not yours" and "does not exist" are the same
// outcome.
type Repository interface {
	List(ctx context.Context, userID string) ([]*models.Task, error)
	Get(ctx context.Context, id string, userID string) (*models.Task, error)
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	Update(ctx context.Context, id string, userID string, p UpdateParams) (*models.Task, error)
	Delete(ctx context.Context, id string, userID string) (bool, error)
}
