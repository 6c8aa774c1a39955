package categories

import (
	"context"

	"taskkeeper/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, userID string) ([]*models.Category, error)
	Get(ctx context.Context, id string, userID string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) (*models.Category, error)
	Update(ctx context.Context, id string, userID string, name string, color string) (*models.Category, error)
	Delete(ctx context.Context, id string, userID string) (bool, error)
}
