package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taskkeeper/internal/server/config"
	"taskkeeper/internal/server/models"
	"taskkeeper/internal/server/repositories/repomanager"
	"taskkeeper/internal/server/repositories/tasks"
)

// CreateTaskParams are the caller-supplied fields for a new task. The owner
// id is not here on purpose: it always comes from the authenticated caller.
type CreateTaskParams struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    int
	CategoryID  *string
}

// UpdateTaskParams is the full replacement value set for an update; nil
// DueDate/CategoryID clear the stored values.
type UpdateTaskParams = tasks.UpdateParams

// TaskService implements the ownership-scoped task and category operations.
// Every method takes the resolved owner id explicitly; nothing is read from
// ambient state, and the scoping is pushed into the storage layer as a
// compound (id, owner) filter.
type TaskService struct {
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	storageTimeout time.Duration
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *TaskService {
	return &TaskService{
		db:             db,
		repomanager:    m,
		storageTimeout: cfg.StorageTimeout,
	}
}

// ListTasks returns the owner's tasks, newest-created first.
func (s *TaskService) ListTasks(ctx context.Context, ownerID string) ([]*models.Task, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repomanager.Tasks(s.db).List(ctx, ownerID)
}

// GetTask returns one of the owner's tasks; a task owned by somebody else is
// reported as common.ErrorNotFound, never as a permission error.
func (s *TaskService) GetTask(ctx context.Context, id string, ownerID string) (*models.Task, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repomanager.Tasks(s.db).Get(ctx, id, ownerID)
}

// CreateTask creates a task owned by ownerID. An unset priority defaults to
// low.
func (s *TaskService) CreateTask(ctx context.Context, ownerID string, p CreateTaskParams) (*models.Task, error) {
	priority := p.Priority
	if priority == 0 {
		priority = models.PriorityLow
	}

	task := &models.Task{
		Title:       p.Title,
		Description: p.Description,
		DueDate:     p.DueDate,
		Priority:    priority,
		UserID:      ownerID,
		CategoryID:  p.CategoryID,
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	repo := s.repomanager.Tasks(s.db)
	task, err := repo.Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}

	// re-read to pick up the joined category attributes
	return repo.Get(ctx, task.ID, ownerID)
}

// UpdateTask replaces the task's mutable fields. The completion transition
// side effects (stamping and clearing completed_at) are applied atomically by
// the storage layer.
func (s *TaskService) UpdateTask(ctx context.Context, id string, ownerID string, p UpdateTaskParams) (*models.Task, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	repo := s.repomanager.Tasks(s.db)
	task, err := repo.Update(ctx, id, ownerID, p)
	if err != nil {
		return nil, err
	}

	if task.CategoryID == nil {
		return task, nil
	}
	return repo.Get(ctx, task.ID, ownerID)
}

// DeleteTask reports true iff a task matching both id and owner existed and
// was removed.
func (s *TaskService) DeleteTask(ctx context.Context, id string, ownerID string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repomanager.Tasks(s.db).Delete(ctx, id, ownerID)
}

// ListCategories returns the owner's categories, name order, each with its
// computed task count.
func (s *TaskService) ListCategories(ctx context.Context, ownerID string) ([]*models.Category, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repomanager.Categories(s.db).List(ctx, ownerID)
}

// CreateCategory creates a category owned by ownerID. An empty color gets
// the default.
func (s *TaskService) CreateCategory(ctx context.Context, ownerID string, name string, color string) (*models.Category, error) {
	if color == "" {
		color = models.DefaultCategoryColor
	}

	category := &models.Category{
		Name:   name,
		Color:  color,
		UserID: ownerID,
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	category, err := s.repomanager.Categories(s.db).Create(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("error creating category: %w", err)
	}
	return category, nil
}

// UpdateCategory renames or recolors one of the owner's categories.
func (s *TaskService) UpdateCategory(ctx context.Context, id string, ownerID string, name string, color string) (*models.Category, error) {
	if color == "" {
		color = models.DefaultCategoryColor
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repomanager.Categories(s.db).Update(ctx, id, ownerID, name, color)
}

// DeleteCategory removes a category; its tasks are detached (category
// reference set to null), never deleted.
func (s *TaskService) DeleteCategory(ctx context.Context, id string, ownerID string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repomanager.Categories(s.db).Delete(ctx, id, ownerID)
}

func (s *TaskService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storageTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storageTimeout)
}
