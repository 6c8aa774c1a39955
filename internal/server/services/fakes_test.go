package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskkeeper/internal/common"
	"taskkeeper/internal/dbx"
	"taskkeeper/internal/server/models"
	categoriesrepo "taskkeeper/internal/server/repositories/categories"
	resettokensrepo "taskkeeper/internal/server/repositories/resettokens"
	tasksrepo "taskkeeper/internal/server/repositories/tasks"
	usersrepo "taskkeeper/internal/server/repositories/users"
)

// In-memory fakes mirroring the repositories' contracts, including the
// compound (id, owner) filtering and the completion-timestamp transition the
// SQL layer performs.

type fakeUsersRepo struct {
	mu    sync.Mutex
	users map[string]*models.User // by id
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, common.ErrEmailAlreadyExists
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) UpdatePasswordHash(ctx context.Context, userID string, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

type fakeResetTokensRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.ResetToken // by hash
}

func newFakeResetTokensRepo() *fakeResetTokensRepo {
	return &fakeResetTokensRepo{tokens: map[string]*models.ResetToken{}}
}

func (f *fakeResetTokensRepo) Create(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[tokenHash] = &models.ResetToken{TokenHash: tokenHash, UserID: userID, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeResetTokensRepo) DeleteForUser(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for hash, tok := range f.tokens {
		if tok.UserID == userID {
			delete(f.tokens, hash)
		}
	}
	return nil
}

func (f *fakeResetTokensRepo) Consume(ctx context.Context, userID string, tokenHash string) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok, ok := f.tokens[tokenHash]
	if !ok || tok.UserID != userID {
		return time.Time{}, common.ErrorNotFound
	}
	delete(f.tokens, tokenHash)
	return tok.ExpiresAt, nil
}

func (f *fakeResetTokensRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

type fakeTasksRepo struct {
	mu    sync.Mutex
	tasks map[string]*models.Task // by id
}

func newFakeTasksRepo() *fakeTasksRepo {
	return &fakeTasksRepo{tasks: map[string]*models.Task{}}
}

func (f *fakeTasksRepo) List(ctx context.Context, userID string) ([]*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.Task
	for _, t := range f.tasks {
		if t.UserID == userID {
			copied := *t
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (f *fakeTasksRepo) Get(ctx context.Context, id string, userID string) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return nil, common.ErrorNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTasksRepo) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task.ID = uuid.NewString()
	task.CreatedAt = time.Now()
	copied := *task
	f.tasks[task.ID] = &copied
	return task, nil
}

func (f *fakeTasksRepo) Update(ctx context.Context, id string, userID string, p tasksrepo.UpdateParams) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return nil, common.ErrorNotFound
	}
	// same transition the SQL statement applies
	switch {
	case p.IsCompleted && !t.IsCompleted:
		now := time.Now()
		t.CompletedAt = &now
	case !p.IsCompleted:
		t.CompletedAt = nil
	}
	t.Title = p.Title
	t.Description = p.Description
	t.IsCompleted = p.IsCompleted
	t.DueDate = p.DueDate
	t.Priority = p.Priority
	t.CategoryID = p.CategoryID
	copied := *t
	return &copied, nil
}

func (f *fakeTasksRepo) Delete(ctx context.Context, id string, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return false, nil
	}
	delete(f.tasks, id)
	return true, nil
}

type fakeCategoriesRepo struct {
	mu         sync.Mutex
	categories map[string]*models.Category
	tasks      *fakeTasksRepo
}

func newFakeCategoriesRepo(tasks *fakeTasksRepo) *fakeCategoriesRepo {
	return &fakeCategoriesRepo{categories: map[string]*models.Category{}, tasks: tasks}
}

func (f *fakeCategoriesRepo) List(ctx context.Context, userID string) ([]*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.Category
	for _, c := range f.categories {
		if c.UserID != userID {
			continue
		}
		copied := *c
		if f.tasks != nil {
			f.tasks.mu.Lock()
			for _, t := range f.tasks.tasks {
				if t.CategoryID != nil && *t.CategoryID == c.ID {
					copied.TaskCount++
				}
			}
			f.tasks.mu.Unlock()
		}
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (f *fakeCategoriesRepo) Get(ctx context.Context, id string, userID string) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok || c.UserID != userID {
		return nil, common.ErrorNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCategoriesRepo) Create(ctx context.Context, category *models.Category) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	category.ID = uuid.NewString()
	copied := *category
	f.categories[category.ID] = &copied
	return category, nil
}

func (f *fakeCategoriesRepo) Update(ctx context.Context, id string, userID string, name string, color string) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok || c.UserID != userID {
		return nil, common.ErrorNotFound
	}
	c.Name = name
	c.Color = color
	copied := *c
	return &copied, nil
}

func (f *fakeCategoriesRepo) Delete(ctx context.Context, id string, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok || c.UserID != userID {
		return false, nil
	}
	delete(f.categories, id)
	// detach, never delete, the category's tasks
	if f.tasks != nil {
		f.tasks.mu.Lock()
		for _, t := range f.tasks.tasks {
			if t.CategoryID != nil && *t.CategoryID == id {
				t.CategoryID = nil
			}
		}
		f.tasks.mu.Unlock()
	}
	return true, nil
}

type fakeRepoManager struct {
	users       *fakeUsersRepo
	tasks       *fakeTasksRepo
	categories  *fakeCategoriesRepo
	resetTokens *fakeResetTokensRepo
}

func newFakeRepoManager() *fakeRepoManager {
	tasks := newFakeTasksRepo()
	return &fakeRepoManager{
		users:       newFakeUsersRepo(),
		tasks:       tasks,
		categories:  newFakeCategoriesRepo(tasks),
		resetTokens: newFakeResetTokensRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.users }
func (m *fakeRepoManager) Tasks(db dbx.DBTX) tasksrepo.Repository       { return m.tasks }
func (m *fakeRepoManager) Categories(db dbx.DBTX) categoriesrepo.Repository {
	return m.categories
}
func (m *fakeRepoManager) ResetTokens(db dbx.DBTX) resettokensrepo.Repository {
	return m.resetTokens
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []sentEmail
	sendErr error
}

type sentEmail struct {
	to      string
	subject string
	body    string
}

func (f *fakeNotifier) SendEmail(ctx context.Context, to string, subject string, htmlBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, body: htmlBody})
	return nil
}
