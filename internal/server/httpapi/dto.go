package httpapi

import (
	"time"

	"taskkeeper/internal/server/models"
)

// Request bodies. Field limits mirror the persisted schema; they are checked
// here so the services only ever see well-formed input.

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	UserID      string `json:"userId"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type taskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	IsCompleted bool       `json:"isCompleted"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    int        `json:"priority"`
	CategoryID  *string    `json:"categoryId"`
}

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Response bodies.

type authResponse struct {
	Token      string    `json:"token"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Expiration time.Time `json:"expiration"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type taskResponse struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	IsCompleted   bool       `json:"isCompleted"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt"`
	DueDate       *time.Time `json:"dueDate"`
	Priority      int        `json:"priority"`
	CategoryID    *string    `json:"categoryId"`
	CategoryName  *string    `json:"categoryName"`
	CategoryColor *string    `json:"categoryColor"`
}

type categoryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	TaskCount int    `json:"taskCount"`
}

func toTaskResponse(t *models.Task) taskResponse {
	return taskResponse{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		IsCompleted:   t.IsCompleted,
		CreatedAt:     t.CreatedAt,
		CompletedAt:   t.CompletedAt,
		DueDate:       t.DueDate,
		Priority:      t.Priority,
		CategoryID:    t.CategoryID,
		CategoryName:  t.CategoryName,
		CategoryColor: t.CategoryColor,
	}
}

func toTaskResponses(items []*models.Task) []taskResponse {
	result := make([]taskResponse, 0, len(items))
	for _, t := range items {
		result = append(result, toTaskResponse(t))
	}
	return result
}

func toCategoryResponse(c *models.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Color:     c.Color,
		TaskCount: c.TaskCount,
	}
}

func toCategoryResponses(items []*models.Category) []categoryResponse {
	result := make([]categoryResponse, 0, len(items))
	for _, c := range items {
		result = append(result, toCategoryResponse(c))
	}
	return result
}
