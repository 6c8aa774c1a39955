package httpapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"

	"taskkeeper/internal/common"
	"taskkeeper/internal/server/models"
	"taskkeeper/internal/server/services"
)

// Field limits, mirroring the persisted schema.
const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
	maxCategoryName   = 100
	maxColorLen       = 7
	minPasswordLen    = 6
)

// --- auth endpoints ---

func (s *Server) handleRegister(c fiber.Ctx) error {
	var req registerRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Email == "" {
		return badRequest(c, "email is required")
	}
	if len(req.Password) < minPasswordLen {
		return badRequest(c, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	result, err := s.users.Register(c.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		return s.handleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(toAuthResponse(result))
}

func (s *Server) handleLogin(c fiber.Ctx) error {
	var req loginRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email and password are required")
	}

	result, err := s.users.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return s.handleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(toAuthResponse(result))
}

func (s *Server) handleForgotPassword(c fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Email == "" {
		return badRequest(c, "email is required")
	}

	ok, message, err := s.users.RequestPasswordReset(c.Context(), req.Email)
	if err != nil {
		return s.handleError(c, err)
	}
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(messageResponse{Message: message})
	}

	return c.Status(fiber.StatusOK).JSON(messageResponse{Message: message})
}

func (s *Server) handleResetPassword(c fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.UserID == "" || req.Token == "" {
		return badRequest(c, "userId and token are required")
	}
	if len(req.NewPassword) < minPasswordLen {
		return badRequest(c, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	if err := s.users.CompletePasswordReset(c.Context(), req.UserID, req.Token, req.NewPassword); err != nil {
		return s.handleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(messageResponse{Message: "password has been reset"})
}

// --- task endpoints ---

func (s *Server) handleListTasks(c fiber.Ctx) error {
	items, err := s.tasks.ListTasks(c.Context(), callerID(c))
	if err != nil {
		return s.handleError(c, err)
	}
	return c.JSON(toTaskResponses(items))
}

func (s *Server) handleGetTask(c fiber.Ctx) error {
	task, err := s.tasks.GetTask(c.Context(), c.Params("id"), callerID(c))
	if err != nil {
		return s.handleError(c, err)
	}
	return c.JSON(toTaskResponse(task))
}

func (s *Server) handleCreateTask(c fiber.Ctx) error {
	var req taskRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if msg := validateTaskRequest(&req, true); msg != "" {
		return badRequest(c, msg)
	}

	task, err := s.tasks.CreateTask(c.Context(), callerID(c), services.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		return s.handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toTaskResponse(task))
}

func (s *Server) handleUpdateTask(c fiber.Ctx) error {
	var req taskRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if msg := validateTaskRequest(&req, false); msg != "" {
		return badRequest(c, msg)
	}

	task, err := s.tasks.UpdateTask(c.Context(), c.Params("id"), callerID(c), services.UpdateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		IsCompleted: req.IsCompleted,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		return s.handleError(c, err)
	}

	return c.JSON(toTaskResponse(task))
}

func (s *Server) handleDeleteTask(c fiber.Ctx) error {
	deleted, err := s.tasks.DeleteTask(c.Context(), c.Params("id"), callerID(c))
	if err != nil {
		return s.handleError(c, err)
	}
	if !deleted {
		return notFound(c)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// --- category endpoints ---

func (s *Server) handleListCategories(c fiber.Ctx) error {
	items, err := s.tasks.ListCategories(c.Context(), callerID(c))
	if err != nil {
		return s.handleError(c, err)
	}
	return c.JSON(toCategoryResponses(items))
}

func (s *Server) handleCreateCategory(c fiber.Ctx) error {
	var req categoryRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if msg := validateCategoryRequest(&req); msg != "" {
		return badRequest(c, msg)
	}

	category, err := s.tasks.CreateCategory(c.Context(), callerID(c), req.Name, req.Color)
	if err != nil {
		return s.handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toCategoryResponse(category))
}

func (s *Server) handleUpdateCategory(c fiber.Ctx) error {
	var req categoryRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if msg := validateCategoryRequest(&req); msg != "" {
		return badRequest(c, msg)
	}

	category, err := s.tasks.UpdateCategory(c.Context(), c.Params("id"), callerID(c), req.Name, req.Color)
	if err != nil {
		return s.handleError(c, err)
	}

	return c.JSON(toCategoryResponse(category))
}

func (s *Server) handleDeleteCategory(c fiber.Ctx) error {
	deleted, err := s.tasks.DeleteCategory(c.Context(), c.Params("id"), callerID(c))
	if err != nil {
		return s.handleError(c, err)
	}
	if !deleted {
		return notFound(c)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// --- helpers ---

func validateTaskRequest(req *taskRequest, creating bool) string {
	if req.Title == "" {
		return "title is required"
	}
	if len(req.Title) > maxTitleLen {
		return fmt.Sprintf("title must be at most %d characters", maxTitleLen)
	}
	if len(req.Description) > maxDescriptionLen {
		return fmt.Sprintf("description must be at most %d characters", maxDescriptionLen)
	}
	if creating && req.Priority == 0 {
		return ""
	}
	if req.Priority < models.PriorityLow || req.Priority > models.PriorityHigh {
		return "priority must be between 1 and 3"
	}
	return ""
}

func validateCategoryRequest(req *categoryRequest) string {
	if req.Name == "" {
		return "name is required"
	}
	if len(req.Name) > maxCategoryName {
		return fmt.Sprintf("name must be at most %d characters", maxCategoryName)
	}
	if len(req.Color) > maxColorLen {
		return fmt.Sprintf("color must be at most %d characters", maxColorLen)
	}
	return ""
}

func toAuthResponse(result *services.AuthResult) authResponse {
	return authResponse{
		Token:      result.Token,
		Email:      result.User.Email,
		FirstName:  result.User.FirstName,
		LastName:   result.User.LastName,
		Expiration: result.ExpiresAt,
	}
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(messageResponse{Message: msg})
}

func notFound(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNotFound)
}

// handleError maps the core error taxonomy onto HTTP statuses. The transport
// never needs domain knowledge beyond this table.
func (s *Server) handleError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, common.ErrEmailAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(messageResponse{Message: err.Error()})
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(messageResponse{Message: err.Error()})
	case errors.Is(err, common.ErrorNotFound):
		return notFound(c)
	case errors.Is(err, common.ErrResetTokenInvalid):
		return c.Status(fiber.StatusBadRequest).JSON(messageResponse{Message: err.Error()})
	case errors.Is(err, common.ErrStorageUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusServiceUnavailable).JSON(messageResponse{Message: "temporarily unavailable"})
	default:
		s.logger.Error(c.Context(), "request failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(messageResponse{Message: "internal error"})
	}
}
