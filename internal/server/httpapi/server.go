// Package httpapi exposes the REST endpoints consumed by the web client.
// Handlers extract the bearer token, resolve the caller and pass the
// resulting owner id explicitly into the services; no ambient user state.
package httpapi

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"taskkeeper/internal/logging"
	"taskkeeper/internal/server/services"
)

type Server struct {
	addr      string
	app       *fiber.App
	logger    logging.Logger
	users     *services.UserService
	tasks     *services.TaskService
	jwtSecret []byte
}

func NewServer(addr string, logger logging.Logger, users *services.UserService, tasks *services.TaskService, secretKey string) *Server {
	s := &Server{
		addr:      addr,
		app:       fiber.New(),
		logger:    logger,
		users:     users,
		tasks:     tasks,
		jwtSecret: []byte(secretKey),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", s.handleRegister)
	authGroup.Post("/login", s.handleLogin)
	authGroup.Post("/forgot-password", s.handleForgotPassword)
	authGroup.Post("/reset-password", s.handleResetPassword)

	taskGroup := api.Group("/tasks", s.authMiddleware)
	taskGroup.Get("/", s.handleListTasks)
	taskGroup.Post("/", s.handleCreateTask)
	taskGroup.Get("/categories", s.handleListCategories)
	taskGroup.Post("/categories", s.handleCreateCategory)
	taskGroup.Put("/categories/:id", s.handleUpdateCategory)
	taskGroup.Delete("/categories/:id", s.handleDeleteCategory)
	taskGroup.Get("/:id", s.handleGetTask)
	taskGroup.Put("/:id", s.handleUpdateTask)
	taskGroup.Delete("/:id", s.handleDeleteTask)
}

// Run serves until ctx is cancelled, then shuts the listener down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.addr)
	}()

	select {
	case <-ctx.Done():
		return s.app.ShutdownWithContext(context.Background())
	case err := <-errCh:
		return err
	}
}
