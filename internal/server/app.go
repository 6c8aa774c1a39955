// Package server initializes and runs the main application server. It loads
// configuration, connects to storage, applies migrations, wires services and
// starts the HTTP endpoint, handling graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"taskkeeper/internal/common"
	"taskkeeper/internal/logging"
	"taskkeeper/internal/server/config"
	"taskkeeper/internal/server/httpapi"
	"taskkeeper/internal/server/mail"
	"taskkeeper/internal/server/repositories/repomanager"
	"taskkeeper/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// the signing key is loaded once here and never changes during the
	// process lifetime
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: empty JWT secret key", common.ErrMisconfigured)
	}

	db, err := repomanager.Open(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	notifier, err := mail.NewSMTPNotifier(cfg)
	if err != nil {
		return nil, fmt.Errorf("notifier init error: %w", err)
	}

	us := services.NewUserService(db, m, notifier, logger, cfg)
	ts := services.NewTaskService(db, m, cfg)

	srv := httpapi.NewServer(cfg.EndpointAddr, logger, us, ts, cfg.SecretKey)

	return &App{config: cfg, logger: logger, db: db, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.EndpointAddr)

	app.initSignalHandler(cancelFunc)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "server stopped", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
