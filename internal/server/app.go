// Package server initializes and runs sessiond: it opens the database, runs
// migrations, wires the services and HTTP API, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/capsync/internal/logging"
	"github.com/dmitrijs2005/capsync/internal/server/config"
	"github.com/dmitrijs2005/capsync/internal/server/httpapi"
	"github.com/dmitrijs2005/capsync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/capsync/internal/server/services"
	"github.com/dmitrijs2005/capsync/internal/server/storage"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	userService    *services.UserService
	sessionService *services.SessionService
}

func NewApp(cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()

	presigner := storage.NewS3Presigner(storage.S3Config{
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
	})

	us := services.NewUserService(db, m, cfg)
	ss := services.NewSessionService(db, m, presigner, cfg)

	return &App{
		config:         cfg,
		logger:         logger,
		db:             db,
		repomanager:    m,
		userService:    us,
		sessionService: ss,
	}, nil
}

// CreateUser registers an account and is used by the -create-user flag.
func (app *App) CreateUser(ctx context.Context, username, password string) error {
	if err := app.migrate(ctx); err != nil {
		return err
	}
	_, err := app.userService.Register(ctx, username, password)
	return err
}

func (app *App) migrate(ctx context.Context) error {
	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting sessiond", "addr", app.config.ListenAddr)

	app.initSignalHandler(cancelFunc)

	if err := app.migrate(ctx); err != nil {
		return err
	}

	handler := httpapi.NewHandler(app.userService, app.sessionService, app.logger)
	router := httpapi.NewRouter(handler, app.userService)

	srv := &http.Server{
		Addr:    app.config.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	if err := app.db.Close(); err != nil {
		return fmt.Errorf("db close error: %w", err)
	}

	return nil
}
