// Package server wires configuration, storage and services together and
// runs the HTTP endpoint until the process is told to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/bucketstore/internal/cryptox"
	"github.com/dmitrijs2005/bucketstore/internal/logging"
	"github.com/dmitrijs2005/bucketstore/internal/server/auth"
	"github.com/dmitrijs2005/bucketstore/internal/server/blobstore"
	"github.com/dmitrijs2005/bucketstore/internal/server/config"
	"github.com/dmitrijs2005/bucketstore/internal/server/httpserver"
	"github.com/dmitrijs2005/bucketstore/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bucketstore/internal/server/services"
	"github.com/gin-gonic/gin"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpserver.Server
}

// NewApp opens the database, applies migrations in production, prepares the
// storage root and builds the HTTP server.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, cfg.Production())
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if cfg.Production() {
		logger.Info(ctx, "Running migrations...")
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	store, err := blobstore.OpenDir(cfg.StorageRoot)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage root %s: %w", cfg.StorageRoot, err)
	}

	keys := services.NewKeyService(db, rm, cryptox.NewArgon2Hasher(), logger)
	uploads := services.NewUploadService(db, rm, logger)
	content := services.NewContentStore(db, rm, store, logger)
	files := services.NewFileService(db, content, services.NewNamespace(db, rm, content), logger)

	srv := httpserver.New(httpserver.Options{
		Address:         cfg.EndpointAddrHTTP,
		AllowedOrigins:  cfg.AllowedOrigins,
		ShutdownTimeout: cfg.ShutdownTimeout,
		MaxUploadBytes:  cfg.MaxUploadBytes,
	}, logger, keys, auth.NewGate(keys), uploads, files)

	return &App{config: cfg, logger: logger, db: db, http: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a termination signal arrives or ctx is cancelled.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", string(app.config.Environment))

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "close db", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
