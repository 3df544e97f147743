package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"locallink-be/auth"
	"locallink-be/config"
	"locallink-be/controllers"
	"locallink-be/logging"
	"locallink-be/models"
	"locallink-be/routes"
	"locallink-be/storage"
	"locallink-be/store"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
	// certsRefreshSpec keeps the Firebase signing keys warm ahead of rotation.
	certsRefreshSpec = "@every 30m"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the LocalLink HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
		slog.SetDefault(logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	} else if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	checks := map[string]controllers.HealthCheck{}

	repos, pool, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if pool != nil {
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := pool.Disconnect(disconnectCtx); err != nil {
				logger.Error("mongo disconnect failed", "error", err)
			}
		}()
		checks["mongo"] = pool.Ping
	}

	rdb, err := config.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	verifier, keys := auth.NewVerifier(cfg.Auth, rdb, logger)
	if keys != nil {
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(certsRefreshSpec, func() {
			refreshCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := keys.Refresh(refreshCtx); err != nil {
				logger.Warn("refreshing Firebase signing keys failed", "error", err)
			}
		}); err != nil {
			return fmt.Errorf("schedule key refresh: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()

		if _, err := keys.Refresh(ctx); err != nil {
			logger.Warn("initial Firebase key fetch failed; will retry on demand", "error", err)
		}
	}

	uploader, backend, err := openUploader(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	if closer, ok := backend.(io.Closer); ok {
		defer closer.Close()
	}

	router := routes.NewRouter(routes.Deps{
		Repos:        repos,
		Verifier:     verifier,
		AdminEmails:  cfg.Auth.AdminEmails,
		Uploader:     uploader,
		HealthChecks: checks,
		CORSOrigins:  cfg.CORSOrigins,
		Logger:       logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("LocalLink API listening", "addr", server.Addr, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openRepositories connects to MongoDB, or falls back to in-memory storage
// when MONGODB_URI is unset. The pool is nil in memory mode.
func openRepositories(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Repositories, *config.MongoPool, error) {
	if cfg.Mongo.URI == "" {
		if cfg.Production() {
			return store.Repositories{}, nil, errors.New("MONGODB_URI is required in production")
		}
		logger.Warn("MONGODB_URI not set: using in-memory storage, data is lost on restart")
		return store.NewMemoryRepositories(), nil, nil
	}

	pool := config.NewMongoPool(cfg.Mongo)
	db, err := pool.Database(ctx)
	if err != nil {
		return store.Repositories{}, nil, err
	}
	if err := models.EnsureIndexes(ctx, db); err != nil {
		logger.Warn("ensuring indexes failed", "error", err)
	}
	logger.Info("MongoDB connection established", "database", cfg.Mongo.Database)

	return store.Repositories{
		Issues:   store.NewMongoIssueRepository(db),
		Comments: store.NewMongoCommentRepository(db),
		Users:    store.NewMongoUserRepository(db),
	}, pool, nil
}

// openUploader returns nil when STORAGE_BACKEND is unset, which turns the
// upload route into a 503.
func openUploader(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*storage.Uploader, storage.ObjectStorage, error) {
	backend, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if backend == nil {
		logger.Info("no STORAGE_BACKEND configured: image uploads disabled")
		return nil, nil, nil
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	logger.Info("image uploads enabled", "backend", cfg.Backend, "bucket", backend.Bucket())
	return storage.NewUploader(backend, cfg.UploadMaxBytes), backend, nil
}
