package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/botslatam/admin-engine/pkg/auth"
	"github.com/botslatam/admin-engine/pkg/config"
	"github.com/botslatam/admin-engine/pkg/crypto"
	"github.com/botslatam/admin-engine/pkg/database"
	"github.com/botslatam/admin-engine/pkg/handlers"
	"github.com/botslatam/admin-engine/pkg/logging"
	"github.com/botslatam/admin-engine/pkg/middleware"
	"github.com/botslatam/admin-engine/pkg/repositories"
	"github.com/botslatam/admin-engine/pkg/retry"
	"github.com/botslatam/admin-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runMigrations(cfg, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// The database may still be coming up when the service starts.
	db, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*database.DB, error) {
		return database.NewConnection(ctx, cfg.Database.ConnectionString(), cfg.Database.MaxConnections)
	})
	if err != nil {
		logger.Fatal("Failed to connect to database",
			zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	datasetRepo := repositories.NewDatasetRepository(db)

	secrets, err := crypto.NewSecretEncryptor(cfg.Auth.SecretsKey)
	if err != nil {
		logger.Fatal("Failed to create secret encryptor", zap.Error(err))
	}

	// Services
	authService := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	userService := services.NewUserService(userRepo, cfg.Auth.TOTPIssuer, secrets, logger)
	uploadService := services.NewUploadService(datasetRepo, cfg.Upload.MaxFileSizeBytes, logger)

	// HTTP handlers
	authMiddleware := auth.NewMiddleware(authService, logger)
	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAuthHandler(userService, authService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewUsersHandler(userService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewUploadHandler(uploadService, cfg.Upload.MaxFileSizeBytes, logger).RegisterRoutes(mux, authMiddleware)

	addr := net.JoinHostPort(cfg.BindAddr, cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           middleware.RequestID(middleware.RequestLogger(logger)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting admin-engine",
			zap.String("addr", addr),
			zap.String("version", cfg.Version))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", zap.Error(err))
		}
	}
}

// runMigrations opens a short-lived database/sql connection for the
// migration runner and closes it before the pool is created.
func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	db, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return database.RunMigrations(db, cfg.Upload.MigrationsPath, logger)
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
