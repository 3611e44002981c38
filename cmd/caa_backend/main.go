package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/kardo-hq/card_accounting_app/internal/adapters/provider"
	"github.com/kardo-hq/card_accounting_app/internal/adapters/receipt"
	portssvc "github.com/kardo-hq/card_accounting_app/internal/core/ports/services"
	"github.com/kardo-hq/card_accounting_app/internal/core/services"
	"github.com/kardo-hq/card_accounting_app/internal/handlers"
	"github.com/kardo-hq/card_accounting_app/internal/middleware"
	"github.com/kardo-hq/card_accounting_app/internal/platform/config"
	"github.com/kardo-hq/card_accounting_app/internal/repositories/database/pgsql"
	"github.com/kardo-hq/card_accounting_app/pkg/database"
)

// @title Card Accounting API
// @version 1.0
// @description Accounting integration for corporate card transactions and mileage expenses.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(logger, cfg.DatabaseURL); err != nil {
		os.Exit(1)
	}

	repos := pgsql.NewRepositoryProvider(dbPool)
	serviceContainer := services.NewContainer(repos, services.ContainerOptions{
		MatchMode:       cfg.PartnerMatchMode,
		ProviderOAuthID: cfg.ProviderOAuthID,
		ProviderSecret:  cfg.ProviderOAuthSecret,
		NewClient: func(creds provider.Credentials) services.ProviderAPI {
			return provider.NewClient(cfg.ProviderAPIBaseURL, cfg.ProviderTokenURL, creds, nil)
		},
		Receipts: receipt.NewHTTPFetcher(nil),
	})

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, repos)

	startSyncScheduler(logger, cfg, serviceContainer)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies all pending "up" migrations before the server
// accepts traffic.
func runMigrations(logger *slog.Logger, databaseURL string) error {
	logger.Info("Running database migrations...")
	// Open a temporary standard sql.DB connection for migrations, using the
	// pgx stdlib driver to stay compatible with the main pool.
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		logger.Error("Failed to open database connection for migrations", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		logger.Error("Failed to ping database for migrations", slog.String("error", err.Error()))
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		logger.Error("Could not create postgres driver instance for migrations", slog.String("error", err.Error()))
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		logger.Error("Could not create migrate instance", slog.String("error", err.Error()))
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		return err
	}
	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

// startSyncScheduler kicks off the periodic provider-API sync across all
// companies with credentials. Per-company failures are logged inside the
// sync service and never stop the ticker.
func startSyncScheduler(logger *slog.Logger, cfg *config.Config, services *portssvc.ServiceContainer) {
	if cfg.SyncInterval <= 0 {
		logger.Info("Periodic sync disabled")
		return
	}
	syncLogger := logger.With(slog.String("caller_id", cfg.SyncToken))

	runOnce := func() {
		ctx := middleware.ContextWithLogger(context.Background(), syncLogger)
		if err := services.Sync.SyncAllCompanies(ctx); err != nil {
			syncLogger.Error("Scheduled sync failed", slog.String("error", err.Error()))
		}
	}

	go func() {
		if cfg.SyncOnStartup {
			runOnce()
		}
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for range ticker.C {
			runOnce()
		}
	}()
	logger.Info("Periodic sync scheduled", slog.Duration("interval", cfg.SyncInterval))
}
