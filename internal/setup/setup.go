// Package setup wires the shared dependencies of the peechi binaries.
package setup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/peechi-bot/peechi/internal/database"
	"github.com/peechi-bot/peechi/internal/database/migrations"
	"github.com/peechi-bot/peechi/internal/redis"
	"github.com/peechi-bot/peechi/internal/setup/config"
	"github.com/peechi-bot/peechi/internal/setup/telemetry"
	"github.com/peechi-bot/peechi/internal/setup/telemetry/alert"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

// ErrPendingMigrations is returned when the schema is behind and auto-migration is off.
var ErrPendingMigrations = errors.New("database migrations are pending; run `db migrate` or start with --auto-migrate")

// tracingFlushTimeout bounds flushing spans on shutdown.
const tracingFlushTimeout = 5 * time.Second

// App bundles the core dependencies of a process.
type App struct {
	Config       *config.Config     // Application configuration
	Logger       *zap.Logger        // Main application logger
	DBLogger     *zap.Logger        // Database-specific logger
	DB           database.Client    // Database connection pool
	RedisManager *redis.Manager     // Redis connection manager
	LogManager   *telemetry.Manager // Log session management
	Alerts       *alert.Queue       // Nil when alerting is disabled

	shutdownTracing func(context.Context) error
}

// Options controls InitializeApp.
type Options struct {
	// Component names the main log file.
	Component string
	// LogDir is the base directory for log sessions.
	LogDir string
	// AutoMigrate applies pending migrations instead of failing.
	AutoMigrate bool
}

// InitializeApp loads configuration and opens logging, Redis and the database,
// in that order.
func InitializeApp(ctx context.Context, opts Options) (*App, error) {
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	var alerts *alert.Queue
	if cfg.Bot.Alerts.Enabled {
		alerts = alert.NewQueue(cfg.Bot.Alerts.QueueSize)
	}

	logManager := telemetry.NewManager(
		opts.Component, opts.LogDir, &cfg.Common.Debug, alerts, alert.MinLevel(cfg.Bot.Alerts.MinLevel),
	)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded configuration", zap.String("dir", configDir))

	shutdownTracing := telemetry.SetupTracing(&cfg.Common.Uptrace, "peechi-"+opts.Component, logger)

	redisManager := redis.NewManager(&cfg.Common.Redis, logger)

	db, err := checkMigrations(ctx, &cfg.Common.PostgreSQL, dbLogger, opts.AutoMigrate)
	if err != nil {
		redisManager.Close()
		_ = shutdownTracing(ctx)
		logManager.Close()
		return nil, err
	}

	return &App{
		Config:       cfg,
		Logger:       logger,
		DBLogger:     dbLogger.Named("database"),
		DB:           db,
		RedisManager: redisManager,
		LogManager:   logManager,
		Alerts:       alerts,

		shutdownTracing: shutdownTracing,
	}, nil
}

// Cleanup shuts components down in reverse initialization order.
// Errors are logged so every component still gets its cleanup attempt.
func (s *App) Cleanup() {
	if err := s.DB.Close(); err != nil {
		s.Logger.Error("Failed to close database connection", zap.Error(err))
	}

	s.RedisManager.Close()

	if s.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), tracingFlushTimeout)
		if err := s.shutdownTracing(ctx); err != nil {
			s.Logger.Warn("Failed to flush traces", zap.Error(err))
		}
		cancel()
	}

	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	if err := s.LogManager.Close(); err != nil {
		log.Printf("Failed to close log files: %v", err)
	}
}

// checkMigrations connects to the database and verifies the schema is current.
func checkMigrations(
	ctx context.Context, cfg *config.PostgreSQL, dbLogger *zap.Logger, autoMigrate bool,
) (database.Client, error) {
	db, err := database.NewConnection(ctx, cfg, dbLogger, autoMigrate)
	if err != nil {
		return nil, err
	}

	if autoMigrate {
		return db, nil
	}

	migrator := migrate.NewMigrator(db.DB(), migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}

	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}

	if unapplied := ms.Unapplied(); len(unapplied) > 0 {
		db.Close()
		return nil, fmt.Errorf("%w (%d pending)", ErrPendingMigrations, len(unapplied))
	}

	return db, nil
}
