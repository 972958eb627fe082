// Package app assembles the runtime shared by the server binary and the
// serverless entrypoint.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"membership-api/internal/account"
	"membership-api/internal/config"
	"membership-api/internal/db"
	"membership-api/internal/media"
	"membership-api/internal/members"
	"membership-api/internal/observability"
	"membership-api/internal/seed"
)

type Options struct {
	LoadDotEnv bool
}

type Runtime struct {
	Config  config.Config
	Logger  *observability.Logger
	Handler http.Handler
	Close   func() error
}

func Build(ctx context.Context, options Options) (*Runtime, error) {
	cfg, err := config.Load(options.LoadDotEnv)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := observability.NewLogger()
	metrics := observability.NewMetrics()

	if err := observability.InitSentry(cfg.SentryDSN, cfg.AppEnv); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := db.Open(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.RunMigrations(ctx, database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	accounts := account.NewRepository(database)
	if cfg.SeedOnStartup {
		if err := seedMembers(ctx, cfg, logger, accounts); err != nil {
			_ = database.Close()
			return nil, err
		}
	}

	var uploader media.ImageUploader
	if cfg.CloudinaryURL != "" {
		cloudinary, err := media.NewCloudinary(cfg.CloudinaryURL)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("init cloudinary: %w", err)
		}
		uploader = cloudinary
	} else {
		logger.Warn("photo_upload_disabled", map[string]any{"reason": "CLOUDINARY_URL is empty"})
	}

	handler, err := NewHandler(Dependencies{
		Config:   cfg,
		Logger:   logger,
		Metrics:  metrics,
		Database: database,
		Accounts: accounts,
		Members:  members.NewRepository(database),
		Uploader: uploader,
	})
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	return &Runtime{
		Config:  cfg,
		Logger:  logger,
		Handler: handler,
		Close:   closer(database),
	}, nil
}

func seedMembers(ctx context.Context, cfg config.Config, logger *observability.Logger, store seed.Store) error {
	data, err := seed.Data(cfg.SeedFile)
	if err != nil {
		return err
	}

	created, err := seed.Users(ctx, store, data)
	if err != nil {
		return fmt.Errorf("seed members: %w", err)
	}
	if created > 0 {
		logger.Info("members_seeded", map[string]any{"count": created})
	}
	return nil
}

func closer(database *sql.DB) func() error {
	return func() error {
		observability.FlushSentry()
		return database.Close()
	}
}
