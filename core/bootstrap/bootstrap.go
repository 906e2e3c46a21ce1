// Package bootstrap prepares shared infrastructure before the bot starts.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/carhub/core/config"
	coredatabase "github.com/m3rciful/carhub/core/database"
	"github.com/m3rciful/carhub/core/logger"
)

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config

	// SkipMigrations leaves the schema alone, for deployments that migrate out of band.
	SkipMigrations bool

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(context.Context, coredatabase.Config) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB *sqlx.DB
}

// Run initializes the logger, applies migrations and opens the pool.
// Migrations run first because they wait for the server to accept
// connections; the pool is only opened against a ready, current schema.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	opts.defaults()

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	if opts.SkipMigrations {
		logger.Info(ctx, "app", "bootstrap.stage", slog.String("stage", "migrate"), slog.String("status", "skip"))
	} else if err := stage(ctx, "migrate", func() error { return opts.Migrate(ctx, opts.Database) }); err != nil {
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	var db *sqlx.DB
	err := stage(ctx, "connect", func() (err error) {
		db, err = opts.Connect(ctx, opts.Database)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	return &Result{DB: db}, nil
}

func (o *Options) defaults() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
}

func stage(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	logger.Info(ctx, "app", "bootstrap.stage",
		slog.String("stage", name),
		slog.String("status", logger.Status(err)),
		slog.Duration("duration", logger.Took(start)),
	)
	return err
}
