// Command carhub runs the car listing bot and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/m3rciful/carhub/bot/app"
	botconfig "github.com/m3rciful/carhub/bot/config"
	"github.com/m3rciful/carhub/bot/intake"
	"github.com/m3rciful/carhub/bot/storage"
	"github.com/m3rciful/carhub/core/buildinfo"
	"github.com/m3rciful/carhub/core/cmd"
	coreconfig "github.com/m3rciful/carhub/core/config"
	"github.com/m3rciful/carhub/core/database"
	"github.com/m3rciful/carhub/core/logger"
)

const configEnvVar = "CONFIG_PATH"

func main() {
	if err := newApp(runBot).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func skipMigrationsFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "skip-migrations",
		Usage: "Do not apply database migrations on start",
	}
}

// skipMigrations reports whether the flag was set on the run command or
// on the root, where a nested declaration would otherwise shadow it.
func skipMigrations(c *cli.Context) bool {
	return slices.ContainsFunc(c.Lineage(), func(ctx *cli.Context) bool {
		return ctx.Bool("skip-migrations")
	})
}

// newApp builds the command tree; run serves both the default action and
// the run command.
func newApp(run cli.ActionFunc) *cli.App {
	return &cli.App{
		Name:    "carhub",
		Usage:   "Telegram bot that collects car sale and rental ads",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE` (environment only when empty)",
				EnvVars: []string{configEnvVar},
			},
			skipMigrationsFlag(),
		},
		Action: run,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the bot (default)",
				Flags:  []cli.Flag{skipMigrationsFlag()},
				Action: run,
			},
			{
				Name:   "migrate",
				Usage:  "Apply database migrations and exit",
				Action: migrate,
			},
			{
				Name:   "stats",
				Usage:  "Print listing counts",
				Action: stats,
			},
		},
	}
}

func runBot(c *cli.Context) error {
	skip := skipMigrations(c)
	return cmd.Run(cmd.Options{
		ConfigPath:   c.String("config"),
		ConfigEnvVar: configEnvVar,
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return botconfig.Load(path)
		},
		Bootstrap: func(ctx context.Context, cfg cmd.ConfigCarrier) (cmd.App, error) {
			return app.New(ctx, cfg.(*botconfig.Config), app.Infra{SkipMigrations: skip})
		},
		Context: c.Context,
	})
}

// loadDatabase reads only the logging and database sections, so
// maintenance commands work without a bot token.
func loadDatabase(c *cli.Context) (*botconfig.Config, error) {
	path := cmd.ResolveConfigPath(c.String("config"), configEnvVar, "")
	var cfg botconfig.Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Database.Normalize(); err != nil {
		return nil, err
	}
	if err := logger.InitLogger(&cfg.Core); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func migrate(c *cli.Context) error {
	cfg, err := loadDatabase(c)
	if err != nil {
		return err
	}
	defer logger.Shutdown()

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return database.RunMigrations(ctx, cfg.Database)
}

func stats(c *cli.Context) error {
	cfg, err := loadDatabase(c)
	if err != nil {
		return err
	}
	defer logger.Shutdown()

	ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
	defer cancel()
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	text, err := intake.StatsText(ctx, storage.NewListingStore(db), time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, text)
	return nil
}
