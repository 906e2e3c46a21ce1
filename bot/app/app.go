// Package app assembles the car hub bot from configuration: storage,
// session store, dispatcher, intake service, Telegram routes and the
// liveness server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	botconfig "github.com/m3rciful/carhub/bot/config"
	"github.com/m3rciful/carhub/bot/dispatch"
	"github.com/m3rciful/carhub/bot/handlers"
	"github.com/m3rciful/carhub/bot/intake"
	"github.com/m3rciful/carhub/bot/storage"
	"github.com/m3rciful/carhub/core/bootstrap"
	"github.com/m3rciful/carhub/core/cmd"
	coreconfig "github.com/m3rciful/carhub/core/config"
	"github.com/m3rciful/carhub/core/health"
	"github.com/m3rciful/carhub/core/logger"
	"github.com/m3rciful/carhub/core/metrics"
	"github.com/m3rciful/carhub/core/secrets"
	tg "github.com/m3rciful/carhub/core/telegram"
	"github.com/m3rciful/carhub/core/telegram/router"
	tgsender "github.com/m3rciful/carhub/core/telegram/sender"
	"github.com/m3rciful/carhub/core/telegram/state"
)

// sendRetries is the number of extra attempts for a failed outbound call.
const sendRetries = 2

// Infra carries dependencies built outside the app. Nil fields are built
// from configuration.
type Infra struct {
	// Repository replaces the Postgres listing store. When set, the
	// database bootstrap (logger, connect, migrate) is skipped.
	Repository dispatch.Repository
	Bot        *tele.Bot
	Resolver   coreconfig.ParamResolver
	Dynamo     state.DynamoAPI
	// SkipMigrations leaves the schema alone during bootstrap.
	SkipMigrations bool
}

// App is a fully wired bot.
type App struct {
	cfg      *botconfig.Config
	db       *sqlx.DB
	bot      *tele.Bot
	metrics  *metrics.Metrics
	sender   *tgsender.Sender
	registry *tg.Registry
	handlers *handlers.Handlers
	service  *intake.Service
	memory   *state.Memory[intake.Session]
	health   *health.Server
}

var _ cmd.App = (*App)(nil)

// New wires every component. Configuration errors and unreachable
// infrastructure fail here, before any update is served.
func New(ctx context.Context, cfg *botconfig.Config, infra Infra) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	a := &App{cfg: cfg, metrics: metrics.New()}

	repo := infra.Repository
	if repo == nil {
		if err := cfg.Database.Normalize(); err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		res, err := bootstrap.Run(ctx, bootstrap.Options{
			Config:         &cfg.Core,
			Database:       cfg.Database,
			SkipMigrations: infra.SkipMigrations,
		})
		if err != nil {
			return nil, err
		}
		a.db = res.DB
		repo = storage.NewListingStore(res.DB)
	}

	a.bot = infra.Bot
	if a.bot == nil {
		if err := a.resolveToken(ctx, infra.Resolver); err != nil {
			a.close()
			return nil, err
		}
	}

	a.sender = tgsender.New(tgsender.Options{
		MaxRetries: sendRetries,
		OnFailure:  func(string, error) { a.metrics.ObserveSendError() },
	})

	if a.bot == nil {
		bot, err := tg.NewBot(tg.BotOptions{Config: &cfg.Core})
		if err != nil {
			a.close()
			return nil, err
		}
		a.bot = bot
	}

	publisher, err := tg.NewPublisher(a.bot, tg.PublisherOptions{Channel: cfg.Broker.Channel, Sender: a.sender})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("app: publisher: %w", err)
	}

	contact := dispatch.Contact{Name: cfg.Broker.Name, Phones: cfg.Broker.Phones}
	admins := []int64(cfg.Core.Telegram.AdminIDs)
	dispatcher, err := dispatch.New(dispatch.Options{
		Repository:  repo,
		Broadcaster: publisher,
		Notifier:    publisher,
		AdminIDs:    admins,
		Contact:     contact,
		Observe: func(action dispatch.Action, err error, took time.Duration) {
			a.metrics.ObserveDispatch(string(action), err, took)
		},
	})
	if err != nil {
		a.close()
		return nil, err
	}

	sessions, err := a.sessionStore(ctx, infra.Dynamo)
	if err != nil {
		a.close()
		return nil, err
	}

	a.service, err = intake.NewService(intake.ServiceOptions{
		Store:      sessions,
		Sequencer:  intake.NewSequencer(intake.Options{Confirm: cfg.Intake.Confirm}),
		Dispatcher: dispatcher,
		Counter:    repo,
		AdminIDs:   admins,
		Contact:    contact,
		Observe:    a.metrics.ObserveIntake,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	a.handlers, err = handlers.New(a.service)
	if err != nil {
		a.close()
		return nil, err
	}
	a.registry = tg.NewRegistry()
	a.handlers.Register(a.registry)

	if !cfg.Core.Health.Disabled {
		checks := map[string]health.Check{}
		if a.db != nil {
			checks["db"] = a.db.PingContext
		}
		a.health = health.NewServer(health.Options{
			Addr:    cfg.Core.Health.Addr(),
			Metrics: a.metrics.Handler(),
			Checks:  checks,
		})
	}

	logger.Info(ctx, "app", "wired",
		slog.String("session_backend", cfg.Session.Backend),
		slog.Int("admins", len(admins)),
		slog.Bool("confirm", cfg.Intake.Confirm),
		slog.Bool("health", a.health != nil),
	)
	return a, nil
}

func (a *App) resolveToken(ctx context.Context, resolver coreconfig.ParamResolver) error {
	if a.cfg.Core.Telegram.Token != "" {
		return nil
	}
	if resolver == nil && a.cfg.Core.Telegram.TokenParam != "" {
		store, err := secrets.NewDefaultParamStore(ctx)
		if err != nil {
			return fmt.Errorf("app: %w", err)
		}
		resolver = store
	}
	if err := coreconfig.ResolveToken(ctx, &a.cfg.Core, resolver); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	return nil
}

func (a *App) sessionStore(ctx context.Context, api state.DynamoAPI) (state.Store[intake.Session], error) {
	sc := a.cfg.Session
	if sc.Backend == botconfig.BackendDynamoDB {
		if api == nil {
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				return nil, fmt.Errorf("app: load aws config: %w", err)
			}
			api = dynamodb.NewFromConfig(awsCfg)
		}
		store, err := state.NewDynamo[intake.Session](api, sc.Table, sc.TTL)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		return store, nil
	}
	a.memory = state.NewMemory[intake.Session](state.WithTTL(sc.TTL))
	a.memory.OnSweep = a.metrics.ObserveSweep
	return a.memory, nil
}

// Service exposes the intake service.
func (a *App) Service() *intake.Service { return a.service }

// Metrics exposes the collectors.
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// TelegramRunOptions builds the bot middleware chain and routes.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	if a.bot == nil || a.handlers == nil {
		return tg.RunOptions{}, errors.New("app: not wired")
	}
	h := a.handlers
	mws := tg.DefaultMiddlewares(&a.cfg.Core, tg.ChainOptions{
		OnLimited:  h.Limited,
		OnThrottle: a.metrics.ObserveRateLimited,
		OnPanic:    h.Panic,
		Observer:   a.metrics,
	})
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminIDs:      a.cfg.Core.Telegram.AdminIDs,
		OnAdminReject: h.AdminOnly,
	})
	routes = append(routes, router.MessageRoutes(router.MessageOptions{
		Registry:   a.registry,
		OnText:     h.Text,
		OnPhoto:    h.Photo,
		OnDocument: h.Document,
	})...)

	return tg.RunOptions{
		Config:      &a.cfg.Core,
		Bot:         a.bot,
		Registry:    a.registry,
		Sender:      a.sender,
		Middlewares: mws,
		Routes:      routes,
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			a.close()
			logger.Info(ctx, "app", "closed", slog.Uint64("send_errors", a.sender.ErrorCount()))
			return nil
		},
	}, nil
}

// Tasks returns the background companions of the bot.
func (a *App) Tasks() []cmd.Task {
	var tasks []cmd.Task
	if a.health != nil {
		tasks = append(tasks, cmd.Task{Name: "health", Run: a.health.Run})
	}
	if a.memory != nil {
		interval := a.cfg.Session.SweepInterval
		tasks = append(tasks, cmd.Task{Name: "session.janitor", Run: func(ctx context.Context) error {
			return a.memory.Run(ctx, interval)
		}})
	}
	return tasks
}

func (a *App) close() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
}
