package cmd

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/carhub/core/config"
	coretelegram "github.com/m3rciful/carhub/core/telegram"
	"github.com/stretchr/testify/require"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type fakeApp struct {
	tasks []Task
	err   error
}

func (a fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{Config: &coreconfig.Config{}}, a.err
}
func (a fakeApp) Tasks() []Task { return a.tasks }

func baseOptions(app App) Options {
	return Options{
		ConfigPath:     "cfg.yaml",
		LoadConfig:     func(string) (ConfigCarrier, error) { return carrier{cfg: &coreconfig.Config{}}, nil },
		Bootstrap:      func(context.Context, ConfigCarrier) (App, error) { return app, nil },
		ShutdownLogger: func() error { return nil },
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("CARHUB_CONFIG", "/env.yaml")
	require.Equal(t, "/flag.yaml", ResolveConfigPath("/flag.yaml", "CARHUB_CONFIG", "/default.yaml"))
	require.Equal(t, "/env.yaml", ResolveConfigPath("", "CARHUB_CONFIG", "/default.yaml"))
	t.Setenv("CARHUB_CONFIG", "")
	require.Equal(t, "/default.yaml", ResolveConfigPath("", "CARHUB_CONFIG", "/default.yaml"))
	require.Equal(t, "", ResolveConfigPath("", "CARHUB_CONFIG", ""))
}

func TestRunRequiresHooks(t *testing.T) {
	require.Error(t, Run(Options{}))
	require.Error(t, Run(Options{LoadConfig: func(string) (ConfigCarrier, error) { return nil, nil }}))
}

func TestRunStopsTasksWhenBotReturns(t *testing.T) {
	var stopped atomic.Bool
	app := fakeApp{tasks: []Task{{Name: "health", Run: func(ctx context.Context) error {
		<-ctx.Done()
		stopped.Store(true)
		return ctx.Err()
	}}}}
	ctx, cancel := context.WithCancel(context.Background())
	opts := baseOptions(app)
	opts.Context = ctx
	opts.RunTelegram = func(ctx context.Context, ro coretelegram.RunOptions) error {
		require.NoError(t, ro.OnStart(ctx, coretelegram.Runtime{}))
		cancel()
		<-ctx.Done()
		return ro.OnStop(ctx, coretelegram.Runtime{})
	}
	require.NoError(t, Run(opts))
	require.True(t, stopped.Load())
}

func TestRunTaskFailureCancelsBot(t *testing.T) {
	boom := errors.New("bind: address in use")
	app := fakeApp{tasks: []Task{{Name: "health", Run: func(context.Context) error { return boom }}}}
	opts := baseOptions(app)
	opts.RunTelegram = func(ctx context.Context, _ coretelegram.RunOptions) error {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("bot was not cancelled")
		}
	}
	err := Run(opts)
	require.ErrorIs(t, err, boom)
}

func TestRunPropagatesBootstrapError(t *testing.T) {
	opts := baseOptions(nil)
	opts.Bootstrap = func(context.Context, ConfigCarrier) (App, error) { return nil, errors.New("no db") }
	require.ErrorContains(t, Run(opts), "bootstrap failed")

	opts = baseOptions(fakeApp{err: errors.New("bad")})
	require.ErrorContains(t, Run(opts), "telegram options build failed")
}
