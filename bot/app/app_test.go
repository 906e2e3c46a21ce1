package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	botconfig "github.com/m3rciful/carhub/bot/config"
	"github.com/m3rciful/carhub/bot/intake"
	"github.com/m3rciful/carhub/bot/listing"
	tg "github.com/m3rciful/carhub/core/telegram"
	"github.com/m3rciful/carhub/core/telegram/state"
)

type fakeRepo struct {
	counts map[listing.Kind]int
}

func (f *fakeRepo) Insert(context.Context, *listing.Listing) (int64, error) { return 1, nil }

func (f *fakeRepo) Count(_ context.Context, flt listing.Filter) (int, error) {
	if flt.Kind != "" {
		return f.counts[flt.Kind], nil
	}
	total := 0
	for _, n := range f.counts {
		total += n
	}
	return total, nil
}

type fakeResolver struct {
	value string
	err   error
	asked []string
}

func (f *fakeResolver) Resolve(_ context.Context, name string) (string, error) {
	f.asked = append(f.asked, name)
	return f.value, f.err
}

// fakeDynamo is never called while wiring.
type fakeDynamo struct{ state.DynamoAPI }

func testConfig(t *testing.T) *botconfig.Config {
	t.Helper()
	cfg := &botconfig.Config{}
	cfg.Core.Telegram.Token = "123:abc"
	cfg.Core.Telegram.AdminIDs = []int64{7}
	require.NoError(t, cfg.Normalize())
	return cfg
}

func offlineBot(t *testing.T, cfg *botconfig.Config) *tele.Bot {
	t.Helper()
	bot, err := tg.NewBot(tg.BotOptions{Config: &cfg.Core, Offline: true})
	require.NoError(t, err)
	return bot
}

func taskNames(a *App) []string {
	var names []string
	for _, task := range a.Tasks() {
		names = append(names, task.Name)
	}
	return names
}

func TestNewWiresMemoryBackend(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, Infra{Repository: &fakeRepo{}, Bot: offlineBot(t, cfg)})
	require.NoError(t, err)

	require.Equal(t, []string{"health", "session.janitor"}, taskNames(a))

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	require.Same(t, a.bot, opts.Bot)
	require.NotNil(t, opts.Sender)
	require.Equal(t, sendRetries, opts.Sender.Options().MaxRetries)
	require.NotNil(t, opts.OnStop)

	var mws []string
	for _, mw := range opts.Middlewares {
		mws = append(mws, mw.Name)
	}
	require.Contains(t, mws, "recover")
	require.Contains(t, mws, "logger")

	var endpoints []any
	for _, r := range opts.Routes {
		endpoints = append(endpoints, r.Endpoint)
	}
	require.Contains(t, endpoints, "/start")
	require.Contains(t, endpoints, "/stats")
	require.Contains(t, endpoints, tele.OnText)
	require.Contains(t, endpoints, tele.OnPhoto)
}

func TestNewWiresDynamoBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Core.Health.Disabled = true
	cfg.Session.Backend = botconfig.BackendDynamoDB
	cfg.Session.Table = "carhub-sessions"

	a, err := New(context.Background(), cfg, Infra{
		Repository: &fakeRepo{},
		Bot:        offlineBot(t, cfg),
		Dynamo:     fakeDynamo{},
	})
	require.NoError(t, err)
	require.Nil(t, a.memory)
	require.Empty(t, a.Tasks())
}

func TestAdminStatsThroughService(t *testing.T) {
	cfg := testConfig(t)
	repo := &fakeRepo{counts: map[listing.Kind]int{listing.KindSale: 3, listing.KindRental: 2}}
	a, err := New(context.Background(), cfg, Infra{Repository: repo, Bot: offlineBot(t, cfg)})
	require.NoError(t, err)

	replies, err := a.Service().Handle(context.Background(), intake.Event{
		SessionID: 7,
		Kind:      intake.EventCommand,
		Text:      intake.CommandStats,
	})
	require.NoError(t, err)
	require.Len(t, replies, 1)
	want := "📊 Listings\nTotal: 5\nFor sale: 3\nFor rental: 2\nLast 24h: 5"
	if diff := cmp.Diff(want, replies[0].Text); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}

	replies, err = a.Service().Handle(context.Background(), intake.Event{
		SessionID: 8,
		Kind:      intake.EventCommand,
		Text:      intake.CommandStats,
	})
	require.NoError(t, err)
	require.Equal(t, intake.TextAdminOnly, replies[0].Text)
}

func TestNewRejectsNilConfig(t *testing.T) {
	_, err := New(context.Background(), nil, Infra{})
	require.Error(t, err)
}

func TestResolveTokenFromParameter(t *testing.T) {
	cfg := &botconfig.Config{}
	cfg.Core.Telegram.TokenParam = "/carhub/bot-token"
	a := &App{cfg: cfg}
	res := &fakeResolver{value: " 123:xyz \n"}

	require.NoError(t, a.resolveToken(context.Background(), res))
	require.Equal(t, "123:xyz", cfg.Core.Telegram.Token)
	require.Equal(t, []string{"/carhub/bot-token"}, res.asked)

	cfg.Core.Telegram.Token = ""
	res.err = errors.New("access denied")
	require.ErrorContains(t, a.resolveToken(context.Background(), res), "access denied")
}

func TestJanitorStopsWithContext(t *testing.T) {
	cfg := testConfig(t)
	cfg.Core.Health.Disabled = true
	cfg.Session.SweepInterval = 10 * time.Millisecond
	a, err := New(context.Background(), cfg, Infra{Repository: &fakeRepo{}, Bot: offlineBot(t, cfg)})
	require.NoError(t, err)

	tasks := a.Tasks()
	require.Len(t, tasks, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tasks[0].Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			require.ErrorIs(t, err, context.Canceled)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
}
