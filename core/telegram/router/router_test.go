package router

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tg "github.com/m3rciful/carhub/core/telegram"
	"github.com/m3rciful/carhub/core/telegram/commands"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	update tele.Update
	store  map[string]any
}

func message(userID int64, text string) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: 3, Message: &tele.Message{
			Text:   text,
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
		}},
		store: map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update { return f.update }
func (f *fakeContext) Sender() *tele.User  { return f.update.Message.Sender }
func (f *fakeContext) Chat() *tele.Chat    { return f.update.Message.Chat }
func (f *fakeContext) Text() string        { return f.update.Message.Text }
func (f *fakeContext) Get(k string) any    { return f.store[k] }
func (f *fakeContext) Set(k string, v any) { f.store[k] = v }

func routeFor(t *testing.T, routes []tg.Route, endpoint any) tele.HandlerFunc {
	t.Helper()
	for _, r := range routes {
		if r.Endpoint == endpoint {
			return r.Handler
		}
	}
	t.Fatalf("no route for %v", endpoint)
	return nil
}

func TestCommandRoutesAdminAndAliases(t *testing.T) {
	var calls []string
	reg := tg.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Description: "menu", Aliases: []string{"menu"}, Handler: func(tele.Context) error {
		calls = append(calls, "start")
		return nil
	}})
	reg.RegisterCommand("/stats", commands.Command{Description: "stats", AdminOnly: true, Handler: func(tele.Context) error {
		calls = append(calls, "stats")
		return nil
	}})

	rejected := 0
	routes := CommandRoutes(reg, CommandRouteOptions{
		AdminIDs:      []int64{99},
		OnAdminReject: func(tele.Context) error { rejected++; return nil },
	})
	require.Len(t, routes, 3)

	require.NoError(t, routeFor(t, routes, "/start")(message(1, "/start")))
	require.NoError(t, routeFor(t, routes, "/menu")(message(1, "/menu")))
	require.NoError(t, routeFor(t, routes, "/stats")(message(1, "/stats")))
	require.NoError(t, routeFor(t, routes, "/stats")(message(99, "/stats")))

	require.Equal(t, []string{"start", "start", "stats"}, calls)
	require.Equal(t, 1, rejected)
	require.Nil(t, CommandRoutes(nil, CommandRouteOptions{}))
}

func TestCommandRoutesRecoverPanics(t *testing.T) {
	reg := tg.NewRegistry()
	reg.RegisterCommand("/help", commands.Command{Description: "help", Handler: func(tele.Context) error { panic("x") }})
	routes := CommandRoutes(reg, CommandRouteOptions{})
	require.Error(t, routeFor(t, routes, "/help")(message(1, "/help")))
}

func TestMessageRoutes(t *testing.T) {
	var got []string
	boom := errors.New("boom")
	reg := tg.NewRegistry()
	reg.RegisterCommand("/help", commands.Command{Description: "help", Handler: func(tele.Context) error {
		got = append(got, "help")
		return nil
	}})
	routes := MessageRoutes(MessageOptions{
		Registry: reg,
		OnText:   func(c tele.Context) error { got = append(got, "text:"+c.Text()); return nil },
		OnPhoto:  func(tele.Context) error { got = append(got, "photo"); return boom },
	})
	require.Len(t, routes, 3)

	require.NoError(t, routeFor(t, routes, tele.OnText)(message(1, "Toyota")))
	require.NoError(t, routeFor(t, routes, tele.OnText)(message(1, "/help extra")))
	require.NoError(t, routeFor(t, routes, tele.OnText)(message(1, "/unknown")))
	require.ErrorIs(t, routeFor(t, routes, tele.OnPhoto)(message(1, "")), boom)
	require.NoError(t, routeFor(t, routes, tele.OnDocument)(message(1, "")))

	require.Equal(t, []string{"text:Toyota", "help", "text:/unknown", "photo"}, got)
}

func TestNormalizeHandlerName(t *testing.T) {
	require.Equal(t, "start", normalizeHandlerName("/Start"))
	require.Equal(t, "unknown", normalizeHandlerName(" "))
	require.Equal(t, "a_b", normalizeHandlerName("a b"))
}

type codedErr struct{}

func (codedErr) Error() string { return "x" }
func (codedErr) Code() string  { return "rate limited" }

func TestErrorCode(t *testing.T) {
	require.Equal(t, "RATE_LIMITED", errorCode(fmt.Errorf("wrap: %w", codedErr{})))
	require.Equal(t, "ERRORSTRING", errorCode(errors.New("x")))
	require.Equal(t, "TG_403", errorCode(fmt.Errorf("send: %w", &tele.Error{Code: 403, Description: "Forbidden: bot was blocked by the user"})))
	require.Equal(t, "TG_FLOOD", errorCode(tele.FloodError{RetryAfter: 3}))
	require.Equal(t, "TIMEOUT", errorCode(fmt.Errorf("store: %w", context.DeadlineExceeded)))
}
