package telegram

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/m3rciful/carhub/core/telegram/commands"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

type fakeSetter struct {
	got []interface{}
	err error
}

func (f *fakeSetter) SetCommands(opts ...interface{}) error {
	f.got = opts
	return f.err
}

func TestRegistryListAndLookup(t *testing.T) {
	r := NewRegistry()
	r.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Main menu"})
	r.RegisterCommand("/cancel", commands.Command{Handler: noop, Description: "Cancel", Aliases: []string{"stop"}})
	r.RegisterCommand("/stats", commands.Command{Handler: noop, Description: "Stats", AdminOnly: true})
	r.RegisterCommand("help", commands.Command{Handler: noop, Description: "no slash"})
	r.RegisterCommand("/start", commands.Command{Handler: noop, Description: "dup"})
	r.RegisterCommand("/empty", commands.Command{Handler: noop})

	require.Len(t, r.Commands(), 3)
	want := []tele.Command{{Text: "cancel", Description: "Cancel"}, {Text: "start", Description: "Main menu"}}
	if diff := cmp.Diff(want, r.ListCommands(true)); diff != "" {
		t.Fatalf("visible commands mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, r.ListCommands(false), 3)

	key, cmd, ok := r.LookupCommand("/start@carhub_bot")
	require.True(t, ok)
	require.Equal(t, "/start", key)
	require.Equal(t, "Main menu", cmd.Description)

	key, _, ok = r.LookupCommand("/stop")
	require.True(t, ok)
	require.Equal(t, "/cancel", key)

	_, _, ok = r.LookupCommand("/nope")
	require.False(t, ok)
}

func TestSetupCommands(t *testing.T) {
	r := NewRegistry()
	r.RegisterCommand("/help", commands.Command{Handler: noop, Description: "Help"})
	s := &fakeSetter{}
	SetupCommands(s, r)
	require.Len(t, s.got, 1)
	require.Equal(t, []tele.Command{{Text: "help", Description: "Help"}}, s.got[0])

	require.NotPanics(t, func() { SetupCommands(&fakeSetter{err: errors.New("x")}, r) })
}
