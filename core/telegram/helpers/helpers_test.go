package helpers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m3rciful/carhub/core/logger"
	"github.com/m3rciful/carhub/core/telegram/sender"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type sent struct {
	what any
	opts []any
}

type fakeContext struct {
	tele.Context
	update tele.Update
	store  map[string]any
	sent   []sent
	err    error
}

func newFake(updateID int, userID int64) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: updateID, Message: &tele.Message{
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
		}},
		store: map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update { return f.update }
func (f *fakeContext) Sender() *tele.User  { return f.update.Message.Sender }
func (f *fakeContext) Chat() *tele.Chat    { return f.update.Message.Chat }
func (f *fakeContext) Get(k string) any    { return f.store[k] }
func (f *fakeContext) Set(k string, v any) { f.store[k] = v }
func (f *fakeContext) Send(what any, opts ...any) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sent{what: what, opts: opts})
	return nil
}

func TestBuildContextCaches(t *testing.T) {
	c := newFake(7, 42)
	ctx := BuildContext(c)
	require.Equal(t, ctx, BuildContext(c))
	require.Equal(t, logger.BuildRID(7, 42, 42), logger.RIDFrom(ctx))
	require.Equal(t, int64(42), logger.UserIDFrom(ctx))
}

func TestStoreContextIgnoresNil(t *testing.T) {
	c := newFake(1, 1)
	StoreContext(c, nil)
	_, ok := ContextFrom(c)
	require.False(t, ok)

	StoreContext(c, context.Background())
	_, ok = ContextFrom(c)
	require.True(t, ok)
}

func TestSendMDSetsParseMode(t *testing.T) {
	SetSender(nil)
	c := newFake(1, 5)
	rm := &tele.ReplyMarkup{RemoveKeyboard: true}
	require.NoError(t, SendMD(c, "*hi*", rm))
	require.Len(t, c.sent, 1)
	opts := c.sent[0].opts[0].(*tele.SendOptions)
	require.Equal(t, tele.ModeMarkdown, opts.ParseMode)
	require.Same(t, rm, opts.ReplyMarkup)
}

func TestSendWithMarkupPlain(t *testing.T) {
	SetSender(nil)
	c := newFake(1, 5)
	require.NoError(t, SendWithMarkup(c, "a_b", false, nil))
	opts := c.sent[0].opts[0].(*tele.SendOptions)
	require.Empty(t, opts.ParseMode)
}

func TestSendUsesSender(t *testing.T) {
	var failed []string
	SetSender(sender.New(sender.Options{MaxRetries: 0, MaxDuration: time.Second, OnFailure: func(a string, _ error) { failed = append(failed, a) }}))
	t.Cleanup(func() { SetSender(nil) })

	c := newFake(1, 5)
	c.err = errors.New("forbidden")
	require.Error(t, SendText(c, "x"))
	require.Equal(t, []string{"send.text"}, failed)
}
