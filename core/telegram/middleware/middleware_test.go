package middleware

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	update tele.Update
	store  map[string]any
	sent   []any
}

func textUpdate(userID int64, text string) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: 1, Message: &tele.Message{
			Text:   text,
			Sender: &tele.User{ID: userID, Username: "u"},
			Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
		}},
		store: map[string]any{},
	}
}

func photoUpdate(userID int64) *fakeContext {
	c := textUpdate(userID, "")
	c.update.Message.Photo = &tele.Photo{File: tele.File{FileID: "ph1"}}
	return c
}

func (f *fakeContext) Update() tele.Update { return f.update }
func (f *fakeContext) Message() *tele.Message {
	return f.update.Message
}
func (f *fakeContext) Sender() *tele.User {
	if f.update.Message == nil {
		return nil
	}
	return f.update.Message.Sender
}
func (f *fakeContext) Chat() *tele.Chat {
	if f.update.Message == nil {
		return nil
	}
	return f.update.Message.Chat
}
func (f *fakeContext) Text() string        { return f.update.Message.Text }
func (f *fakeContext) Get(k string) any    { return f.store[k] }
func (f *fakeContext) Set(k string, v any) { f.store[k] = v }
func (f *fakeContext) Send(what any, opts ...any) error {
	f.sent = append(f.sent, what)
	return nil
}

func ok(tele.Context) error { return nil }

func TestUpdateKind(t *testing.T) {
	require.Equal(t, KindMessage, UpdateKind(textUpdate(1, "Toyota").update))
	require.Equal(t, KindCommand, UpdateKind(textUpdate(1, "/start").update))
	require.Equal(t, KindPhoto, UpdateKind(photoUpdate(1).update))
	doc := textUpdate(1, "")
	doc.update.Message.Document = &tele.Document{FileName: "a.pdf"}
	require.Equal(t, KindDocument, UpdateKind(doc.update))
	require.Equal(t, KindOther, UpdateKind(tele.Update{}))
}

func TestAdminOnly(t *testing.T) {
	rejected := 0
	mw := AdminOnlyMiddleware(AdminOptions{
		AdminIDs: []int64{10, 20},
		OnReject: func(tele.Context) error { rejected++; return nil },
	})
	reached := 0
	h := mw(func(tele.Context) error { reached++; return nil })

	require.NoError(t, h(textUpdate(20, "/stats")))
	require.NoError(t, h(textUpdate(30, "/stats")))
	require.Equal(t, 1, reached)
	require.Equal(t, 1, rejected)

	none := AdminOnlyMiddleware(AdminOptions{})(func(tele.Context) error { reached++; return nil })
	require.NoError(t, none(textUpdate(10, "/stats")))
	require.Equal(t, 1, reached)
}

func TestRateLimitBurstAndRefill(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Burst:     2,
		Now:       func() time.Time { mu.Lock(); defer mu.Unlock(); return now },
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	passed := 0
	h := mw(func(tele.Context) error { passed++; return nil })

	for i := 0; i < 3; i++ {
		require.NoError(t, h(textUpdate(1, "x")))
	}
	require.Equal(t, 2, passed)
	require.Equal(t, 1, limited)

	require.NoError(t, h(textUpdate(2, "x")), "other users have their own bucket")
	require.Equal(t, 3, passed)

	mu.Lock()
	now = now.Add(time.Second)
	mu.Unlock()
	require.NoError(t, h(textUpdate(1, "x")))
	require.Equal(t, 4, passed)
}

func TestRateLimitExclusions(t *testing.T) {
	throttled := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:   time.Hour,
		Exclude:    map[string]struct{}{KindPhoto: {}},
		OnThrottle: func() { throttled++ },
	})
	passed := 0
	h := mw(func(tele.Context) error { passed++; return nil })
	for i := 0; i < 5; i++ {
		require.NoError(t, h(photoUpdate(1)))
	}
	require.Equal(t, 5, passed)

	require.NoError(t, h(textUpdate(1, "a")))
	require.NoError(t, h(textUpdate(1, "b")))
	require.Equal(t, 6, passed)
	require.Equal(t, 1, throttled)
}

func TestRateLimitDisabled(t *testing.T) {
	h := RateLimitMiddleware(RateLimitOptions{})(ok)
	for i := 0; i < 10; i++ {
		require.NoError(t, h(textUpdate(1, "x")))
	}
}

func TestRecoverTurnsPanicIntoError(t *testing.T) {
	var got any
	h := Recover(RecoverOptions{OnPanic: func(c tele.Context, r any) {
		got = r
		_ = c.Send("an error occurred")
	}})(func(tele.Context) error { panic("boom") })

	c := textUpdate(1, "x")
	err := h(c)
	require.Error(t, err)
	require.Equal(t, "boom", got)
	require.Equal(t, []any{"an error occurred"}, c.sent)

	require.NoError(t, RecoverMiddleware(ok)(textUpdate(1, "x")))
}

type recObserver struct {
	kinds []string
	errs  []error
}

func (r *recObserver) ObserveUpdate(kind string, err error, _ time.Duration) {
	r.kinds = append(r.kinds, kind)
	r.errs = append(r.errs, err)
}

func TestMessageMetrics(t *testing.T) {
	obs := &recObserver{}
	boom := errors.New("boom")
	h := MessageMetricsMiddleware(obs)(func(c tele.Context) error {
		_ = c.Send("one")
		_ = c.Send("two", &tele.ReplyMarkup{RemoveKeyboard: true})
		return boom
	})
	c := photoUpdate(1)
	require.ErrorIs(t, h(c), boom)

	msgs, kb := GetCounters(c)
	require.Equal(t, 2, msgs)
	require.True(t, kb)
	require.Equal(t, []string{KindPhoto}, obs.kinds)
	require.Equal(t, []error{boom}, obs.errs)

	require.NoError(t, MessageMetricsMiddleware(nil)(ok)(textUpdate(1, "x")))
}

func TestLoggerMiddlewareSetsRID(t *testing.T) {
	c := textUpdate(5, "hello")
	require.NoError(t, LoggerMiddleware(ok)(c))
	rid, _ := c.Get("rid").(string)
	require.NotEmpty(t, rid)
	_, isTime := c.Get("update_start").(time.Time)
	require.True(t, isTime)
}

func TestRedactPayloadMasksPhones(t *testing.T) {
	require.Equal(t, "09******78", redactPayload("0912345678", 256))
	require.Equal(t, "call +2******78 now", redactPayload("call +251 912 345 678 now", 256))
	require.Equal(t, "Corolla 2015", redactPayload("Corolla 2015", 256))
}

func TestSeenUpdatesExpire(t *testing.T) {
	s := &seenUpdates{ttl: time.Second, seen: map[int]time.Time{}}
	now := time.Unix(100, 0)
	require.True(t, s.first(1, now))
	require.False(t, s.first(1, now.Add(500*time.Millisecond)))
	require.True(t, s.first(1, now.Add(2*time.Second)))
}
