package middleware

import (
	"context"
	"log/slog"
	"maps"
	"regexp"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/carhub/core/logger"
	tghelpers "github.com/m3rciful/carhub/core/telegram/helpers"
)

// seenUpdates remembers recently logged update ids. The logger middleware
// wraps both the global chain and single routes, so one update passes it
// more than once.
type seenUpdates struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[int]time.Time
}

func (s *seenUpdates) first(id int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.DeleteFunc(s.seen, func(_ int, at time.Time) bool { return now.Sub(at) > s.ttl })
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = now
	return true
}

var received = &seenUpdates{ttl: 10 * time.Second, seen: map[int]time.Time{}}

// phoneLike matches digit runs long enough to be a phone number.
var phoneLike = regexp.MustCompile(`\+?\d[\d ]{6,}\d`)

// redactPayload masks phone numbers typed as answers before they reach logs.
func redactPayload(s string, limit int) string {
	return phoneLike.ReplaceAllStringFunc(logger.SanitizeLimit(s, limit), func(m string) string {
		return m[:2] + "******" + m[len(m)-2:]
	})
}

// LoggerMiddleware stores the request context on c and logs one sampled
// receipt line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		var chatID, userID int64
		if chat := c.Chat(); chat != nil {
			chatID = chat.ID
		}
		if user := c.Sender(); user != nil {
			userID = user.ID
		}
		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)
		c.Set("update_start", time.Now())

		ctx := logger.WithRID(context.Background(), rid)
		ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
		ctx = logger.WithLogger(ctx, logger.Component("tg"))
		tghelpers.StoreContext(c, ctx)

		if logger.ShouldSampleDebug() && received.first(upd.ID, time.Now()) {
			logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", receiptAttrs(c, upd)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context, upd tele.Update) []slog.Attr {
	kind := UpdateKind(upd)
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("kind", kind),
	}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil && user.Username != "" {
		attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
	}
	msg := upd.Message
	if msg == nil {
		return attrs
	}
	var payload string
	switch kind {
	case KindPhoto:
		payload = logger.SanitizeLimit(msg.Photo.FileID, 128)
	case KindDocument:
		payload = logger.SanitizeLimit(msg.Document.FileName, 128)
	default:
		payload = redactPayload(msg.Text, 256)
	}
	return append(attrs, slog.String("payload", payload))
}
