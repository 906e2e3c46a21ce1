package middleware

import (
	"sync"
	"time"

	"github.com/m3rciful/carhub/core/logger"
	tghelpers "github.com/m3rciful/carhub/core/telegram/helpers"
	"log/slog"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	// Interval is the steady refill period of one token per user.
	Interval time.Duration
	// Burst is how many updates a user may send back to back.
	Burst     int
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// OnThrottle is called for every dropped update.
	OnThrottle func()
	// IdleTTL drops limiters of users inactive for longer than this.
	IdleTTL time.Duration
	Now     func() time.Time
}

type userLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// limiters keeps one token bucket per user.
type limiters struct {
	mu        sync.Mutex
	byUser    map[int64]*userLimiter
	every     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
}

func (l *limiters) allow(userID int64, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.idleTTL > 0 && now.Sub(l.lastSweep) > l.idleTTL {
		for id, ul := range l.byUser {
			if now.Sub(ul.seen) > l.idleTTL {
				delete(l.byUser, id)
			}
		}
		l.lastSweep = now
	}
	ul, ok := l.byUser[userID]
	if !ok {
		ul = &userLimiter{lim: rate.NewLimiter(l.every, l.burst)}
		l.byUser[userID] = ul
	}
	ul.seen = now
	return ul.lim.AllowN(now, 1)
}

// RateLimitMiddleware returns a middleware that throttles each user with
// a token bucket of size Burst refilled once per Interval.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 10 * time.Minute
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	lims := &limiters{
		byUser:  make(map[int64]*userLimiter),
		every:   rate.Every(opts.Interval),
		burst:   opts.Burst,
		idleTTL: opts.IdleTTL,
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}

			kind := UpdateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}

			if lims.allow(user.ID, now()) {
				return next(c)
			}

			attrs := []slog.Attr{
				slog.Int64("user_id", user.ID),
				slog.String("kind", kind),
			}
			if chat := c.Chat(); chat != nil {
				attrs = append(attrs, slog.Int64("chat_id", chat.ID))
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit", attrs...)
			if opts.OnThrottle != nil {
				opts.OnThrottle()
			}
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
