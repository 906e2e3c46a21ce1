package telegram

import (
	"strings"
	"time"

	coreconfig "github.com/m3rciful/carhub/core/config"
	"github.com/m3rciful/carhub/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// ChainOptions supplies the hooks of the shared middleware chain.
type ChainOptions struct {
	// OnLimited replies to throttled users.
	OnLimited tele.HandlerFunc
	// OnThrottle counts throttled updates.
	OnThrottle func()
	// OnPanic replies after a recovered panic.
	OnPanic func(c tele.Context, recovered any)
	// Observer records per-update metrics.
	Observer middleware.UpdateObserver
}

// DefaultMiddlewares builds the shared middleware chain for bots.
func DefaultMiddlewares(cfg *coreconfig.Config, opts ChainOptions) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.Recover(middleware.RecoverOptions{OnPanic: opts.OnPanic})},
	}

	if cfg != nil {
		interval := time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond
		if interval > 0 {
			ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
			for _, t := range cfg.RateLimit.ExcludeUpdates {
				ex[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
			}
			mws = append(mws, Middleware{
				Name: "rate_limit",
				Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
					Interval:   interval,
					Burst:      cfg.RateLimit.Burst,
					Exclude:    ex,
					OnLimited:  opts.OnLimited,
					OnThrottle: opts.OnThrottle,
				}),
			})
		}
	}

	mws = append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware(opts.Observer)},
	)

	return mws
}
