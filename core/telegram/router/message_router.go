package router

import (
	"strings"
	"time"

	tg "github.com/m3rciful/carhub/core/telegram"
	"github.com/m3rciful/carhub/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// MessageOptions binds handlers for non-command updates.
type MessageOptions struct {
	// Registry resolves slash text that telebot did not route, such as
	// command aliases typed with a bot mention.
	Registry   *tg.Registry
	OnText     tele.HandlerFunc
	OnPhoto    tele.HandlerFunc
	OnDocument tele.HandlerFunc
}

// MessageRoutes builds handlers for text, photo and document updates.
// Missing handlers are logged as skipped.
func MessageRoutes(opts MessageOptions) []tg.Route {
	text := func(c tele.Context) error {
		start := time.Now()
		msg := c.Text()

		if strings.HasPrefix(msg, "/") && opts.Registry != nil {
			if key, cmd, ok := opts.Registry.LookupCommand(strings.Fields(msg)[0]); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return handleWithSummary(c, "command."+normalizeHandlerName(key), start, func() error {
					return cmd.Handler(c)
				})
			}
		}
		return dispatchOrSkip(c, "text", start, opts.OnText)
	}

	photo := func(c tele.Context) error {
		return dispatchOrSkip(c, "photo", time.Now(), opts.OnPhoto)
	}

	document := func(c tele.Context) error {
		return dispatchOrSkip(c, "unexpected_document", time.Now(), opts.OnDocument)
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(text)},
		{Endpoint: tele.OnPhoto, Handler: wrap(photo)},
		{Endpoint: tele.OnDocument, Handler: wrap(document)},
	}
}

func dispatchOrSkip(c tele.Context, name string, start time.Time, h tele.HandlerFunc) error {
	if h == nil {
		summary{name: name, start: start, status: "skip", outcome: "ok"}.log(c, nil)
		return nil
	}
	return handleWithSummary(c, name, start, func() error { return h(c) })
}
