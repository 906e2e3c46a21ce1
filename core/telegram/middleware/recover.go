package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/m3rciful/carhub/core/logger"
	tghelpers "github.com/m3rciful/carhub/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// RecoverOptions customises panic handling.
type RecoverOptions struct {
	// OnPanic runs after the panic is logged, typically to apologise to the user.
	OnPanic func(c tele.Context, recovered any)
}

// Recover catches panics in handlers, logs them with the stack and turns
// them into an error so the update is reported as failed.
func Recover(opts RecoverOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				logger.Error(tghelpers.BuildContext(c), "tg", "tg.panic",
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
				if opts.OnPanic != nil {
					opts.OnPanic(c, r)
				}
				err = fmt.Errorf("telegram: handler panic: %v", r)
			}()
			return next(c)
		}
	}
}

// RecoverMiddleware catches panics in handlers and prevents the bot from crashing.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return Recover(RecoverOptions{})(next)
}
