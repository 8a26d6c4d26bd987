package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ledgerbot/core/logger"
	tghelpers "github.com/m3rciful/ledgerbot/core/telegram/helpers"
)

// PanicError is returned in place of a recovered handler panic.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("handler panic: %v", e.Value) }

// Code marks the error for summary logs.
func (e *PanicError) Code() string { return "panic" }

// RecoverMiddleware turns handler panics into *PanicError so one broken
// update cannot stop the poller.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			ctx := tghelpers.BuildContext(c)
			logger.Error(ctx, "tg", "tg.panic",
				slog.String("status", "fail"),
				slog.Any("err", r),
				slog.String("stack", string(debug.Stack())),
			)
			err = &PanicError{Value: r}
		}()
		return next(c)
	}
}
