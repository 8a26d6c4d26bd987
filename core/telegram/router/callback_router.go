package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/ledgerbot/core/telegram"
	"github.com/m3rciful/ledgerbot/core/telegram/callbacks"
	"github.com/m3rciful/ledgerbot/core/telegram/ui"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
	// Fallback supplies NotFound when it is nil.
	Fallback ui.FallbackProvider
	// Middlewares run inside the logger, closest to the handler.
	Middlewares []tele.MiddlewareFunc
}

// CallbackRoute returns a handler that routes callbacks through the registry.
// Handlers answer the callback themselves.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	notFound := ui.Pick(opts.NotFound, opts.Fallback, ui.Callback)
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key, _ := callbacks.ParseCallbackData(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		if h, ok := reg.GetCallback(key); ok && h != nil {
			return handled(c, name, h, extras...)
		}
		fallback := notFound
		if fallback == nil {
			fallback = reg.CallbackNotFound()
		}
		if fallback == nil {
			skipped(c, name)
			return nil
		}
		return handled(c, name, fallback, append(extras, slog.String("reason", "not_found"))...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  wrap(handler, opts.Middlewares),
	}
}
