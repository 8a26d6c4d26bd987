package router

import (
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/ledgerbot/core/telegram"
	"github.com/m3rciful/ledgerbot/core/telegram/ui"
)

// Conversation receives free text while a chat is in the middle of a dialog.
type Conversation interface {
	Active(chatID int64) bool
	Handle(c tele.Context) error
}

// TextOptions controls fallback behaviour for text/document updates.
type TextOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
	// Fallback supplies whichever of the handlers above is nil.
	Fallback ui.FallbackProvider
	// Middlewares run inside the logger, closest to the handler.
	Middlewares []tele.MiddlewareFunc
}

// TextRoutes builds handlers for text and document updates. Text goes to an
// active conversation first, then to registered command aliases, then to the
// registry fallback.
func TextRoutes(conv Conversation, reg *tg.Registry, opts TextOptions) []tg.Route {
	opts.UnknownText = ui.Pick(opts.UnknownText, opts.Fallback, ui.Text)
	opts.UnknownDocument = ui.Pick(opts.UnknownDocument, opts.Fallback, ui.Document)
	active := func(c tele.Context) bool {
		return conv != nil && c.Chat() != nil && conv.Active(c.Chat().ID)
	}

	handler := func(c tele.Context) error {
		if active(c) {
			return handled(c, "dialog", conv.Handle)
		}
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				return handled(c, normalizeHandlerName(key), cmd.Handler)
			}
			if fb := reg.TextFallback(); fb != nil {
				return handled(c, "fallback", fb)
			}
		}
		if opts.UnknownText != nil {
			return handled(c, "unknown_text", opts.UnknownText)
		}
		skipped(c, "unknown_text")
		return nil
	}

	docHandler := func(c tele.Context) error {
		if opts.UnknownDocument != nil {
			return handled(c, "unexpected_document", opts.UnknownDocument)
		}
		skipped(c, "unexpected_document")
		return nil
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(handler, opts.Middlewares)},
		{Endpoint: tele.OnDocument, Handler: wrap(docHandler, opts.Middlewares)},
	}
}
