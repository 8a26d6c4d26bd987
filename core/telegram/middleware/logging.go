package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ledgerbot/core/logger"
	"github.com/m3rciful/ledgerbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/ledgerbot/core/telegram/helpers"
)

// seenUpdates remembers the last IDs whose receipt was logged. The logger
// can sit on several route branches, so one update may pass it twice.
type seenUpdates struct {
	mu   sync.Mutex
	ids  [256]int
	next int
	size int
}

var receipts seenUpdates

// mark records id and reports whether it was already present.
func (s *seenUpdates) mark(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < s.size; i++ {
		if s.ids[i] == id {
			return true
		}
	}
	s.ids[s.next] = id
	s.next = (s.next + 1) % len(s.ids)
	if s.size < len(s.ids) {
		s.size++
	}
	return false
}

// updateKind names the update for sampling and the receipt log.
func updateKind(c tele.Context) string {
	upd := c.Update()
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Query != nil:
		return "inline_query"
	case upd.Message == nil:
		return "other"
	case upd.Message.Text == "":
		return "media"
	case upd.Message.Text[0] == '/':
		return "command"
	default:
		return "text"
	}
}

// LoggerMiddleware prepares the request context and id and
// logs a sampled receipt line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		c.Set("update_start", time.Now())
		ctx := tghelpers.BuildContext(c)
		rid, _ := c.Get("rid").(string)

		kind := updateKind(c)
		if !receipts.mark(upd.ID) && logger.ShouldSampleDebug("update."+kind) {
			logReceipt(ctx, c, kind, rid)
		}
		return next(c)
	}
}

func logReceipt(ctx context.Context, c tele.Context, kind, rid string) {
	upd := c.Update()
	attrs := []slog.Attr{
		slog.String("rid", rid),
		slog.Int("update_id", upd.ID),
		slog.String("kind", kind),
	}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.Int64("chat_id", chat.ID), slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil {
		attrs = append(attrs, slog.Int64("user_id", user.ID))
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}

	switch kind {
	case "callback":
		key, payload := callbacks.ParseCallbackData(upd.Callback)
		if key != "" {
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
		}
		if payload != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
		}
	case "command", "text":
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(c.Text(), 256)))
	}
	logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", attrs...)
}
