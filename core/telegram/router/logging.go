package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ledgerbot/core/logger"
	tghelpers "github.com/m3rciful/ledgerbot/core/telegram/helpers"
	"github.com/m3rciful/ledgerbot/core/telegram/middleware"
)

// handled runs fn as the handler called name and logs one summary line.
func handled(c tele.Context, name string, fn tele.HandlerFunc, extras ...slog.Attr) error {
	tghelpers.WithHandler(c, name)
	err := fn(c)
	status := "ok"
	if err != nil {
		status = "fail"
	}
	summarize(c, name, status, status, err, extras...)
	return err
}

// skipped logs that no handler took the update.
func skipped(c tele.Context, name string) {
	tghelpers.WithHandler(c, name)
	summarize(c, name, "skip", "ok", nil)
}

func summarize(c tele.Context, name, status, outcome string, err error, extras ...slog.Attr) {
	ctx := tghelpers.WithHandler(c, name)
	counts := middleware.CountersFrom(c)
	start, ok := c.Get("update_start").(time.Time)
	if !ok {
		start = time.Now()
	}

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", name),
		slog.String("outcome", outcome),
		slog.Int("messages", counts.Messages()),
		slog.Int("deleted", counts.Deleted),
		slog.Bool("kb", counts.Keyboard),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", deriveErrorCode(err)),
		)
	}
	if st := middleware.StateFrom(c); st != "" {
		attrs = append(attrs, slog.String("state", st))
	}
	logger.Event(ctx, "tg", slog.LevelInfo, "handler.handled", append(attrs, extras...)...)
}

// wrap applies mws around h, then recovery and the update logger.
func wrap(h tele.HandlerFunc, mws []tele.MiddlewareFunc) tele.HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
}

// normalizeHandlerName turns "/List day" into "list_day".
func normalizeHandlerName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if name == "" {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// deriveErrorCode names err for dashboards: an explicit Code() anywhere in
// the chain, then the Bot API status, then the innermost error's type.
func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	var apiErr *tele.Error
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return "TELEGRAM_" + strconv.Itoa(apiErr.Code)
	}

	for inner := errors.Unwrap(err); inner != nil; inner = errors.Unwrap(err) {
		err = inner
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return strings.ToUpper(name)
	}
	return "UNKNOWN_ERROR"
}
