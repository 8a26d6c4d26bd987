package middleware

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ledgerbot/core/logger"
	tghelpers "github.com/m3rciful/ledgerbot/core/telegram/helpers"
	"github.com/m3rciful/ledgerbot/core/telegram/state"
)

// StateKey is the tele.Context key holding the dialog state seen on arrival.
const StateKey = "dialog_state"

// StateGetter is the read side of a session store.
type StateGetter interface {
	GetState(chatID int64) state.State
}

// State records the chat's dialog state before the handler runs so handler
// summaries can report where the update landed.
func State(getter StateGetter) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			if getter == nil || chat == nil {
				return next(c)
			}
			st := getter.GetState(chat.ID)
			c.Set(StateKey, string(st))
			if st != state.StateIdle {
				ctx := tghelpers.BuildContext(c)
				logger.TG.LogAttrs(ctx, slog.LevelDebug, "dialog.active",
					slog.Int64("chat_id", chat.ID),
					slog.String("state", string(st)),
					slog.String("rid", logger.RIDFrom(ctx)),
				)
			}
			return next(c)
		}
	}
}

// StateFrom returns the state recorded by State, if any.
func StateFrom(c tele.Context) string {
	st, _ := c.Get(StateKey).(string)
	return st
}
