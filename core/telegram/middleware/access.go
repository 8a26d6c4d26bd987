package middleware

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ledgerbot/core/logger"
	tghelpers "github.com/m3rciful/ledgerbot/core/telegram/helpers"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	// AdminID is the only user allowed through. Zero denies everyone.
	AdminID  int64
	OnReject tele.HandlerFunc
}

// IsAdmin reports whether the sender of c is the configured admin.
func (o AdminOptions) IsAdmin(c tele.Context) bool {
	sender := c.Sender()
	return o.AdminID != 0 && sender != nil && sender.ID == o.AdminID
}

// AdminOnlyMiddleware lets only the admin reach next and logs everyone else.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.IsAdmin(c) {
				return next(c)
			}
			var userID int64
			if sender := c.Sender(); sender != nil {
				userID = sender.ID
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "access.denied",
				slog.Int64("user_id", userID),
				slog.Bool("admin_configured", opts.AdminID != 0),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
