package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ledgerbot/core/buildinfo"
	coreconfig "github.com/m3rciful/ledgerbot/core/config"
	"github.com/m3rciful/ledgerbot/core/logger"
	tg "github.com/m3rciful/ledgerbot/core/telegram"
	"github.com/m3rciful/ledgerbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/ledgerbot/core/telegram/helpers"
	"github.com/m3rciful/ledgerbot/core/telegram/middleware"
	"github.com/m3rciful/ledgerbot/core/telegram/router"
	"github.com/m3rciful/ledgerbot/core/telegram/sender"
	"github.com/m3rciful/ledgerbot/core/telegram/state"
	"github.com/m3rciful/ledgerbot/core/telegram/ui"
	"github.com/m3rciful/ledgerbot/ledger/dialog"
)

const (
	textDocumentHint = "I only understand text and buttons. Send /menu to start over."
	textRateLimited  = "Too fast, try again in a moment."
	textAdminOnly    = "This command is for the bot admin."
)

// Handler feeds Telegram updates into the dialog controller.
type Handler struct {
	ctrl       *dialog.Controller
	store      state.Store
	transport  *Transport
	dispatcher *sender.Dispatcher
}

var (
	_ ui.FallbackProvider    = (*Handler)(nil)
	_ router.Conversation    = (*Handler)(nil)
	_ middleware.StateGetter = state.Store(nil)
)

// NewHandler builds a handler around a controller whose transport is t.
func NewHandler(ctrl *dialog.Controller, t *Transport, d *sender.Dispatcher) *Handler {
	return &Handler{
		ctrl:       ctrl,
		store:      ctrl.Store(),
		transport:  t,
		dispatcher: d,
	}
}

// Handle runs one update through the dialog.
func (h *Handler) Handle(c tele.Context) error {
	chatID, ev, ok := eventFrom(c)
	if !ok {
		return nil
	}
	cmds, err := h.ctrl.HandleEvent(tghelpers.BuildContext(c), chatID, ev)
	if err != nil {
		return err
	}
	countEffects(c, cmds)
	return nil
}

// countEffects feeds the controller's successful message effects into the update's counters.
func countEffects(c tele.Context, cmds []dialog.Command) {
	for _, cmd := range cmds {
		if cmd.Failed {
			continue
		}
		switch e := cmd.Effect.(type) {
		case dialog.SendPrompt:
			middleware.CountSent(c, e.Keyboard != nil)
		case dialog.EditPrompt:
			middleware.CountEdited(c, e.Keyboard != nil)
		case dialog.DeletePrompt:
			middleware.CountDeleted(c)
		case dialog.Reply:
			middleware.CountSent(c, e.Keyboard != nil)
		}
	}
}

// Active reports whether the chat is in the middle of a dialog.
func (h *Handler) Active(chatID int64) bool {
	return h.store.GetState(chatID) != dialog.Idle
}

func (h *Handler) UnknownText() tele.HandlerFunc     { return h.Handle }
func (h *Handler) UnknownCallback() tele.HandlerFunc { return h.Handle }

func (h *Handler) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, textDocumentHint)
	}
}

func (h *Handler) stats(c tele.Context) error {
	text := fmt.Sprintf("Build: %s\nSessions: %d\nSend errors: %d",
		buildinfo.Summary(), h.store.Len(), h.dispatcher.ErrorCount())
	return tghelpers.SendText(c, text)
}

// Register adds the ledger commands and buttons to reg.
func (h *Handler) Register(reg *tg.Registry) error {
	var result *multierror.Error
	for _, c := range []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: h.Handle, Description: "Register and open the menu"}},
		{"/menu", commands.Command{Handler: h.Handle, Description: "Show the main menu"}},
		{"/balance", commands.Command{Handler: h.Handle, Description: "Show the balance"}},
		{"/list", commands.Command{Handler: h.Handle, Description: "List transactions, optionally for a day"}},
		{"/cancel", commands.Command{Handler: h.Handle, Description: "Cancel the current step"}},
		{"/stats", commands.Command{Handler: h.stats, Description: "Bot statistics", AdminOnly: true}},
	} {
		if err := reg.RegisterCommand(c.name, c.cmd); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := reg.RegisterCallbacks(dialog.ButtonNames(), h.Handle); err != nil {
		result = multierror.Append(result, fmt.Errorf("register buttons: %w", err))
	}
	reg.SetCallbackNotFound(h.UnknownCallback())
	reg.SetTextFallback(h.UnknownText())
	return result.ErrorOrNil()
}

// RunOptions assembles everything RunTelegram needs. The transport is bound
// to the bot right before polling starts.
func (h *Handler) RunOptions(cfg *coreconfig.Config, reg *tg.Registry) tg.RunOptions {
	stateMW := []tele.MiddlewareFunc{middleware.State(h.store)}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID:       cfg.Telegram.AdminID,
		OnAdminReject: func(c tele.Context) error { return tghelpers.SendText(c, textAdminOnly) },
		Middlewares:   stateMW,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{
		Fallback:    h,
		Middlewares: stateMW,
	}))
	routes = append(routes, router.TextRoutes(h, reg, router.TextOptions{
		Fallback:    h,
		Middlewares: stateMW,
	})...)

	onLimited := func(c tele.Context) error {
		if c.Callback() != nil {
			return tghelpers.Respond(c, textRateLimited)
		}
		return nil
	}

	return tg.RunOptions{
		Config:      cfg,
		Registry:    reg,
		Dispatcher:  h.dispatcher,
		Middlewares: tg.DefaultMiddlewares(cfg, onLimited),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			if rt.Bot != nil {
				h.transport.Bind(rt.Bot)
			}
			logger.TG.LogAttrs(ctx, slog.LevelInfo, "ledger ready",
				slog.String("event", "ledger.start"),
				slog.Int("sessions", h.store.Len()),
			)
			return nil
		},
	}
}
