package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ledgerbot/core/logger"
	"github.com/m3rciful/ledgerbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/ledgerbot/core/telegram/helpers"
)

var (
	// ErrInvalidRegistration reports a malformed command or callback.
	ErrInvalidRegistration = errors.New("invalid registration")
	// ErrDuplicateRegistration reports a name that is already taken.
	ErrDuplicateRegistration = errors.New("already registered")

	// Telegram accepts 1-32 lowercase letters, digits and underscores.
	commandNameRe = regexp.MustCompile(`^/[a-z0-9_]{1,32}$`)
)

// Registry holds bot commands and callbacks. Commands are registered during
// wiring; callbacks may also be added while the bot runs.
type Registry struct {
	commands         map[string]commands.Command
	callbacks        map[string]tele.HandlerFunc
	callbacksMu      sync.RWMutex
	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry creates an empty Registry whose unknown buttons get a short answer.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return tghelpers.Respond(c, "Unsupported action")
		},
	}
}

func rejectRegistration(kind, name string, err error) error {
	logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register."+kind+".skip",
		slog.String("name", name),
		slog.String("reason", err.Error()),
	)
	return fmt.Errorf("%s %q: %w", kind, name, err)
}

// RegisterCommand adds cmd under name, which must look like "/balance".
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	switch {
	case !commandNameRe.MatchString(name):
		return rejectRegistration("command", name, fmt.Errorf("%w: name must match %s", ErrInvalidRegistration, commandNameRe))
	case cmd.Handler == nil || cmd.Description == "":
		return rejectRegistration("command", name, fmt.Errorf("%w: handler and description are required", ErrInvalidRegistration))
	}
	if _, exists := r.commands[name]; exists {
		return rejectRegistration("command", name, ErrDuplicateRegistration)
	}
	r.commands[name] = cmd
	return nil
}

// ListCommands returns the command menu entries sorted by name, without the
// leading slash as setMyCommands expects. visibleOnly drops hidden and admin commands.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	list := make([]tele.Command, 0, len(r.commands))
	for name, meta := range r.commands {
		if visibleOnly && (meta.Hidden || meta.AdminOnly) {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand resolves a command by name or alias. name may be a whole
// message such as "/list@ledgerbot 2025-04-20"; arguments and the bot
// mention are ignored.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	name = commandName(name)
	if name == "/" {
		return "", commands.Command{}, false
	}
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for key, cmd := range r.commands {
		if cmd.HasAlias(name) {
			return key, cmd, true
		}
	}
	return "", commands.Command{}, false
}

func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "/"
	}
	name, _, _ := strings.Cut(fields[0], "@")
	return "/" + strings.TrimPrefix(name, "/")
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// RegisterCallback maps key to handler.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if key == "" || handler == nil {
		return rejectRegistration("callback", key, fmt.Errorf("%w: key and handler are required", ErrInvalidRegistration))
	}
	r.callbacksMu.Lock()
	defer r.callbacksMu.Unlock()
	if _, exists := r.callbacks[key]; exists {
		return rejectRegistration("callback", key, ErrDuplicateRegistration)
	}
	r.callbacks[key] = handler
	return nil
}

// RegisterCallbacks maps every key to the same handler. Valid keys are
// registered even when others fail; all failures are returned together.
func (r *Registry) RegisterCallbacks(keys []string, handler tele.HandlerFunc) error {
	var result *multierror.Error
	for _, key := range keys {
		if err := r.RegisterCallback(key, handler); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// GetCallback returns the handler registered for key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns the registered keys sorted.
func (r *Registry) ListCallbacks() []string {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	names := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetCallbackNotFound replaces the handler for unknown buttons; nil is ignored.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h != nil {
		r.callbackNotFound = h
	}
}

// CallbackNotFound returns the handler for unknown buttons.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	return r.callbackNotFound
}

// SetTextFallback sets the handler for text no command or dialog claimed.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the text fallback handler, which may be nil.
func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// InitBotCommands publishes the visible commands as the bot's command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	menu := reg.ListCommands(true)
	if err := bot.SetCommands(menu); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return
	}
	logger.TWire.LogAttrs(context.Background(), slog.LevelDebug, "register.commands.set",
		slog.Int("count", len(menu)),
	)
}
