package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/ledgerbot/core/config"
	"github.com/m3rciful/ledgerbot/core/logger"
	tghelpers "github.com/m3rciful/ledgerbot/core/telegram/helpers"
	tgsender "github.com/m3rciful/ledgerbot/core/telegram/sender"
)

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	// Dispatcher is used when set; otherwise one is built from DispatcherOptions.
	// RunTelegram closes it either way.
	DispatcherOptions tgsender.Options
	Dispatcher        *tgsender.Dispatcher

	Middlewares []Middleware
	Routes      []Route

	DisableWebhookCleanup   bool
	DisableHelperDispatcher bool

	// OnStart runs after handlers are installed and before updates flow.
	// OnStop runs once updates stop, before the dispatcher drains.
	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// RunTelegram builds the bot, serves updates until ctx is done or the bot
// stops, and then drains outbound calls. Cancellation is a clean exit.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return errors.New("telegram: nil config provided")
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}

	bot, err := newBot(ctx, opts.Config)
	if err != nil {
		return err
	}
	if !opts.DisableWebhookCleanup {
		dropWebhook(bot)
	}

	rt := Runtime{Bot: bot, Dispatcher: opts.Dispatcher, Registry: opts.Registry}
	if rt.Dispatcher == nil {
		rt.Dispatcher = tgsender.NewDispatcher(opts.DispatcherOptions)
	}
	if !opts.DisableHelperDispatcher {
		tghelpers.SetDispatcher(rt.Dispatcher)
		defer tghelpers.SetDispatcher(nil)
	}
	defer rt.Dispatcher.Close()

	install(bot, opts)

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	serveErr := serve(ctx, bot)
	if opts.OnStop != nil {
		if err := opts.OnStop(context.WithoutCancel(ctx), rt); err != nil {
			return err
		}
	}
	return serveErr
}

// newBot creates the bot with the poller and HTTP client for cfg.
func newBot(ctx context.Context, cfg *coreconfig.Config) (*tele.Bot, error) {
	poller := BuildPoller(PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			Listen:      cfg.Webhook.Listen,
			Port:        cfg.Webhook.Port,
			URL:         cfg.Webhook.URL,
			SecretToken: cfg.Webhook.SecretToken,
		},
	})

	var pollWait time.Duration
	if lp, ok := poller.(*tele.LongPoller); ok {
		pollWait = lp.Timeout
	}

	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Telegram.Token,
		Poller:  poller,
		Client:  BuildHTTPClient(HTTPOptions{LongPollTimeout: pollWait}),
		OnError: logHandlerError,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	attrs := []slog.Attr{
		slog.String("event", "mode"),
		slog.Duration("duration", logger.Took(start)),
	}
	if wh, ok := poller.(*tele.Webhook); ok {
		attrs = append(attrs,
			slog.String("mode", "webhook"),
			slog.String("listen", wh.Listen),
			slog.String("public_url", wh.Endpoint.PublicURL),
			slog.Bool("secret_token", wh.SecretToken != ""),
		)
	} else {
		attrs = append(attrs,
			slog.String("mode", "polling"),
			slog.Int("timeout_seconds", int(pollWait/time.Second)),
		)
	}
	logger.TG.LogAttrs(ctx, slog.LevelInfo, "bot ready", attrs...)
	return bot, nil
}

// dropWebhook clears a webhook left from an earlier deployment, which would
// otherwise make getUpdates fail. Webhook bots set their own on start.
func dropWebhook(bot *tele.Bot) {
	if _, ok := bot.Poller.(*tele.LongPoller); !ok {
		return
	}
	if err := bot.RemoveWebhook(false); err != nil {
		logger.TG.Warn("failed to delete webhook",
			slog.String("event", "delete_webhook"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return
	}
	logger.TG.Debug("webhook deleted", slog.String("event", "delete_webhook"))
}

// install registers middlewares, routes and the command menu.
func install(bot *tele.Bot, opts RunOptions) {
	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, route := range opts.Routes {
		if route.Endpoint != nil && route.Handler != nil {
			bot.Handle(route.Endpoint, route.Handler)
		}
	}
	InitBotCommands(bot, opts.Registry)
}

// serve runs the bot until it stops by itself or ctx is done.
func serve(ctx context.Context, bot *tele.Bot) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		bot.Stop()
		<-done
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	}
}

// logHandlerError reports errors returned by handlers, including recovered panics.
func logHandlerError(err error, c tele.Context) {
	ctx := context.Background()
	if c != nil {
		ctx = tghelpers.BuildContext(c)
	}
	logger.TG.LogAttrs(ctx, slog.LevelError, "handler error",
		slog.String("event", "tg.handler_error"),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
}
