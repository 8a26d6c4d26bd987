// Package app wires the ledger bot from its configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/m3rciful/ledgerbot/core/bootstrap"
	"github.com/m3rciful/ledgerbot/core/logger"
	tg "github.com/m3rciful/ledgerbot/core/telegram"
	"github.com/m3rciful/ledgerbot/core/telegram/sender"
	"github.com/m3rciful/ledgerbot/core/telegram/state"
	"github.com/m3rciful/ledgerbot/ledger/config"
	"github.com/m3rciful/ledgerbot/ledger/dialog"
	"github.com/m3rciful/ledgerbot/ledger/storage/memory"
	"github.com/m3rciful/ledgerbot/ledger/storage/postgres"
	ledgertg "github.com/m3rciful/ledgerbot/ledger/telegram"
	"github.com/m3rciful/ledgerbot/migrations"
)

// App owns the ledger bot's long-lived components.
type App struct {
	cfg      *config.Config
	infra    *bootstrap.Result
	handler  *ledgertg.Handler
	registry *tg.Registry

	janitor     sync.WaitGroup
	stopJanitor context.CancelFunc
}

// Bootstrap is the Options.Bootstrap hook of the core runner.
func Bootstrap(cfg *config.Config) (*App, error) {
	opts := bootstrap.Options{Config: cfg.CoreConfig()}
	if cfg.UsesDatabase() {
		opts.Database = &cfg.Database
		opts.Migrations = migrations.FS
	}
	infra, err := bootstrap.Run(opts)
	if err != nil {
		return nil, err
	}
	a, err := New(cfg, infra)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	return a, nil
}

// New builds the app on top of already opened infrastructure.
func New(cfg *config.Config, infra *bootstrap.Result) (*App, error) {
	if infra == nil || infra.Sessions == nil {
		return nil, fmt.Errorf("app: session store is required")
	}

	var ledger dialog.Ledger
	if infra.DB != nil {
		ledger = postgres.NewRepository(infra.DB)
	} else {
		ledger = memory.NewRepository()
	}

	dispatcher := sender.NewDispatcher(sender.Options{MaxRetries: 2})
	transport := ledgertg.NewTransport(dispatcher)
	ctrl := dialog.NewController(infra.Sessions, transport, ledger, dialog.Options{
		ListLimit: cfg.Ledger.ListLimit,
		Currency:  cfg.Ledger.Currency,
		Location:  cfg.Location(),
	})
	handler := ledgertg.NewHandler(ctrl, transport, dispatcher)

	reg := tg.NewRegistry()
	if err := handler.Register(reg); err != nil {
		dispatcher.Close()
		return nil, fmt.Errorf("app: register handlers: %w", err)
	}

	logger.L.With("component", "app").Info("ledger wired",
		slog.String("event", "app.wire"),
		slog.String("storage", cfg.Ledger.Storage),
		slog.String("session_backend", cfg.Session.Backend),
		slog.Int("list_limit", cfg.Ledger.ListLimit),
		slog.String("currency", cfg.Ledger.Currency),
	)

	return &App{
		cfg:      cfg,
		infra:    infra,
		handler:  handler,
		registry: reg,
	}, nil
}

// TelegramRunOptions starts the session janitor with the bot and waits for it on stop.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	opts := a.handler.RunOptions(a.cfg.CoreConfig(), a.registry)

	prevStart := opts.OnStart
	opts.OnStart = func(ctx context.Context, rt tg.Runtime) error {
		if prevStart != nil {
			if err := prevStart(ctx, rt); err != nil {
				return err
			}
		}
		jctx, cancel := context.WithCancel(ctx)
		a.stopJanitor = cancel
		a.janitor.Add(1)
		go func() {
			defer a.janitor.Done()
			state.RunJanitor(jctx, a.infra.Sessions, a.cfg.Session.SweepInterval)
		}()
		return nil
	}

	prevStop := opts.OnStop
	opts.OnStop = func(ctx context.Context, rt tg.Runtime) error {
		if a.stopJanitor != nil {
			a.stopJanitor()
		}
		a.janitor.Wait()
		if prevStop != nil {
			return prevStop(ctx, rt)
		}
		return nil
	}
	return opts, nil
}

// Close releases the session store and the database.
func (a *App) Close() error {
	return a.infra.Close()
}
