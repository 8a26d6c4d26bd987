package bootstrap

import (
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/ledgerbot/core/config"
	coredatabase "github.com/m3rciful/ledgerbot/core/database"
	"github.com/m3rciful/ledgerbot/core/logger"
	"github.com/m3rciful/ledgerbot/core/telegram/state"
)

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config *coreconfig.Config
	// Database is nil for bots that keep no data in PostgreSQL.
	Database *coredatabase.Config
	// Migrations holds *.up.sql files at its root; nil skips migrating.
	Migrations fs.FS

	LoggerInit   func(*coreconfig.Config) error
	Connect      func(coredatabase.Config) (*sqlx.DB, error)
	Migrate      func(coredatabase.Config, fs.FS) error
	OpenSessions func(coreconfig.SessionConfig) (state.Store, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB       *sqlx.DB
	Sessions state.Store
}

// Close releases everything Run opened.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	var result *multierror.Error
	if r.Sessions != nil {
		if err := r.Sessions.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close sessions: %w", err))
		}
	}
	if r.DB != nil {
		if err := r.DB.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close database: %w", err))
		}
	}
	return result.ErrorOrNil()
}

// Run initializes the logger, opens the session store, connects to the
// database and applies migrations.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	openSessions := opts.OpenSessions
	if openSessions == nil {
		openSessions = OpenSessions
	}
	sessions, err := openSessions(opts.Config.Session)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: session store failed: %w", err)
	}
	res := &Result{Sessions: sessions}

	if opts.Database == nil {
		return res, nil
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(*opts.Database)
	if err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	res.DB = db

	if opts.Migrations != nil {
		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(*opts.Database, opts.Migrations); err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
	}

	return res, nil
}

// OpenSessions opens the session store selected by cfg.
func OpenSessions(cfg coreconfig.SessionConfig) (state.Store, error) {
	opts := state.Options{IdleTimeout: cfg.IdleTimeout}
	var (
		store state.Store
		err   error
	)
	switch cfg.Backend {
	case coreconfig.SessionBackendBolt:
		store, err = state.OpenBoltStore(cfg.BoltPath, opts)
		if err != nil {
			return nil, err
		}
	default:
		store = state.NewMemoryStore(opts)
	}
	logger.Session.Info("session store ready",
		slog.String("event", "session.open"),
		slog.String("backend", cfg.Backend),
		slog.Int("sessions", store.Len()),
		slog.Duration("idle_timeout", cfg.IdleTimeout),
	)
	return store, nil
}
