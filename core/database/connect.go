package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/ledgerbot/core/logger"
)

const (
	retryInterval   = 2 * time.Second
	attemptTimeout  = 5 * time.Second
	defaultPoolSize = 4
)

// Connect opens the pool and waits up to cfg.ConnectTimeout for the server to
// accept it, which covers a database container that starts with the bot.
func Connect(cfg Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.connectTimeout())
	defer cancel()

	start := time.Now()
	db, attempts, err := dial(ctx, cfg.KeywordDSN())
	attrs := []any{
		slog.String("event", "db.connect"),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
		slog.Int("attempts", attempts),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		logger.DB.Error("db connect failed", append(attrs, slog.String("err", err.Error()))...)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	pool := cfg.MaxConnections
	if pool <= 0 {
		pool = defaultPoolSize
	}
	db.SetMaxOpenConns(pool)
	db.SetMaxIdleConns(pool)
	db.SetConnMaxIdleTime(5 * time.Minute)

	logger.DB.Info("db connected", append(attrs, slog.Int("pool_open", pool))...)
	return db, nil
}

// WaitForPostgres blocks until dsn accepts a connection or ctx ends.
func WaitForPostgres(ctx context.Context, dsn string) error {
	db, _, err := dial(ctx, dsn)
	if err != nil {
		return err
	}
	return db.Close()
}

// dial connects and pings, retrying every retryInterval until ctx ends.
func dial(ctx context.Context, dsn string) (*sqlx.DB, int, error) {
	var lastErr error
	for attempt := 1; ; attempt++ {
		actx, cancel := context.WithTimeout(ctx, attemptTimeout)
		db, err := sqlx.ConnectContext(actx, "postgres", dsn)
		cancel()
		if err == nil {
			return db, attempt, nil
		}
		lastErr = err
		logger.DB.Debug("db not ready",
			slog.String("event", "db.connect"),
			slog.String("status", "retry"),
			slog.Int("attempts", attempt),
			slog.String("err", err.Error()),
		)

		timer := time.NewTimer(retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, attempt, fmt.Errorf("database not ready: %w (last error: %v)", ctx.Err(), lastErr)
		case <-timer.C:
		}
	}
}
