package database

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "bot", Password: "p@ss", Name: "ledger"}

	if got, want := cfg.KeywordDSN(), "user=bot password=p@ss host=db port=5432 dbname=ledger sslmode=disable"; got != want {
		t.Fatalf("KeywordDSN = %q, want %q", got, want)
	}
	if got, want := cfg.URL(), "postgres://bot:p%40ss@db:5432/ledger?sslmode=disable"; got != want {
		t.Fatalf("URL = %q, want %q", got, want)
	}
}

func TestMigrationVersionHelpers(t *testing.T) {
	files := []string{"000001_init.up.sql", "000002_status.up.sql", "000003_users_handle.up.sql"}

	if got := parseVersion("000002_status.up.sql"); got != 2 {
		t.Fatalf("parseVersion = %d, want 2", got)
	}
	if got := countApplied(files, 1, 3); got != 2 {
		t.Fatalf("countApplied = %d, want 2", got)
	}
	if got := countApplied(files, 3, 3); got != 0 {
		t.Fatalf("countApplied without change = %d, want 0", got)
	}
	applied := selectApplied(files, 0, 2)
	if len(applied) != 2 || applied[1] != "000002_status.up.sql" {
		t.Fatalf("selectApplied = %v", applied)
	}
}

func TestConnectTimeoutDefault(t *testing.T) {
	if got := (Config{}).connectTimeout(); got != defaultConnectTimeout {
		t.Fatalf("default timeout = %s", got)
	}
	if got := (Config{ConnectTimeout: time.Second}).connectTimeout(); got != time.Second {
		t.Fatalf("timeout = %s", got)
	}
}

func TestWaitForPostgresStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := WaitForPostgres(ctx, "host=127.0.0.1 port=1 user=x dbname=x sslmode=disable")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if time.Since(start) > retryInterval {
		t.Fatal("wait kept retrying after cancellation")
	}
}
