package bootstrap

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/ledgerbot/core/config"
	coredatabase "github.com/m3rciful/ledgerbot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunWithoutDatabase(t *testing.T) {
	cfg := &coreconfig.Config{Session: coreconfig.SessionConfig{Backend: coreconfig.SessionBackendMemory}}
	res, err := Run(Options{Config: cfg, LoggerInit: noLogger})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.DB != nil || res.Sessions == nil {
		t.Fatalf("unexpected result %+v", res)
	}
	if err := res.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRunMigratesGivenSource(t *testing.T) {
	cfg := &coreconfig.Config{}
	src := fstest.MapFS{"0001_init.up.sql": {Data: []byte("SELECT 1;")}}
	var migrated fs.FS
	res, err := Run(Options{
		Config:     cfg,
		Database:   &coredatabase.Config{Host: "db", Name: "ledger"},
		Migrations: src,
		LoggerInit: noLogger,
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			return sqlx.Open("postgres", "host=db dbname=ledger sslmode=disable")
		},
		Migrate: func(_ coredatabase.Config, source fs.FS) error {
			migrated = source
			return nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	defer res.Close()
	if res.DB == nil {
		t.Fatal("expected database handle")
	}
	if migrated == nil {
		t.Fatal("migrations were not applied")
	}
}

func TestRunFailures(t *testing.T) {
	boom := errors.New("boom")
	db := &coredatabase.Config{Host: "db", Name: "ledger"}
	cases := []struct {
		name string
		opts Options
	}{
		{"nil config", Options{}},
		{"logger", Options{Config: &coreconfig.Config{}, LoggerInit: func(*coreconfig.Config) error { return boom }}},
		{"connect", Options{
			Config:     &coreconfig.Config{},
			Database:   db,
			LoggerInit: noLogger,
			Connect:    func(coredatabase.Config) (*sqlx.DB, error) { return nil, boom },
		}},
		{"migrate", Options{
			Config:     &coreconfig.Config{},
			Database:   db,
			Migrations: fstest.MapFS{},
			LoggerInit: noLogger,
			Connect: func(coredatabase.Config) (*sqlx.DB, error) {
				return sqlx.Open("postgres", "host=db dbname=ledger sslmode=disable")
			},
			Migrate: func(coredatabase.Config, fs.FS) error { return boom },
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Run(tc.opts); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestOpenSessionsBolt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	store, err := OpenSessions(coreconfig.SessionConfig{Backend: coreconfig.SessionBackendBolt, BoltPath: path})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	store.SetState(1, "awaiting_price")
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenSessions(coreconfig.SessionConfig{Backend: coreconfig.SessionBackendBolt, BoltPath: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if got := reopened.GetState(1); got != "awaiting_price" {
		t.Fatalf("state after reopen = %q", got)
	}
}
