package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "123:abc"}}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
	if cfg.Session.Backend != SessionBackendMemory {
		t.Fatalf("session backend = %q, want memory", cfg.Session.Backend)
	}
	if cfg.Session.IdleTimeout != 30*time.Minute {
		t.Fatalf("idle timeout = %s, want 30m", cfg.Session.IdleTimeout)
	}
	if cfg.Session.SweepInterval != 15*time.Minute {
		t.Fatalf("sweep interval = %s, want 15m", cfg.Session.SweepInterval)
	}
}

func TestNormalizeSessionExpiryDisabled(t *testing.T) {
	cfg := &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
		Session:  SessionConfig{Backend: "bbolt", IdleTimeout: -1},
	}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Session.Backend != SessionBackendBolt {
		t.Fatalf("backend = %q, want bolt", cfg.Session.Backend)
	}
	if cfg.Session.BoltPath != defaultSessionBoltPath {
		t.Fatalf("bolt path = %q, want default", cfg.Session.BoltPath)
	}
	if cfg.Session.IdleTimeout != 0 || cfg.Session.SweepInterval != 0 {
		t.Fatalf("expected expiry disabled, got %s/%s", cfg.Session.IdleTimeout, cfg.Session.SweepInterval)
	}
}

func TestNormalizeRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"missing token", Config{}},
		{"bad run mode", Config{Telegram: TelegramConfig{Token: "t", RunMode: "push"}}},
		{"webhook without url", Config{Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}}},
		{"bad exclude", Config{Telegram: TelegramConfig{Token: "t"}, RateLimit: RateLimitConfig{ExcludeUpdates: []string{"poll"}}}},
		{"bad session backend", Config{Telegram: TelegramConfig{Token: "t"}, Session: SessionConfig{Backend: "redis"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			if err := Normalize(&cfg); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadOverlaysEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("telegram:\n  token: from-file\nsession:\n  backend: memory\n  idle_timeout: 10m\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("BOT_TOKEN", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token = %q, want env override", cfg.Telegram.Token)
	}
	if cfg.Session.IdleTimeout != 10*time.Minute {
		t.Fatalf("idle timeout = %s, want 10m", cfg.Session.IdleTimeout)
	}
}
