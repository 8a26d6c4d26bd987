// Package config loads the ledger bot configuration on top of the core sections.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	coreconfig "github.com/m3rciful/ledgerbot/core/config"
	coredatabase "github.com/m3rciful/ledgerbot/core/database"
)

const (
	// StoragePostgres keeps the ledger in PostgreSQL.
	StoragePostgres = "postgres"
	// StorageMemory keeps the ledger in process memory, e.g. for local runs.
	StorageMemory = "memory"

	defaultListLimit = 10
	defaultCurrency  = "IRR"
)

// LedgerConfig tunes the ledger itself.
type LedgerConfig struct {
	Storage   string `yaml:"storage" envconfig:"LEDGER_STORAGE"`
	ListLimit int    `yaml:"list_limit" envconfig:"LEDGER_LIST_LIMIT"`
	Currency  string `yaml:"currency" envconfig:"LEDGER_CURRENCY"`
	// Timezone renders dates and resolves "/list <day>"; empty means the host zone.
	Timezone string `yaml:"timezone" envconfig:"LEDGER_TIMEZONE"`
}

// Config is the full ledger bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Ledger   LedgerConfig        `yaml:"ledger"`

	location *time.Location
}

// Load reads path, overlays the environment and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates cfg and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	storage := strings.ToLower(strings.TrimSpace(cfg.Ledger.Storage))
	switch storage {
	case "", StoragePostgres, "postgresql":
		storage = StoragePostgres
		if strings.TrimSpace(cfg.Database.Host) == "" || strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.host and database.name are required when ledger.storage is 'postgres'")
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
	case StorageMemory:
	default:
		return fmt.Errorf("invalid ledger.storage %q; allowed: postgres, memory", cfg.Ledger.Storage)
	}
	cfg.Ledger.Storage = storage

	if cfg.Ledger.ListLimit < 0 {
		return fmt.Errorf("ledger.list_limit must be >= 0")
	}
	if cfg.Ledger.ListLimit == 0 {
		cfg.Ledger.ListLimit = defaultListLimit
	}
	cfg.Ledger.Currency = strings.TrimSpace(cfg.Ledger.Currency)
	if cfg.Ledger.Currency == "" {
		cfg.Ledger.Currency = defaultCurrency
	}

	cfg.location = time.Local
	if tz := strings.TrimSpace(cfg.Ledger.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("invalid ledger.timezone %q: %w", tz, err)
		}
		cfg.location = loc
	}
	return nil
}

// CoreConfig exposes the shared sections to the core runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Location returns the zone dates are rendered in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// UsesDatabase reports whether the ledger lives in PostgreSQL.
func (c *Config) UsesDatabase() bool {
	return c.Ledger.Storage == StoragePostgres
}
