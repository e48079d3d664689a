// Package config loads the ledgerd YAML configuration.
package config

import (
	"fmt"
	"time"

	"coffee-ledger/internal/domain"
	"coffee-ledger/internal/ledger"
)

// Config is the root configuration for a ledgerd instance.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Journal  JournalConfig  `yaml:"journal"`
	Policy   PolicyConfig   `yaml:"policy"`
	Accounts AccountsConfig `yaml:"accounts"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selects and configures the ledger backend.
type StorageConfig struct {
	// Backend is "memory" or "postgres".
	Backend  string         `yaml:"backend"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds the postgres connection settings.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// JournalConfig configures the clickhouse audit journal sink.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// PolicyConfig holds the ledger's principals and protocol constants in
// their textual forms; ToLedgerConfig parses them.
type PolicyConfig struct {
	Self string `yaml:"self"`
	// Fee is the flat transfer fee, e.g. "1.0000 CFF".
	Fee string `yaml:"fee"`
	// BurnSymbol names the burnable currency, e.g. "4,CFF".
	BurnSymbol         string   `yaml:"burn_symbol"`
	TrustedBurnSources []string `yaml:"trusted_burn_sources"`
	StakingController  string   `yaml:"staking_controller"`
}

// AccountsConfig seeds the account registry and the signing keys accepted
// for authorization. Keys maps account name to a base58 ed25519 public key.
type AccountsConfig struct {
	Known []string          `yaml:"known"`
	Keys  map[string]string `yaml:"keys"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Path string `yaml:"path"`
}

func (c *Config) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	def := ledger.DefaultConfig()
	if c.Policy.Self == "" {
		c.Policy.Self = string(def.Self)
	}
	if c.Policy.Fee == "" {
		c.Policy.Fee = def.Fee.String()
	}
	if c.Policy.BurnSymbol == "" {
		c.Policy.BurnSymbol = def.BurnSymbol.String()
	}
	if len(c.Policy.TrustedBurnSources) == 0 {
		for _, src := range def.TrustedBurnSources {
			c.Policy.TrustedBurnSources = append(c.Policy.TrustedBurnSources, string(src))
		}
	}
	if c.Policy.StakingController == "" {
		c.Policy.StakingController = string(def.StakingController)
	}
}

// Validate checks the configuration for shape errors.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory":
	case "postgres":
		if c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage.postgres.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Journal.Enabled && c.Journal.DSN == "" {
		return fmt.Errorf("journal.dsn is required when the journal is enabled")
	}
	if _, err := c.ToLedgerConfig(); err != nil {
		return err
	}
	return nil
}

// ToLedgerConfig parses the policy section into the engine's configuration.
func (c *Config) ToLedgerConfig() (ledger.Config, error) {
	fee, err := domain.ParseAmount(c.Policy.Fee)
	if err != nil {
		return ledger.Config{}, fmt.Errorf("policy.fee: %w", err)
	}
	burnSym, err := domain.ParseSymbol(c.Policy.BurnSymbol)
	if err != nil {
		return ledger.Config{}, fmt.Errorf("policy.burn_symbol: %w", err)
	}

	lc := ledger.Config{
		Self:              domain.Name(c.Policy.Self),
		Fee:               fee,
		BurnSymbol:        burnSym,
		StakingController: domain.Name(c.Policy.StakingController),
	}
	for _, src := range c.Policy.TrustedBurnSources {
		lc.TrustedBurnSources = append(lc.TrustedBurnSources, domain.Name(src))
	}
	if err := lc.Validate(); err != nil {
		return ledger.Config{}, fmt.Errorf("policy: %w", err)
	}
	return lc, nil
}
