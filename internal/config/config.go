// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v9"

	"esim-pricing/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Pricing contains pricing configuration
	Pricing PricingConfig `json:"pricing"`

	// Store contains rule-store configuration
	Store StoreConfig `json:"store"`

	// Cache contains result-cache configuration
	Cache CacheConfig `json:"cache"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// PricingConfig contains pricing-related settings
type PricingConfig struct {
	// Currency is the display currency
	Currency string `json:"currency"`

	// SeedDefaultRules seeds the documented default system rules when
	// the store has no active rules
	SeedDefaultRules bool `json:"seed_default_rules"`

	// RuleFile is an optional HCL/YAML rule file used instead of a
	// database store
	RuleFile string `json:"rule_file,omitempty"`
}

// StoreConfig contains rule-store settings. Credentials come from the
// environment, never from the config file.
type StoreConfig struct {
	// Backend selects the store implementation (memory, file, postgres)
	Backend string `json:"backend"`

	Host            string        `json:"-" env:"PRICING_DB_HOST" envDefault:"localhost"`
	Port            int           `json:"-" env:"PRICING_DB_PORT" envDefault:"5432"`
	User            string        `json:"-" env:"PRICING_DB_USER" envDefault:"pricing"`
	Password        string        `json:"-" env:"PRICING_DB_PASSWORD"`
	Name            string        `json:"-" env:"PRICING_DB_NAME" envDefault:"pricing"`
	SSLMode         string        `json:"-" env:"PRICING_DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `json:"-" env:"PRICING_DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `json:"-" env:"PRICING_DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `json:"-" env:"PRICING_DB_CONN_MAX_LIFETIME" envDefault:"5m"`
}

// CacheConfig contains calculation result-cache settings
type CacheConfig struct {
	// Enabled turns the Redis result cache on
	Enabled bool `json:"enabled"`

	Addr     string        `json:"-" env:"PRICING_REDIS_ADDR" envDefault:"localhost:6379"`
	Password string        `json:"-" env:"PRICING_REDIS_PASSWORD"`
	DB       int           `json:"-" env:"PRICING_REDIS_DB" envDefault:"0"`
	TTL      time.Duration `json:"-" env:"PRICING_REDIS_TTL" envDefault:"15m"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Pricing: PricingConfig{
			Currency:         "USD",
			SeedDefaultRules: true,
		},
		Store: StoreConfig{
			Backend: "memory",
		},
		Cache: CacheConfig{
			Enabled: false,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file and applies environment
// overrides for store and cache credentials.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
		// fall through to defaults
	default:
		return nil, err
	}

	if err := env.Parse(&config.Store); err != nil {
		return nil, err
	}
	if err := env.Parse(&config.Cache); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
