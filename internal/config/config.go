// Package config loads the process-wide configuration. Values are read once
// at startup and treated as immutable afterwards.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the typed process configuration.
type Config struct {
	// Env is the runtime environment ("development" or "production").
	Env string `yaml:"env"`

	// ListenAddr is the HTTP bind address.
	ListenAddr string `yaml:"listen_addr"`

	// SiteURL is the externally reachable base URL, used for derived links
	// (billing redirect URLs).
	SiteURL string `yaml:"site_url"`

	// AuthSecret signs and verifies session tokens.
	AuthSecret string `yaml:"auth_secret"`

	// IsCloud switches schedulers to the remote jobs-service path.
	IsCloud bool `yaml:"is_cloud"`

	// JobsURL and JobsAPIKey configure the remote scheduler endpoint.
	JobsURL    string `yaml:"jobs_url"`
	JobsAPIKey string `yaml:"jobs_api_key"`

	// Database selects the conversation store backend: "memory", "sqlite"
	// or "postgres".
	Database DatabaseConfig `yaml:"database"`

	Stripe StripeConfig `yaml:"stripe"`

	// RunTimeout bounds a single agent run.
	RunTimeout time.Duration `yaml:"run_timeout"`

	// HeartbeatInterval paces SSE ping events.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// DatabaseConfig selects and configures the persistence backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"` // sqlite file path
	DSN    string `yaml:"dsn"`  // postgres connection string
}

// StripeConfig holds the billing tool configuration.
type StripeConfig struct {
	SecretKey          string `yaml:"secret_key"`
	BasePriceMonthlyID string `yaml:"base_price_monthly_id"`
	BaseAnnualPriceID  string `yaml:"base_annual_price_id"`
}

// Default returns the baseline configuration before env overrides.
func Default() *Config {
	return &Config{
		Env:               "development",
		ListenAddr:        ":3000",
		SiteURL:           "http://localhost:3000",
		Database:          DatabaseConfig{Driver: "sqlite", Path: "shipyard.db"},
		RunTimeout:        10 * time.Minute,
		HeartbeatInterval: 15 * time.Second,
	}
}

// Load builds the configuration from an optional YAML file and the
// environment. Env vars win over file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if cfg.Env == "production" && cfg.AuthSecret == "" {
		return nil, fmt.Errorf("AUTH_SECRET is required in production")
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("NODE_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("SITE_URL"); v != "" {
		c.SiteURL = v
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		c.AuthSecret = v
	}
	if v := os.Getenv("IS_CLOUD"); v != "" {
		c.IsCloud = parseBool(v)
	}
	if v := os.Getenv("JOBS_URL"); v != "" {
		c.JobsURL = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		c.JobsAPIKey = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
		if os.Getenv("DATABASE_DRIVER") == "" {
			c.Database.Driver = "postgres"
		}
	}
	if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
		c.Stripe.SecretKey = v
	}
	if v := os.Getenv("BASE_PRICE_MONTHLY_ID"); v != "" {
		c.Stripe.BasePriceMonthlyID = v
	}
	if v := os.Getenv("BASE_ANNUAL_MONTHLY_ID"); v != "" {
		c.Stripe.BaseAnnualPriceID = v
	}
	if v := os.Getenv("RUN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.RunTimeout = d
		}
	}
}

// IsProduction reports whether the process runs with production defaults.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false
	}
	return b
}
