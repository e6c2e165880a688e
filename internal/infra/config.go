package infra

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the dashboard. Values come from the yaml
// config file; sensitive values (API key) can be overridden by environment
// variables, which always win over the file.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	API struct {
		BaseURL            string `yaml:"base_url"`
		Key                string `yaml:"key"`
		Currency           string `yaml:"currency"`
		TimeoutSec         int    `yaml:"timeout_sec"`
		Retries            int    `yaml:"retries"`
		MinIntervalMS      int    `yaml:"min_interval_ms"`
		PageSize           int    `yaml:"page_size"`
		BatchSize          int    `yaml:"batch_size"`
		CacheFreshMin      int    `yaml:"cache_fresh_min"`
		CacheStaleHours    int    `yaml:"cache_stale_hours"`
		RefreshIntervalMin int    `yaml:"refresh_interval_min"`
	} `yaml:"api"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Upstream request-size caps. The free tier rejects anything beyond these.
const (
	MaxPageSize  = 250
	MaxBatchSize = 100
)

// DefaultConfig returns a config with the canonical tuning:
// 10s timeout, 1 retry, 2s pacing, 5m fresh / 24h stale cache windows.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "crypto-dash"
	cfg.App.Version = "dev"
	cfg.API.BaseURL = "https://api.coingecko.com/api/v3"
	cfg.API.Currency = "usd"
	cfg.API.TimeoutSec = 10
	cfg.API.Retries = 1
	cfg.API.MinIntervalMS = 2000
	cfg.API.PageSize = MaxPageSize
	cfg.API.BatchSize = MaxBatchSize
	cfg.API.CacheFreshMin = 5
	cfg.API.CacheStaleHours = 24
	cfg.API.RefreshIntervalMin = 5
	cfg.Logging.Level = "info"
	return &cfg
}

// LoadConfig reads and parses the config file, applies env overrides and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api base_url is required")
	}
	if c.API.Currency == "" {
		return fmt.Errorf("api currency is required")
	}
	if c.API.TimeoutSec <= 0 {
		return fmt.Errorf("api timeout must be positive")
	}
	if c.API.Retries < 0 {
		return fmt.Errorf("api retries must not be negative")
	}
	if c.API.PageSize <= 0 || c.API.PageSize > MaxPageSize {
		return fmt.Errorf("api page_size must be in 1..%d", MaxPageSize)
	}
	if c.API.BatchSize <= 0 || c.API.BatchSize > MaxBatchSize {
		return fmt.Errorf("api batch_size must be in 1..%d", MaxBatchSize)
	}
	if c.API.CacheFreshMin <= 0 || c.API.CacheStaleHours <= 0 {
		return fmt.Errorf("cache windows must be positive")
	}
	return nil
}

// Timeout returns the per-request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSec) * time.Second
}

// MinInterval returns the global pacing interval between outbound calls.
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.API.MinIntervalMS) * time.Millisecond
}

// CacheFresh returns the window in which a cache entry is served without
// any network call.
func (c *Config) CacheFresh() time.Duration {
	return time.Duration(c.API.CacheFreshMin) * time.Minute
}

// CacheStale returns the window in which a cache entry is still usable as
// a degraded fallback after the live call failed.
func (c *Config) CacheStale() time.Duration {
	return time.Duration(c.API.CacheStaleHours) * time.Hour
}

// RefreshInterval returns the period of the background market refresh loop.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.API.RefreshIntervalMin) * time.Minute
}

// overrideWithEnv applies environment variables over file values.
// Env always wins so API keys can stay out of the config file.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("CRYPTO_DASH_API_KEY"); key != "" {
		cfg.API.Key = key
	}
	if url := os.Getenv("CRYPTO_DASH_API_URL"); url != "" {
		cfg.API.BaseURL = url
	}
	if level := os.Getenv("CRYPTO_DASH_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
