package infra

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	if cfg.MinInterval() != 2*time.Second {
		t.Errorf("min interval = %v", cfg.MinInterval())
	}
	if cfg.CacheFresh() != 5*time.Minute {
		t.Errorf("fresh window = %v", cfg.CacheFresh())
	}
	if cfg.CacheStale() != 24*time.Hour {
		t.Errorf("stale window = %v", cfg.CacheStale())
	}
	if cfg.Timeout() != 10*time.Second {
		t.Errorf("timeout = %v", cfg.Timeout())
	}
	if cfg.API.Retries != 1 {
		t.Errorf("retries = %d", cfg.API.Retries)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
app:
  name: crypto-dash
  version: 0.1.0
api:
  base_url: https://example.test/api/v3
  currency: eur
  page_size: 100
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.API.BaseURL != "https://example.test/api/v3" {
		t.Errorf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.API.Currency != "eur" {
		t.Errorf("currency = %q", cfg.API.Currency)
	}
	if cfg.API.PageSize != 100 {
		t.Errorf("page size = %d", cfg.API.PageSize)
	}
	// unset fields keep their defaults
	if cfg.API.TimeoutSec != 10 {
		t.Errorf("timeout default lost: %d", cfg.API.TimeoutSec)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api:\n  key: from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CRYPTO_DASH_API_KEY", "from-env")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Key != "from-env" {
		t.Errorf("env override lost: %q", cfg.API.Key)
	}
}

func TestConfig_ValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }},
		{"empty currency", func(c *Config) { c.API.Currency = "" }},
		{"zero timeout", func(c *Config) { c.API.TimeoutSec = 0 }},
		{"negative retries", func(c *Config) { c.API.Retries = -1 }},
		{"oversized page", func(c *Config) { c.API.PageSize = 251 }},
		{"oversized batch", func(c *Config) { c.API.BatchSize = 101 }},
		{"zero fresh window", func(c *Config) { c.API.CacheFreshMin = 0 }},
	}

	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}
