package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Rotation.MaxAttempts != 10 || cfg.Ledger.Backend != LedgerFile || cfg.Server.TrustProxy {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9090"
  trust_proxy: true
rotation:
  cron: "*/1 * * * *"
  max_attempts: 3
ledger:
  backend: redis
redis:
  addr: localhost:6379
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || !cfg.Server.TrustProxy || cfg.Rotation.MaxAttempts != 3 || cfg.Rotation.Cron != "*/1 * * * *" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Problems.Dir != "problems" {
		t.Fatalf("expected untouched default problems dir, got %q", cfg.Problems.Dir)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRejectsInconsistentConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"zero attempts":   func(c *Config) { c.Rotation.MaxAttempts = 0 },
		"bad period":      func(c *Config) { c.Rotation.Period = "soon" },
		"negative period": func(c *Config) { c.Rotation.Period = "-1m" },
		"bad cron":        func(c *Config) { c.Rotation.Cron = "every day" },
		"redis no addr":   func(c *Config) { c.Ledger.Backend = LedgerRedis },
		"pg no url":       func(c *Config) { c.Ledger.Backend = LedgerPostgres },
		"unknown ledger":  func(c *Config) { c.Ledger.Backend = "s3" },
		"bad timezone":    func(c *Config) { c.Rotation.Timezone = "Mars/Olympus" },
		"pg problems":     func(c *Config) { c.Problems.Source = "postgres" },
		"redis attempts":  func(c *Config) { c.Ledger.Attempts = "redis" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %s", got)
	}
	if got := TTLDuration("nope", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback on parse error, got %s", got)
	}
	if got := TTLDuration("30s", time.Minute); got != 30*time.Second {
		t.Fatalf("expected 30s, got %s", got)
	}
}
