package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Ledger backends.
const (
	LedgerFile     = "file"
	LedgerRedis    = "redis"
	LedgerPostgres = "postgres"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
		// TrustProxy keys attempts on X-Forwarded-For/X-Real-IP. Enable only behind a proxy that sets them.
		TrustProxy bool `yaml:"trust_proxy"`
	} `yaml:"server"`
	Problems struct {
		Dir         string `yaml:"dir"`
		AssetPrefix string `yaml:"asset_prefix"`
		CacheTTL    string `yaml:"cache_ttl"`
		// Source selects where bundles come from: "file" (default) or "postgres".
		Source string `yaml:"source"`
	} `yaml:"problems"`
	Rotation struct {
		Period      string `yaml:"period"`
		Cron        string `yaml:"cron"`
		Timezone    string `yaml:"timezone"`
		MaxAttempts int    `yaml:"max_attempts"`
	} `yaml:"rotation"`
	Ledger struct {
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
		// Attempts selects the attempt ledger: "memory" (default) or "redis".
		Attempts string `yaml:"attempts"`
	} `yaml:"ledger"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "3000"
	cfg.Problems.Dir = "problems"
	cfg.Problems.AssetPrefix = "/problems"
	cfg.Problems.Source = "file"
	cfg.Rotation.Period = "24h"
	cfg.Rotation.MaxAttempts = 10
	cfg.Ledger.Backend = LedgerFile
	cfg.Ledger.Path = "currentProblemIndex.json"
	cfg.Ledger.Attempts = "memory"
	cfg.Redis.Prefix = "problem"
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	return cfg
}

// Load reads YAML config from path on top of Default. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if c.Rotation.MaxAttempts < 1 {
		return fmt.Errorf("rotation.max_attempts must be >= 1, got %d", c.Rotation.MaxAttempts)
	}
	if c.Rotation.Cron != "" {
		if _, err := cron.ParseStandard(c.Rotation.Cron); err != nil {
			return fmt.Errorf("rotation.cron: %w", err)
		}
	} else if d, err := time.ParseDuration(c.Rotation.Period); err != nil || d <= 0 {
		return fmt.Errorf("rotation.period must be a positive duration, got %q", c.Rotation.Period)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("rotation.timezone: %w", err)
	}

	switch c.Ledger.Backend {
	case LedgerFile:
		if c.Ledger.Path == "" {
			return fmt.Errorf("ledger.path cannot be empty for the file ledger")
		}
	case LedgerRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("ledger.backend redis requires redis.addr")
		}
	case LedgerPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("ledger.backend postgres requires postgres.url")
		}
	default:
		return fmt.Errorf("unknown ledger.backend %q", c.Ledger.Backend)
	}

	switch c.Ledger.Attempts {
	case "", "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("ledger.attempts redis requires redis.addr")
		}
	default:
		return fmt.Errorf("unknown ledger.attempts %q", c.Ledger.Attempts)
	}

	switch c.Problems.Source {
	case "", "file":
		if c.Problems.Dir == "" {
			return fmt.Errorf("problems.dir cannot be empty")
		}
	case "postgres":
		if c.Postgres.URL == "" {
			return fmt.Errorf("problems.source postgres requires postgres.url")
		}
	default:
		return fmt.Errorf("unknown problems.source %q", c.Problems.Source)
	}
	return nil
}

// Location resolves rotation.timezone; empty means the local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Rotation.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Rotation.Timezone)
}

// LogLevel maps log.level to a slog level, defaulting to info.
func (c Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
