// Package config reads the ledger daemon settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	RulesPath string `env:"RULES_PATH" envDefault:"go/config/league_rules.yaml"`
	NATSURL   string `env:"NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	// RedisURL enables distributed franchise locks. Empty means in-process locks.
	RedisURL string `env:"REDIS_URL"`
	// AuditSchedule is a six-field cron spec. Empty disables the scheduled audit.
	AuditSchedule    string        `env:"AUDIT_SCHEDULE" envDefault:"0 0 4 * * *"`
	LockTTL          time.Duration `env:"LOCK_TTL" envDefault:"30s"`
	LockWait         time.Duration `env:"LOCK_WAIT" envDefault:"10s"`
	FranchiseTTL     time.Duration `env:"FRANCHISE_CACHE_TTL" envDefault:"5m"`
	FallbackInterval time.Duration `env:"FALLBACK_INTERVAL" envDefault:"30s"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parses the environment.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if _, err := cfg.Level(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Level is LogLevel as a zerolog level.
func (c Config) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
