package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Config struct {
	StoreBackend   string `env:"STORE_BACKEND" envDefault:"memory"`
	DatabaseURL    string `env:"DATABASE_URL"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"true"`
	SeedFile       string `env:"SEED_FILE"`
	StatementSize  int    `env:"STATEMENT_SIZE" envDefault:"5"`
	Port           int    `env:"PORT" envDefault:"8080"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv         string `env:"APP_ENV" envDefault:"production"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`

	BreakerEnabled      bool   `env:"BREAKER_ENABLED" envDefault:"true"`
	BreakerMaxFailures  uint32 `env:"BREAKER_MAX_FAILURES" envDefault:"5"`
	BreakerOpenTimeoutS int    `env:"BREAKER_OPEN_TIMEOUT_S" envDefault:"30"`

	IdempotencyTTLS int `env:"IDEMPOTENCY_TTL_S" envDefault:"86400"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=%s", BackendPostgres)
		}
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.StoreBackend)
	}
	if c.StatementSize <= 0 {
		return fmt.Errorf("STATEMENT_SIZE must be positive, got %d", c.StatementSize)
	}
	return nil
}
