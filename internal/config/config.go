package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Postgres holds the connection parts used when DATABASE_URL is unset.
type Postgres struct {
	User     string `env:"USER" envDefault:"dealhub"`
	Password string `env:"PASSWORD" envDefault:"dealhub_pass"`
	DB       string `env:"DB" envDefault:"dealhub"`
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
}

// Config holds service configuration.
type Config struct {
	StoreBackend     string   `env:"STORE_BACKEND" envDefault:"postgres"`
	DatabaseURL      string   `env:"DATABASE_URL"`
	DatabaseSSLMode  string   `env:"DATABASE_SSLMODE" envDefault:"disable"`
	DatabaseMaxConns int32    `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	Postgres         Postgres `envPrefix:"POSTGRES_"`
	// MigrationsDir overrides the embedded schema when set.
	MigrationsDir string `env:"MIGRATIONS_DIR"`

	// RedisAddr is optional; caches stay in process memory without it.
	RedisAddr   string `env:"REDIS_ADDR"`
	RedisDB     int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix string `env:"REDIS_PREFIX" envDefault:"dealhub"`

	ServerAddr     string `env:"SERVER_ADDR" envDefault:"0.0.0.0:8080"`
	AdminTokenHash string `env:"ADMIN_TOKEN_HASH"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`

	AllowanceSweepInterval    time.Duration `env:"ALLOWANCE_SWEEP_INTERVAL" envDefault:"1m"`
	AllowanceSweepBatch       int           `env:"ALLOWANCE_SWEEP_BATCH" envDefault:"200"`
	AllowanceSweepConcurrency int           `env:"ALLOWANCE_SWEEP_CONCURRENCY" envDefault:"4"`

	QueueShards      int           `env:"QUEUE_SHARDS" envDefault:"8"`
	QueueWorkers     int           `env:"QUEUE_WORKERS" envDefault:"4"`
	QueueMaxAttempts int           `env:"QUEUE_MAX_ATTEMPTS" envDefault:"5"`
	QueueMaxBackoff  time.Duration `env:"QUEUE_MAX_BACKOFF" envDefault:"10s"`

	TransitionMaxChain int    `env:"TRANSITION_MAX_CHAIN" envDefault:"4"`
	OpsAlertFilter     string `env:"OPS_ALERT_FILTER"`
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = cfg.postgresDSN()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) postgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Postgres.User, c.Postgres.Password),
		Host:     c.Postgres.Host + ":" + c.Postgres.Port,
		Path:     "/" + c.Postgres.DB,
		RawQuery: "sslmode=" + url.QueryEscape(c.DatabaseSSLMode),
	}
	return u.String()
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q", c.StoreBackend)
	}
	if c.AllowanceSweepInterval <= 0 {
		return fmt.Errorf("invalid ALLOWANCE_SWEEP_INTERVAL %s", c.AllowanceSweepInterval)
	}
	if c.TransitionMaxChain < 1 {
		return fmt.Errorf("invalid TRANSITION_MAX_CHAIN %d", c.TransitionMaxChain)
	}
	return nil
}
