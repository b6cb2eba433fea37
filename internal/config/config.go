// Package config loads service configuration from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config is the full service configuration, parsed from environment
// variables with sensible development defaults.
type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"90s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
		RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"60s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Database struct {
		// URL is a Postgres DSN; when empty the service runs on the
		// in-memory store.
		URL      string `env:"DATABASE_URL"`
		MaxConns int    `env:"DB_MAX_CONNS" envDefault:"10"`
	}
	Redis struct {
		// Addr enables the optimization result cache when set.
		Addr string        `env:"REDIS_ADDR"`
		TTL  time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	}
	AI struct {
		// BaseURL enables the AI suggestion path when set. Any
		// OpenAI-compatible chat-completions endpoint works.
		BaseURL string        `env:"AI_BASE_URL"`
		APIKey  string        `env:"AI_API_KEY"`
		Model   string        `env:"AI_MODEL" envDefault:"gpt-4o-mini"`
		Timeout time.Duration `env:"AI_TIMEOUT" envDefault:"30s"`
	}
	Optimization struct {
		MinDaysBetweenShows int `env:"OPT_MIN_DAYS_BETWEEN_SHOWS" envDefault:"1"`
		MaxDaysBetweenShows int `env:"OPT_MAX_DAYS_BETWEEN_SHOWS" envDefault:"7"`
	}
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// AIEnabled reports whether an AI collaborator endpoint is configured.
func (c *Config) AIEnabled() bool { return c.AI.BaseURL != "" }

// CacheEnabled reports whether the Redis result cache is configured.
func (c *Config) CacheEnabled() bool { return c.Redis.Addr != "" }
