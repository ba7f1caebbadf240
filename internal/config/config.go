// Package config loads bootstrap configuration from environment variables and .env files.
package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds process-level configuration for companiond. Runtime generation
// settings (endpoint, sampling knobs, presets) live in the settings service
// and are not configured through the environment.
type Config struct {
	// Server
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"7872"`
	BindHost    string `env:"BIND_HOST" envDefault:"127.0.0.1"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Storage
	SettingsPath string `env:"SETTINGS_PATH" envDefault:"companiond.db"`

	// Control API auth
	APISecret string        `env:"API_SECRET" envDefault:"change-this-in-production"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// Horde job queue
	HordePollInterval time.Duration `env:"HORDE_POLL_INTERVAL" envDefault:"5s"`
	HordePollDeadline time.Duration `env:"HORDE_POLL_DEADLINE" envDefault:"10m"`

	// UI origin allowed to call the control API
	AllowedOrigin string `env:"ALLOWED_ORIGIN" envDefault:"*"`
}

// Load loads configuration from .env file (if present) and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
