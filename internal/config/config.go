package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds process configuration, read from the environment
type Config struct {
	// HTTPAddr is the listen address for the web server
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// RedisAddr selects the Redis-backed session store when set; the
	// in-memory store is used otherwise
	RedisAddr string `env:"REDIS_ADDR"`

	// RedisPassword is the password for the Redis session store
	RedisPassword string `env:"REDIS_PASSWORD"`

	// DefaultDeck overrides the comma-separated deck new sessions start
	// with
	DefaultDeck string `env:"DEFAULT_DECK"`
}

// Load reads configuration from .env (when present) and the environment
func Load() (*Config, error) {
	// A missing .env file is fine; deployed environments set variables
	// directly
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return &cfg, nil
}
