package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the relay's process configuration, sourced from the
// environment with the PAIRHUB_ prefix.
type Config struct {
	// Port the HTTP/WebSocket server listens on
	Port int `env:"PORT" envDefault:"8080"`

	// JoinRequestTimeoutSeconds bounds the permission handshake: how long a
	// controller waits for the owner to accept or reject a join request
	JoinRequestTimeoutSeconds int `env:"JOIN_REQUEST_TIMEOUT" envDefault:"30"`

	// SessionTTLSeconds is applied to every session write so abandoned
	// sessions self-expire. Zero disables expiry.
	SessionTTLSeconds int `env:"SESSION_TTL" envDefault:"0"`

	// Store selects the session persistence backend: "redis" or "memory"
	Store string `env:"STORE" envDefault:"redis"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Redis RedisConfig `envPrefix:"REDIS_"`
}

// RedisConfig holds connection parameters for the Redis session backend
type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB" envDefault:"0"`
}

// Load reads configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "PAIRHUB_"}); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.JoinRequestTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("join request timeout must be positive, got %d", cfg.JoinRequestTimeoutSeconds)
	}
	if cfg.Store != "redis" && cfg.Store != "memory" {
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
	return cfg, nil
}

// JoinRequestTimeout returns the handshake timeout as a duration
func (c *Config) JoinRequestTimeout() time.Duration {
	return time.Duration(c.JoinRequestTimeoutSeconds) * time.Second
}

// SessionTTL returns the session expiry as a duration, zero if disabled
func (c *Config) SessionTTL() time.Duration {
	if c.SessionTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.SessionTTLSeconds) * time.Second
}
