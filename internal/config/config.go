// Package config loads bridge settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the bridge settings. Command-line flags override these
// values after parsing.
type Config struct {
	Home           string        `env:"VAUDIO_HOME"`
	Socket         string        `env:"VAUDIO_BRIDGE_SOCKET"`
	Workers        int           `env:"VAUDIO_BRIDGE_WORKERS" envDefault:"0"`
	Debug          bool          `env:"VAUDIO_BRIDGE_DEBUG"`
	LogFile        string        `env:"VAUDIO_BRIDGE_LOG_FILE"`
	CallTimeout    time.Duration `env:"VAUDIO_BRIDGE_CALL_TIMEOUT" envDefault:"5s"`
	WriteTimeout   time.Duration `env:"VAUDIO_BRIDGE_WRITE_TIMEOUT" envDefault:"10s"`
	MaxMessageSize int           `env:"VAUDIO_BRIDGE_MAX_MESSAGE_SIZE" envDefault:"4194304"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses Config and checks its bounds.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects negative sizes and durations. Zero means default.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.CallTimeout < 0 {
		return fmt.Errorf("call timeout must be >= 0, got %s", c.CallTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("write timeout must be >= 0, got %s", c.WriteTimeout)
	}
	if c.MaxMessageSize < 0 {
		return fmt.Errorf("max message size must be >= 0, got %d", c.MaxMessageSize)
	}
	return nil
}
