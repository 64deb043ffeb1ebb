// Package config loads engine and CLI configuration: defaults, then an
// optional config file, then KRAKEN_* environment variables, then runtime
// overrides, each layer winning over the one before it.
package config

import (
	"time"

	"github.com/gridhaven/kraken/pkg/adaptor"
)

// Config is the full configuration tree.
type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Logging    LoggingConfig     `mapstructure:"logging"`
	Properties map[string]string `mapstructure:"properties"`
}

// ServerConfig configures the status HTTP surface.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig configures logger construction.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// DefaultProperties returns the configured adaptor property defaults as an
// engine-ready map.
func (c *Config) DefaultProperties() adaptor.Properties {
	return adaptor.Properties(c.Properties).Clone()
}
