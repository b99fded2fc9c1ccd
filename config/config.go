// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"net"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Host           string        `env:"HOST"              envDefault:"0.0.0.0"`
	Port           string        `env:"PORT"              envDefault:"8080"`
	DataDir        string        `env:"DATA_DIR"          envDefault:"./data"`
	Backend        string        `env:"STORE_BACKEND"     envDefault:"json"`
	QuotaBytes     int64         `env:"STORE_QUOTA_BYTES" envDefault:"0"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS"   envDefault:"*" envSeparator:","`
	Latency        time.Duration `env:"API_LATENCY"       envDefault:"0s"`
	SeedFile       string        `env:"SEED_FILE"`
	LogLevel       string        `env:"LOG_LEVEL"         envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT"        envDefault:"json"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}
