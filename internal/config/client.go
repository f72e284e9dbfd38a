package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// ClientConfig holds the directory client configuration.
type ClientConfig struct {
	// Base URL of the directory service
	DirectoryURL string `env:"DIRECTORY_URL" envDefault:"http://localhost:5000"`

	// Total timeout for a single request
	RequestTimeout time.Duration `env:"CLIENT_TIMEOUT" envDefault:"10s"`

	// How long a fetched list stays fresh; 0 keeps it fresh until invalidated
	CacheStaleTime time.Duration `env:"CACHE_STALE_TIME" envDefault:"0s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"warn"`
}

// LoadClient parses environment variables into a ClientConfig.
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}
	if cfg.DirectoryURL == "" {
		return nil, fmt.Errorf("DIRECTORY_URL must not be empty")
	}
	return cfg, nil
}
