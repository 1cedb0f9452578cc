// Package config provides configuration loading and validation for the
// coordinator.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds coordinator configuration loaded from environment variables.
type Config struct {
	// Port is the TCP port the coordinator listens on (e.g. "8080").
	Port string

	// DBPath is the filesystem path to the SQLite database file.
	DBPath string

	// AuthToken is the shared bearer token. If empty, every endpoint is
	// open; intended for local development only.
	AuthToken string

	// LeaseDuration bounds how long a worker may hold a claimed job before
	// its lease token stops validating. Negative values force immediate
	// expiry.
	LeaseDuration time.Duration

	// ShutdownTimeout is how long graceful shutdown waits for in-flight
	// requests.
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applies defaults and
// validates required values.
func Load() (*Config, error) {
	cfg := &Config{
		Port:      strings.TrimSpace(os.Getenv("DEBORGEN_PORT")),
		DBPath:    strings.TrimSpace(os.Getenv("DEBORGEN_DB_PATH")),
		AuthToken: strings.TrimSpace(os.Getenv("DEBORGEN_TOKEN")),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "deborgen.db"
	}

	cfg.LeaseDuration = 5 * time.Minute
	if v := strings.TrimSpace(os.Getenv("DEBORGEN_LEASE_SECONDS")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid DEBORGEN_LEASE_SECONDS: %w", err)
		}
		cfg.LeaseDuration = time.Duration(n) * time.Second
	}

	cfg.ShutdownTimeout = 30 * time.Second
	if v := strings.TrimSpace(os.Getenv("DEBORGEN_SHUTDOWN_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DEBORGEN_SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	return cfg, nil
}
