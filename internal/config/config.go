// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
//
// Readiness weights, thresholds, and monthly caps are deliberately NOT
// configurable; they are compiled constants in the domain packages so
// every deployment scores identically.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Store selects the persistence backend: memory or postgres.
	Store string `koanf:"store"`

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string `koanf:"postgres_dsn"`

	// QueueSize bounds the in-memory contribution queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of contribution processing workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		Addr:        ":9080",
		Store:       "memory",
		QueueSize:   100_000,
		WorkerCount: runtime.NumCPU() * 4,
		DedupeSize:  50_000,
	}
}
