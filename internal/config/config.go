// Package config provides configuration management for simsync.
package config

import (
	"os"
	"strconv"
	"time"
)

const (
	// DefaultWorkers is the default number of worker contexts reading shared state.
	DefaultWorkers = 4

	// DefaultTickInterval is the default time the main context holds the
	// exclusive lock per simulation tick.
	DefaultTickInterval = 50 * time.Millisecond

	// DefaultSharedWindow is the default time the main context leaves the
	// exclusive lock released between ticks.
	DefaultSharedWindow = 150 * time.Millisecond

	// DefaultSlowDrainWarning is the default drain wait above which an
	// exclusive reacquisition is logged at warn level.
	DefaultSlowDrainWarning = 250 * time.Millisecond

	// DefaultMaxBodyBytes is the default max request body size for API
	// endpoints (64KB). The API only carries small JSON queries.
	DefaultMaxBodyBytes int64 = 64 * 1024
)

// Config holds the application configuration.
type Config struct {
	// Port is the HTTP server port.
	Port string

	// LogLevel is the zerolog level name (debug, info, warn, error).
	LogLevel string

	// PrettyLogs enables human-readable console output instead of JSON.
	PrettyLogs bool

	// Workers is the number of worker contexts reading shared state.
	Workers int

	// TickInterval is how long the main context holds the exclusive lock per tick.
	TickInterval time.Duration

	// SharedWindow is how long the exclusive lock stays released between ticks.
	SharedWindow time.Duration

	// SlowDrainWarning is the drain wait above which reacquisition logs a warning.
	SlowDrainWarning time.Duration

	// MaxBodyBytes is the maximum request body size for API endpoints in bytes.
	MaxBodyBytes int64
}

// Load loads configuration from environment variables with defaults.
func Load() *Config {
	cfg := &Config{
		Port:             getEnvOrDefault("PORT", "8080"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		PrettyLogs:       getEnvBoolOrDefault("PRETTY_LOGS", false),
		Workers:          getEnvIntOrDefault("WORKERS", DefaultWorkers),
		TickInterval:     getEnvDurationOrDefault("TICK_INTERVAL", DefaultTickInterval),
		SharedWindow:     getEnvDurationOrDefault("SHARED_WINDOW", DefaultSharedWindow),
		SlowDrainWarning: getEnvDurationOrDefault("SLOW_DRAIN_WARNING", DefaultSlowDrainWarning),
		MaxBodyBytes:     getEnvInt64OrDefault("MAX_BODY_BYTES", DefaultMaxBodyBytes),
	}

	return cfg
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns the environment variable value as int or the default if not set or invalid.
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt64OrDefault returns the environment variable value as int64 or the default if not set or invalid.
func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvBoolOrDefault returns the environment variable value as bool or the default if not set or invalid.
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault returns the environment variable value as a duration or the default if not set or invalid.
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
