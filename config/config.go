// Package config loads process configuration from the environment (and an
// optional .env file).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// RepositoryType selects which repository.Repository backend
// cmd/schedulecore wires up.
type RepositoryType string

const (
	RepositoryMemory   RepositoryType = "memory"
	RepositoryPostgres RepositoryType = "postgres"
)

// Config holds all process configuration values, per SPEC_FULL.md §1's
// "Configuration" ambient-stack section.
type Config struct {
	Env string

	RepositoryType RepositoryType
	DatabaseURL    string

	PostgresMaxConnections int32
	PostgresMinConnections int32
	PostgresConnectTimeout time.Duration
	PostgresIdleTimeout    time.Duration
	PostgresMaxRetries     int
	PostgresRetryDelay     time.Duration

	AnalyticsBufferSize    int
	AnalyticsFlushInterval time.Duration
	AnalyticsWorkers       int

	VisibilitySampleStepSeconds int
	VisibilityBinSeconds        int

	LogLevel string
}

// Load reads configuration from environment variables, optionally
// preceded by a .env file in the working directory.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:                         getEnv("ENV", "development"),
		RepositoryType:              RepositoryType(getEnv("REPOSITORY_TYPE", string(RepositoryMemory))),
		DatabaseURL:                 getEnv("DATABASE_URL", ""),
		PostgresMaxConnections:      int32(getEnvInt("POSTGRES_MAX_CONNECTIONS", 10)),
		PostgresMinConnections:      int32(getEnvInt("POSTGRES_MIN_CONNECTIONS", 2)),
		PostgresConnectTimeout:      time.Duration(getEnvInt("POSTGRES_CONNECT_TIMEOUT_MS", 5000)) * time.Millisecond,
		PostgresIdleTimeout:         time.Duration(getEnvInt("POSTGRES_IDLE_TIMEOUT_MS", 1800000)) * time.Millisecond,
		PostgresMaxRetries:          getEnvInt("POSTGRES_MAX_RETRIES", 3),
		PostgresRetryDelay:          time.Duration(getEnvInt("POSTGRES_RETRY_DELAY_MS", 200)) * time.Millisecond,
		AnalyticsBufferSize:         getEnvInt("ANALYTICS_BUFFER_SIZE", 1024),
		AnalyticsFlushInterval:      time.Duration(getEnvInt("ANALYTICS_FLUSH_INTERVAL_MS", 2000)) * time.Millisecond,
		AnalyticsWorkers:            getEnvInt("ANALYTICS_WORKERS", 2),
		VisibilitySampleStepSeconds: getEnvInt("VISIBILITY_SAMPLE_STEP_SECONDS", 60),
		VisibilityBinSeconds:        getEnvInt("VISIBILITY_BIN_SECONDS", 900),
		LogLevel:                    getEnv("LOG_LEVEL", "info"),
	}
}

// Validate reports a configuration problem early, before any repository is
// opened.
func (c *Config) Validate() error {
	if c.RepositoryType != RepositoryMemory && c.RepositoryType != RepositoryPostgres {
		return fmt.Errorf("config: unknown REPOSITORY_TYPE %q", c.RepositoryType)
	}
	if c.RepositoryType == RepositoryPostgres && c.DatabaseURL == "" {
		return fmt.Errorf("config: REPOSITORY_TYPE=postgres requires DATABASE_URL")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
