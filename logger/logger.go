// Package logger wraps zerolog with a console/JSON split: human-readable
// console output in development, structured JSON in production.
package logger

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/obscore/scheduler/config"
)

// New returns a configured zerolog.Logger for cfg.Env.
func New(cfg *config.Config) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	if cfg.IsDevelopment() {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var writer zerolog.LevelWriter
	if cfg.IsDevelopment() {
		writer = zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	} else {
		writer = zerolog.MultiLevelWriter(os.Stderr)
	}
	return zerolog.New(writer).With().Timestamp().Str("service", "scheduler").Logger()
}
