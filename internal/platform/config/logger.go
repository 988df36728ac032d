package config

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger: JSON to stdout at the configured
// level. Every component receives it by injection; nothing logs through a
// package-level default.
func NewLogger(cfg *Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
