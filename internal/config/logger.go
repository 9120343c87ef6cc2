package config

import (
	"log/slog"
	"os"
)

// NewLogger returns a slog.Logger configured from APP_ENV and
// LOG_LEVEL.  Production uses the JSON handler; otherwise the text
// handler.  LOG_LEVEL may be: debug, info, warn, error (default info).
func NewLogger() *slog.Logger {
	level := slog.LevelInfo
	switch getenv("LOG_LEVEL", "") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if getenv("APP_ENV", "dev") == "prod" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
