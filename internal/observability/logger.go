package observability

import (
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/specline-etl/internal/config"
)

// New builds a slog.Logger writing to stdout with the given level and
// format. Unknown values fall back to info level and text format.
func New(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// NewLogger builds the service logger from the loaded configuration.
func NewLogger(cfg *config.Config) *slog.Logger {
	return New(cfg.LogLevel, cfg.LogFormat)
}

// ParseLevel converts a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
