package log

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs the process-wide text logger and returns it.
func Setup(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// SetupFromEnv reads LOG_LEVEL (debug, info, warn, error) and installs the
// logger. Unknown values fall back to info.
func SetupFromEnv() *slog.Logger {
	return Setup(ParseLevel(os.Getenv("LOG_LEVEL")))
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// ForComponent tags a logger with the subsystem it belongs to.
func ForComponent(name string) *slog.Logger {
	return slog.Default().With("component", name)
}
