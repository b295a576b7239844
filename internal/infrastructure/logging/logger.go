// Package logging provides structured logging utilities.
//
// Console logs are one bracketed line per record, colored on a terminal:
// [LEVEL] [SYSTEM] [HH:MM:SS] message key=value
//
// Set format to "json" for machine-readable output. Both formats carry the
// trace id of the active OpenTelemetry span when there is one.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/eshaffer321/subtrack/internal/infrastructure/config"
)

// NewLogger creates a structured logger based on config
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	return NewLoggerTo(os.Stdout, cfg)
}

// NewLoggerTo creates a logger writing to w
func NewLoggerTo(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = NewConsoleHandler(w, opts)
	}

	return slog.New(NewTraceHandler(handler))
}

// NewLoggerWithSystem creates a logger with a system prefix (e.g., "api", "detection", "storage")
// This is useful for creating scoped loggers that are injected into components
func NewLoggerWithSystem(cfg config.LoggingConfig, system string) *slog.Logger {
	logger := NewLogger(cfg)
	return logger.With("system", system)
}

// ParseLevel maps a config level name to a slog level, defaulting to info
func ParseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Discard returns a logger that drops everything, for tests and tools
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
