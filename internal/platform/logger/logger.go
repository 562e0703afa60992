// Package logger provides structured logging functionality for the
// application using Go's standard library log/slog package.
//
// This package implements a simple, yet flexible structured logging system
// that:
//   - Supports multiple log levels (debug, info, warn, error)
//   - Outputs logs in JSON format for easy parsing and integration with log
//     aggregators
//   - Configures logging based on application configuration
//   - Provides a consistent logging interface throughout the application
//
// The primary entry point is the Setup function, which initializes the
// logger based on the provided configuration and sets it as the default
// logger for the application.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/catchouli/better-tactics/internal/config"
)

// loggerKey is an unexported type used as a key for storing and retrieving
// logger instances from a context.Context. Using a custom type for context
// keys prevents key collisions with other packages.
type loggerKey struct{}

// Setup initializes and configures the application's logging system based
// on the provided configuration. It creates a structured JSON logger with
// the appropriate log level and sets it as the default logger for the
// application.
//
// Supported log levels (case-insensitive): "debug", "info", "warn", "error".
// An invalid level falls back to "info" with a warning printed to stderr.
func Setup(cfg config.ServerConfig) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
		tmpLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		tmpLogger.Warn("invalid log level configured, using default level",
			"configured_level", cfg.LogLevel,
			"default_level", "info")
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	log := slog.New(handler)
	slog.SetDefault(log)
	return log, nil
}

// WithRequestID adds a request ID to the logger in the context, returning a
// new context containing the enhanced logger.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	log := slog.Default().With(slog.String("request_id", requestID))
	return context.WithValue(ctx, loggerKey{}, log)
}

// FromContext retrieves a logger from the context, or returns the default
// logger if none is found.
func FromContext(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return log
	}
	return slog.Default()
}

// FromContextOrDefault retrieves a logger from the context, falling back to
// the provided default logger (rather than slog.Default()) if none is
// found. Components hold their own "component"-scoped logger as a default
// so that context-less calls still carry that field.
func FromContextOrDefault(ctx context.Context, def *slog.Logger) *slog.Logger {
	if log, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return log
	}
	return def
}
