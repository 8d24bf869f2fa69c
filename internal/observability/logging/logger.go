// Package logging provides structured logging utilities using the standard
// library's log/slog package. It offers helper functions for creating loggers
// with consistent configuration and context propagation.
package logging

import (
	"context"
	"log/slog"
	"os"
)

type contextKey string

const loggerContextKey contextKey = "logger"

// NewLogger creates a new structured logger with JSON output.
// The log level can be controlled via the LOG_LEVEL environment variable.
// Supported levels: debug, info, warn, error. Default level: info.
func NewLogger() *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     levelFromEnv(),
		AddSource: levelFromEnv() <= slog.LevelWarn,
	})
	return slog.New(handler)
}

// NewTextLogger creates a new structured logger with human-readable text
// output, useful for local development and debugging.
func NewTextLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     levelFromEnv(),
		AddSource: levelFromEnv() <= slog.LevelWarn,
	})
	return slog.New(handler)
}

func levelFromEnv() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// FromContext retrieves the logger from the context, or returns the default
// logger if not found.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
