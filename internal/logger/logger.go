// Package logger provides structured logging for NutriChat.
// It uses Go's slog package with configurable levels and formats.
package logger

import (
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

// NewLogger creates a new slog Logger with the specified level and format
// and installs it as the process default. If jsonOutput is true, logs are
// formatted as JSON, otherwise as text.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	var level slog.Level
	switch levelStr {
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
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// Middleware creates a request-logging middleware for gin.
// It logs one line when a request arrives and one when it completes,
// escalating the completion line to warn or error for 4xx/5xx statuses.
func Middleware(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx := c.Request.Context()

		entry := log.With(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"client_ip", c.ClientIP(),
		)

		entry.InfoContext(ctx, "processing request")

		c.Next()

		status := c.Writer.Status()
		entry = entry.With(
			"status", status,
			"bytes", c.Writer.Size(),
			"duration", time.Since(startTime),
		)

		switch {
		case status >= 500:
			entry.ErrorContext(ctx, "finished request")
		case status >= 400:
			entry.WarnContext(ctx, "finished request")
		default:
			entry.InfoContext(ctx, "finished request")
		}
	}
}
