package app

import (
	"log/slog"

	"github.com/go-co-op/gocron/v2"
)

// gocronLogger routes gocron's internal logging through slog so scheduler
// diagnostics land in the same stream as everything else.
type gocronLogger struct {
	log *slog.Logger
}

func newGocronLogger(log *slog.Logger) gocron.Logger {
	return gocronLogger{log: log}
}

func (l gocronLogger) Debug(msg string, args ...any) { l.log.Debug(msg, args...) }
func (l gocronLogger) Error(msg string, args ...any) { l.log.Error(msg, args...) }
func (l gocronLogger) Info(msg string, args ...any)  { l.log.Info(msg, args...) }
func (l gocronLogger) Warn(msg string, args ...any)  { l.log.Warn(msg, args...) }
