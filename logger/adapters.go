package logger

import (
	"strings"

	"github.com/robfig/cron/v3"
)

// CronLogger routes cron's logging into Logger. Scheduler chatter goes to
// debug; errors, including recovered job panics, go to error.
type CronLogger struct{}

var _ cron.Logger = CronLogger{}

func (CronLogger) Info(msg string, keysAndValues ...interface{}) {
	Logger.Debug().Str("component", "cron").Fields(keysAndValues).Msg(msg)
}

func (CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	Logger.Error().Err(err).Str("component", "cron").Fields(keysAndValues).Msg(msg)
}

// GormWriter is the gorm logger writer. gorm only writes what passes its own
// level filter (warnings, errors, slow queries), so every line is a warning.
type GormWriter struct{}

func (GormWriter) Printf(format string, args ...interface{}) {
	Logger.Warn().Str("component", "gorm").Msgf(strings.TrimSpace(format), args...)
}
