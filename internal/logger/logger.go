// Package logger wraps rs/zerolog the way the teacher's internal/logger
// does: a package-level logger configured once at startup, accessed through
// small helpers instead of threading a *zerolog.Logger through every call.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

// Init configures the global logger. pretty selects a human-readable
// console writer instead of JSON, for local/dev use.
func Init(level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(lvl)

	var output io.Writer = os.Stdout
	if pretty {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	log = zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()
}

// Get returns the global logger.
func Get() *zerolog.Logger {
	return &log
}

func WithComponent(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

func WithSchedule(scheduleID string) zerolog.Logger {
	return log.With().Str("schedule_id", scheduleID).Logger()
}

func WithQueue(queueID string) zerolog.Logger {
	return log.With().Str("queue_id", queueID).Logger()
}

func WithTaskID(taskID string) zerolog.Logger {
	return log.With().Str("task_id", taskID).Logger()
}

func Debug() *zerolog.Event { return log.Debug() }
func Info() *zerolog.Event  { return log.Info() }
func Warn() *zerolog.Event  { return log.Warn() }
func Error() *zerolog.Event { return log.Error() }
func Fatal() *zerolog.Event { return log.Fatal() }
