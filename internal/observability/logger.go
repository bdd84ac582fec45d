// Package observability unifies logging, metrics, and tracing behind
// the interfaces the rest of the repo depends on, so a component never
// imports zerolog, prometheus, or otel directly.
package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the logging contract every component depends on. The field
// map shape (rather than structured-logging builder chains) matches
// how call sites throughout this repo already pass contextual data.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Fatal(msg string, fields map[string]interface{})

	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	// WithPrefix returns a derived logger tagging every record with a
	// component name (e.g. "searchorchestrator").
	WithPrefix(prefix string) Logger
	// With returns a derived logger carrying fixed fields on every
	// record, used to bind requestId/tenantId for the life of a request.
	With(fields map[string]interface{}) Logger
}

type zeroLogger struct {
	logger zerolog.Logger
	prefix string
}

// NewLogger builds the process logger. level is one of
// debug|info|warn|error, defaulting to info for an unrecognized value.
func NewLogger(prefix, level string) Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	base := zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
	if prefix != "" {
		base = base.With().Str("component", prefix).Logger()
	}
	return &zeroLogger{logger: base, prefix: prefix}
}

func (l *zeroLogger) event(ev *zerolog.Event, msg string, fields map[string]interface{}) {
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *zeroLogger) Debug(msg string, fields map[string]interface{}) {
	l.event(l.logger.Debug(), msg, fields)
}

func (l *zeroLogger) Info(msg string, fields map[string]interface{}) {
	l.event(l.logger.Info(), msg, fields)
}

func (l *zeroLogger) Warn(msg string, fields map[string]interface{}) {
	l.event(l.logger.Warn(), msg, fields)
}

func (l *zeroLogger) Error(msg string, fields map[string]interface{}) {
	l.event(l.logger.Error(), msg, fields)
}

func (l *zeroLogger) Fatal(msg string, fields map[string]interface{}) {
	l.event(l.logger.Fatal(), msg, fields)
}

func (l *zeroLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

func (l *zeroLogger) Infof(format string, args ...interface{}) {
	l.logger.Info().Msgf(format, args...)
}

func (l *zeroLogger) Warnf(format string, args ...interface{}) {
	l.logger.Warn().Msgf(format, args...)
}

func (l *zeroLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msgf(format, args...)
}

func (l *zeroLogger) WithPrefix(prefix string) Logger {
	return &zeroLogger{logger: l.logger.With().Str("component", prefix).Logger(), prefix: prefix}
}

func (l *zeroLogger) With(fields map[string]interface{}) Logger {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &zeroLogger{logger: ctx.Logger(), prefix: l.prefix}
}

// NoopLogger discards everything; used in tests that don't assert on
// log output.
type NoopLogger struct{}

func (NoopLogger) Debug(string, map[string]interface{}) {}
func (NoopLogger) Info(string, map[string]interface{})  {}
func (NoopLogger) Warn(string, map[string]interface{})  {}
func (NoopLogger) Error(string, map[string]interface{}) {}
func (NoopLogger) Fatal(string, map[string]interface{}) {}
func (NoopLogger) Debugf(string, ...interface{})        {}
func (NoopLogger) Infof(string, ...interface{})         {}
func (NoopLogger) Warnf(string, ...interface{})         {}
func (NoopLogger) Errorf(string, ...interface{})        {}
func (NoopLogger) WithPrefix(string) Logger             { return NoopLogger{} }
func (NoopLogger) With(map[string]interface{}) Logger   { return NoopLogger{} }
