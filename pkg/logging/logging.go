// Package logging provides a thin structured logging facade used across
// tfscope. It exposes a Fields-based API so call sites stay decoupled from
// the underlying backend (zap).
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields is a map of structured log fields
type Fields map[string]any

// Logger is the logging interface used throughout the application
type Logger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(err error, msg string, fields ...Fields)
	WithFields(fields Fields) Logger
}

type zapLogger struct {
	base *zap.SugaredLogger
}

// NewDefaultLogger creates a logger with the default (info) level writing to stderr
func NewDefaultLogger() Logger {
	return NewLogger("info")
}

// NewLogger creates a logger with the given level (debug, info, warn, error)
func NewLogger(level string) Logger {
	lvl := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		lvl = parsed
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true

	base, err := cfg.Build()
	if err != nil {
		base = zap.NewNop()
	}
	return &zapLogger{base: base.Sugar()}
}

func (l *zapLogger) Debug(msg string, fields ...Fields) {
	l.base.Debugw(msg, flatten(fields)...)
}

func (l *zapLogger) Info(msg string, fields ...Fields) {
	l.base.Infow(msg, flatten(fields)...)
}

func (l *zapLogger) Warn(msg string, fields ...Fields) {
	l.base.Warnw(msg, flatten(fields)...)
}

func (l *zapLogger) Error(err error, msg string, fields ...Fields) {
	kv := flatten(fields)
	if err != nil {
		kv = append(kv, "error", err.Error())
	}
	l.base.Errorw(msg, kv...)
}

func (l *zapLogger) WithFields(fields Fields) Logger {
	return &zapLogger{base: l.base.With(flatten([]Fields{fields})...)}
}

func flatten(fields []Fields) []any {
	var kv []any
	for _, f := range fields {
		for k, v := range f {
			kv = append(kv, k, v)
		}
	}
	return kv
}

var defaultLogger = NewDefaultLogger()

// SetDefaultLogger replaces the package-level logger used by WithFields and Error
func SetDefaultLogger(l Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// WithFields returns a child of the package-level logger with the given fields attached
func WithFields(fields Fields) Logger {
	return defaultLogger.WithFields(fields)
}

// Error logs an error through the package-level logger
func Error(err error, msg string, fields ...Fields) {
	defaultLogger.Error(err, msg, fields...)
}
