// Package logging provides a thin, zap-backed logger used by every package
// in this module so that log output stays structurally consistent: one JSON
// (or, in development, console) line per event, tagged with the emitting
// module, the acting component, and the action being performed.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	fieldModule = "module"
	fieldActor  = "actor"
	fieldAction = "action"

	defaultActor  = "sys"
	defaultAction = "unk"
)

// Logger wraps a *zap.Logger with the module/actor/action tagging convention
// used throughout this repository.
type Logger struct {
	module string
	logger *zap.Logger
	level  zapcore.Level
	writer io.Writer
}

func newLogger(module string) *Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	var encoder zapcore.Encoder
	switch os.Getenv("LOG_FORMATTER") {
	case "text":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	l := &Logger{module: module, level: zapcore.InfoLevel}
	enabler := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl >= l.level })
	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), enabler)

	opts := []zap.Option{zap.AddCallerSkip(1)}
	if os.Getenv("LOG_REPORT_CALLER") != "" {
		opts = append(opts, zap.AddCaller())
	}

	l.logger = zap.New(core, opts...)
	return l
}

// IsDebugEnabled reports whether debug-level logging is active. Callers
// should guard expensive debug-argument computation with this rather than
// relying on the logger to discard the work after the fact.
func (l *Logger) IsDebugEnabled() bool {
	return l.level <= zapcore.DebugLevel
}

// SetLevel changes the minimum level this logger emits.
func (l *Logger) SetLevel(level zapcore.Level) {
	l.level = level
}

func (l *Logger) fields(actor, action string, kv []interface{}) []zap.Field {
	if actor == "" {
		actor = defaultActor
	}
	if action == "" {
		action = defaultAction
	}
	fields := make([]zap.Field, 0, 3+len(kv)/2)
	fields = append(fields, zap.String(fieldModule, l.module), zap.String(fieldActor, actor), zap.String(fieldAction, action))
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		fields = append(fields, zap.Any(key, kv[i+1]))
	}
	return fields
}

// Debug logs a debug-level event for the given actor/action pair.
func (l *Logger) Debug(actor, action, msg string, kv ...interface{}) {
	l.logger.Debug(msg, l.fields(actor, action, kv)...)
}

// Info logs an info-level event for the given actor/action pair.
func (l *Logger) Info(actor, action, msg string, kv ...interface{}) {
	l.logger.Info(msg, l.fields(actor, action, kv)...)
}

// Warn logs a warn-level event for the given actor/action pair.
func (l *Logger) Warn(actor, action, msg string, kv ...interface{}) {
	l.logger.Warn(msg, l.fields(actor, action, kv)...)
}

// Error logs an error-level event for the given actor/action pair.
func (l *Logger) Error(actor, action, msg string, kv ...interface{}) {
	l.logger.Error(msg, l.fields(actor, action, kv)...)
}
