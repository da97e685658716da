package logging

import (
	"sync"

	"go.uber.org/zap/zapcore"
)

var (
	mu          sync.Mutex
	loggers     = make(map[string]*Logger)
	globalLevel = zapcore.InfoLevel
)

// GetLogger returns the named logger, creating it on first use. The same
// *Logger instance is returned for repeated calls with the same module name.
// Newly created loggers inherit whatever level was last set via
// SetGlobalLevel.
func GetLogger(module string) *Logger {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[module]; ok {
		return l
	}
	l := newLogger(module)
	l.SetLevel(globalLevel)
	loggers[module] = l
	return l
}

// SetGlobalLevel updates the minimum level of every logger created so far
// and every logger created afterwards. Used by pkg/config to apply the
// configured log level once at startup.
func SetGlobalLevel(level zapcore.Level) {
	mu.Lock()
	defer mu.Unlock()

	globalLevel = level
	for _, l := range loggers {
		l.SetLevel(level)
	}
}
