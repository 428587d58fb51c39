package logging

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"
)

const (
	LEVEL_INFO  = 0
	LEVEL_DEBUG = 1
	LEVEL_TRACE = 2
)

// ParseLevel converts a level name (info, debug, trace) into a verbosity.
func ParseLevel(name string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return LEVEL_INFO, nil
	case "debug":
		return LEVEL_DEBUG, nil
	case "trace":
		return LEVEL_TRACE, nil
	default:
		return LEVEL_INFO, fmt.Errorf("unknown log level %q", name)
	}
}

// NewLogger creates a new Logger instance with the given configuration
func NewLogger(log logr.Logger) *Logger {
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &Logger{log: log}
}

// DefaultLogger returns a Logger which discards everything.
func DefaultLogger() *Logger {
	return &Logger{log: logr.Discard()}
}

// OrDefault returns l, or the discarding logger when l is nil.
func OrDefault(l *Logger) *Logger {
	if l == nil {
		return DefaultLogger()
	}
	return l
}

// Logger is a struct that wraps the logr.Logger interface.
type Logger struct {
	log logr.Logger
}

// Logr returns the underlying logr.Logger.
func (l *Logger) Logr() logr.Logger {
	return l.log
}

// WithName returns a Logger with an additional name element (joined with ".").
func (l *Logger) WithName(name string) *Logger {
	return &Logger{log: l.log.WithName(name)}
}

// WithValues returns a Logger which adds the key/value pairs to every message.
func (l *Logger) WithValues(keysAndValues ...interface{}) *Logger {
	return &Logger{log: l.log.WithValues(keysAndValues...)}
}

// DebugEnabled is used to skip expensive message construction.
func (l *Logger) DebugEnabled() bool {
	return l.log.V(LEVEL_DEBUG).Enabled()
}

// Log methods (minimizing footprint in the rest of the library)
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.V(LEVEL_DEBUG).Info(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info(msg, keysAndValues...)
}

func (l *Logger) Trace(msg string, keysAndValues ...interface{}) {
	l.log.V(LEVEL_TRACE).Info(msg, keysAndValues...)
}

func (l *Logger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(err, msg, keysAndValues...)
}
