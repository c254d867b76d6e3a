package app

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Logger interface for app layer
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

// stderrLogger writes leveled lines to a writer, dropping entries
// below its configured threshold
type stderrLogger struct {
	output io.Writer
	min    level
}

// NewLogger creates a logger writing to stderr at the given minimum
// level ("debug", "info", "warn", "error"; unknown values mean info)
func NewLogger(minLevel string) Logger {
	return &stderrLogger{output: os.Stderr, min: parseLevel(minLevel)}
}

// NewLoggerWithWriter creates a logger with a custom writer, used in tests
func NewLoggerWithWriter(w io.Writer, minLevel string) Logger {
	return &stderrLogger{output: w, min: parseLevel(minLevel)}
}

func parseLevel(s string) level {
	switch strings.ToLower(s) {
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (l *stderrLogger) log(lv level, prefix, format string, args ...interface{}) {
	if lv < l.min {
		return
	}
	fmt.Fprintf(l.output, prefix+": "+format+"\n", args...)
}

func (l *stderrLogger) Debug(format string, args ...interface{}) {
	l.log(levelDebug, "DEBUG", format, args...)
}

func (l *stderrLogger) Info(format string, args ...interface{}) {
	l.log(levelInfo, "INFO", format, args...)
}

func (l *stderrLogger) Warn(format string, args ...interface{}) {
	l.log(levelWarn, "WARN", format, args...)
}

func (l *stderrLogger) Error(format string, args ...interface{}) {
	l.log(levelError, "ERROR", format, args...)
}

// NopLogger discards everything; default for library callers that
// do not care about diagnostics
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
