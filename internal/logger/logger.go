// Package logger provides structured JSON logging for econ-calendar.
//
// The logger supports multiple log levels (DEBUG, INFO, WARN, ERROR) and writes one
// JSON object per line through log/slog. Every entry carries a timestamp, level and
// message, plus optional structured fields and an error string.
//
// Example usage:
//
//	logger.Info("Chunk fetched", logger.Fields{
//	    "chunk": "2025-12-02..2025-12-02",
//	    "events": 41,
//	})
//
//	logger.Error("Session acquisition failed", logger.Fields{
//	    "target": "https://www.investing.com/economic-calendar/",
//	}, err)
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger provides structured logging
type Logger struct {
	base    Fields
	handler *slog.Logger
}

var defaultLogger = New(LevelInfo, os.Stderr)

// New creates a logger that writes JSON lines to output.
// Messages below the minimum level are discarded.
func New(level Level, output io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level:       level.slogLevel(),
		ReplaceAttr: replaceAttr,
	}
	return &Logger{
		handler: slog.New(slog.NewJSONHandler(output, opts)),
	}
}

// ParseLevel parses a level name such as "debug" or "WARN".
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO", "":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
}

// SetDefault sets the package-level logger used by Debug, Info, Warn and Error.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}

// Default returns the package-level logger.
func Default() *Logger {
	return defaultLogger
}

// With returns a logger that adds fields to every entry.
func (l *Logger) With(fields Fields) *Logger {
	merged := make(Fields, len(l.base)+len(fields))
	for k, v := range l.base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{base: merged, handler: l.handler}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// replaceAttr renames slog's built-in keys to the entry layout used by this package.
func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		return slog.String("timestamp", a.Value.Time().UTC().Format(time.RFC3339))
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

// log writes a structured log entry
func (l *Logger) log(level Level, message string, fields Fields, err error) {
	ctx := context.Background()
	if !l.handler.Enabled(ctx, level.slogLevel()) {
		return
	}

	var attrs []any
	if all := l.merge(fields); len(all) > 0 {
		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		group := make([]any, 0, len(keys))
		for _, k := range keys {
			group = append(group, slog.Any(k, all[k]))
		}
		attrs = append(attrs, slog.Group("fields", group...))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	l.handler.Log(ctx, level.slogLevel(), message, attrs...)
}

func (l *Logger) merge(fields Fields) Fields {
	if len(l.base) == 0 {
		return fields
	}
	merged := make(Fields, len(l.base)+len(fields))
	for k, v := range l.base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return merged
}

// Debug logs a debug message with optional structured fields.
func (l *Logger) Debug(message string, fields Fields) {
	l.log(LevelDebug, message, fields, nil)
}

// Info logs an informational message with optional structured fields.
func (l *Logger) Info(message string, fields Fields) {
	l.log(LevelInfo, message, fields, nil)
}

// Warn logs a warning message with optional structured fields.
func (l *Logger) Warn(message string, fields Fields) {
	l.log(LevelWarn, message, fields, nil)
}

// Error logs an error message with optional structured fields and an error object.
func (l *Logger) Error(message string, fields Fields, err error) {
	l.log(LevelError, message, fields, err)
}

// Package-level convenience functions using default logger

// Debug logs a debug message with the default logger
func Debug(message string, fields Fields) {
	defaultLogger.Debug(message, fields)
}

// Info logs an info message with the default logger
func Info(message string, fields Fields) {
	defaultLogger.Info(message, fields)
}

// Warn logs a warning message with the default logger
func Warn(message string, fields Fields) {
	defaultLogger.Warn(message, fields)
}

// Error logs an error message with the default logger
func Error(message string, fields Fields, err error) {
	defaultLogger.Error(message, fields, err)
}
