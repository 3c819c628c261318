package logger

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps charm/log for structured logging
type Logger struct {
	*log.Logger
}

// New creates a new logger with the given output
func New(w io.Writer) *Logger {
	return NewWithLevel(w, log.InfoLevel)
}

// NewWithLevel creates a logger with a specific level
func NewWithLevel(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
		Prefix:          "deck",
	})
	return &Logger{Logger: l}
}

// NewFromConfig creates a logger from a config level name such as "debug"
// or "warn". Unknown names fall back to info.
func NewFromConfig(w io.Writer, levelName string) *Logger {
	level, err := log.ParseLevel(levelName)
	if err != nil {
		level = log.InfoLevel
	}
	return NewWithLevel(w, level)
}

// Discard returns a logger that discards all output
func Discard() *Logger {
	return New(io.Discard)
}

// CardSaved logs a persisted card
func (l *Logger) CardSaved(id string, chars int) {
	l.Debug("card saved",
		"id", id,
		"chars", chars)
}

// PersistError logs a storage failure that the caller recovered from
func (l *Logger) PersistError(operation, key string, err error) {
	l.Warn("persistence failed",
		"operation", operation,
		"key", key,
		"error", err)
}

// RewriteRequested logs an outgoing rewrite call
func (l *Logger) RewriteRequested(id string, promptChars int) {
	l.Info("rewrite requested",
		"id", id,
		"prompt_chars", promptChars)
}

// RewriteFailed logs a failed rewrite
func (l *Logger) RewriteFailed(id string, err error) {
	l.Error("rewrite failed",
		"id", id,
		"error", err)
}

// ServerStarted logs a listening server
func (l *Logger) ServerStarted(kind, addr string) {
	l.Info("server started",
		"kind", kind,
		"addr", addr)
}
