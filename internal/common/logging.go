// Package common holds small utilities shared by the stockplot packages.
package common

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger so components can depend on one concrete type.
type Logger struct {
	zerolog.Logger
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger returns a console logger on stderr at the given level.
func NewLogger(level string) *Logger {
	return NewLoggerWithOutput(level, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// NewLoggerWithOutput returns a JSON logger writing to w.
func NewLoggerWithOutput(level string, w io.Writer) *Logger {
	l := zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
	return &Logger{Logger: l}
}

// NewSilentLogger discards everything. Used by tests.
func NewSilentLogger() *Logger {
	return &Logger{Logger: zerolog.New(io.Discard)}
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) *Logger {
	if l == nil {
		return NewSilentLogger()
	}
	return &Logger{Logger: l.With().Str("component", name).Logger()}
}
