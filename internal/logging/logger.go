// Package logging wraps the standard log.Logger with the leveled output
// every Ralph component shares.
package logging

import (
	"io"
	"log"
	"strings"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is a leveled printf-style logger. The zero value is unusable; use
// New or Nop.
type Logger struct {
	logger *log.Logger
	level  Level
}

func New(w io.Writer, level Level) *Logger {
	return &Logger{
		logger: log.New(w, "", log.LstdFlags),
		level:  level,
	}
}

// Nop returns a logger that discards all output. Used as the default when a
// component is constructed without one.
func Nop() *Logger {
	return New(io.Discard, LevelError+1)
}

// OrNop returns l when non-nil, otherwise a no-op logger.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}

func (l *Logger) Debug(format string, args ...any) { l.logf(LevelDebug, "DEBUG", format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.logf(LevelInfo, "INFO", format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.logf(LevelWarn, "WARN", format, args...) }
func (l *Logger) Error(format string, args ...any) { l.logf(LevelError, "ERROR", format, args...) }

func (l *Logger) logf(level Level, tag, format string, args ...any) {
	if level < l.level {
		return
	}
	l.logger.Printf("["+tag+"] "+format, args...)
}
