// Package logging wraps slog with the JSON output and level handling shared
// by every binary in this repo.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger embeds slog.Logger so call sites use the slog API directly.
type Logger struct {
	*slog.Logger
}

// New creates a JSON logger at the given level. Unrecognized levels fall back
// to info.
func New(level string) *Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter is New with an explicit destination, for tests.
func NewWithWriter(w io.Writer, level string) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return &Logger{Logger: slog.New(handler)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a logger carrying the given attributes on every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default returns an info-level logger. Constructors use it when a caller
// passes nil.
func Default() *Logger {
	return New("info")
}
