// Package logger provides a thin wrapper around log/slog used by the probe
// and the CLI. Logs go to stderr so the report on stdout stays clean.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// DefaultLogger creates a text logger writing to standard error at Info level.
func DefaultLogger() *slog.Logger {
	return NewLogger(os.Stderr, &slog.HandlerOptions{
		Level:       slog.LevelInfo,
		ReplaceAttr: removeTime,
	})
}

// NewLogger creates a new slog.Logger with the specified output destination and options.
// A nil options value behaves like DefaultLogger's, minus the destination.
func NewLogger(out io.Writer, options *slog.HandlerOptions) *slog.Logger {
	if options == nil {
		options = &slog.HandlerOptions{Level: slog.LevelInfo, ReplaceAttr: removeTime}
	}
	return slog.New(slog.NewTextHandler(out, options))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// NewLeveled is NewLogger with the time attribute removed and the given level.
func NewLeveled(out io.Writer, level slog.Level) *slog.Logger {
	return NewLogger(out, &slog.HandlerOptions{Level: level, ReplaceAttr: removeTime})
}

// removeTime drops the top-level time attribute.
func removeTime(groups []string, attr slog.Attr) slog.Attr {
	if attr.Key == slog.TimeKey && len(groups) == 0 {
		return slog.Attr{}
	}
	return attr
}
