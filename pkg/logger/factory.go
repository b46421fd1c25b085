package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects the stdout handler.
type Config struct {
	// Output defaults to os.Stdout.
	Output io.Writer
	// Format is "json" (default) or "text".
	Format string
	Level  slog.Level
}

// New creates a JSON-formatted logger at info level with optional context extractors.
func New(extractors ...ContextExtractor) *slog.Logger {
	return NewWithConfig(Config{Level: slog.LevelInfo}, extractors...)
}

// NewWithConfig creates a logger writing to cfg.Output in cfg.Format.
func NewWithConfig(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	return slog.New(NewLogHandlerDecorator(newHandler(cfg), extractors...))
}

func newHandler(cfg Config) slog.Handler {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}

// ParseLevel converts "debug", "info", "warn" or "error" (any case) to a level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, ErrInvalidLevel
	}
	return l, nil
}
