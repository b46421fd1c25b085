package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// SentryConfig configures NewWithSentry.
type SentryConfig struct {
	DSN         string
	Environment string
	// Release tags events with the running build.
	Release string
	// Stdout configures the local handler that always receives every record.
	Stdout Config
	// MinLevel is the lowest level kept as a Sentry log. Errors always become
	// Sentry issues. Default: info (the zero value).
	MinLevel slog.Level
}

// NewWithSentry returns a logger writing to stdout and to Sentry. Without a
// DSN, or when the SDK fails to start, it writes to stdout only. Extractors
// apply to both destinations.
func NewWithSentry(cfg SentryConfig, extractors ...ContextExtractor) *slog.Logger {
	stdout := newHandler(cfg.Stdout)
	if cfg.DSN == "" {
		return slog.New(NewLogHandlerDecorator(stdout, extractors...))
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		EnableLogs:  true,
	})
	if err != nil {
		slog.New(stdout).Error("sentry disabled", slog.Any("error", err))
		return slog.New(NewLogHandlerDecorator(stdout, extractors...))
	}

	remote := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   levelsFrom(cfg.MinLevel),
	}.NewSentryHandler(context.Background())

	return slog.New(NewLogHandlerDecorator(fanout{stdout, remote}, extractors...))
}

// levelsFrom lists the standard levels at or above min.
func levelsFrom(min slog.Level) []slog.Level {
	var out []slog.Level
	for _, l := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if l >= min {
			out = append(out, l)
		}
	}
	return out
}

// Flush waits up to timeout for buffered Sentry events to be sent.
// It is safe to call when Sentry was never initialized.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}
