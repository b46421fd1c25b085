// Package logger builds the structured loggers used across hoard.
//
// It extends log/slog with context-based attribute injection and optional
// Sentry error reporting.
//
// # Basic Usage
//
//	log := logger.New(logger.CacheExtractors()...)
//
//	ctx = logger.WithCacheName(ctx, "users")
//	ctx = logger.WithCacheKey(ctx, "user:123")
//	log.WarnContext(ctx, "background refresh failed", slog.Any("error", err))
//	// {"level":"WARN","msg":"background refresh failed","error":"...","cache":"users","cache_key":"user:123"}
//
// [NewWithConfig] selects the level, the format ("json" or "text") and the
// writer. [ParseLevel] turns configuration strings into levels.
//
// # Sentry Integration
//
//	log := logger.NewWithSentry(logger.SentryConfig{
//	    DSN:         os.Getenv("SENTRY_DSN"),
//	    Environment: "production",
//	    MinLevel:    slog.LevelWarn,
//	}, logger.CacheExtractors()...)
//	defer logger.Flush(2 * time.Second)
//
// Errors become Sentry issues; warnings are kept as searchable logs. With an
// empty DSN, or when the SDK fails to start, the logger writes to stdout only.
//
// # Context Extractors
//
// A [ContextExtractor] pulls one attribute out of the context on every log call.
// [LogHandlerDecorator] wraps any slog.Handler to apply them:
//
//	h := logger.NewLogHandlerDecorator(slog.NewTextHandler(os.Stderr, nil), extractors...)
//
// Library packages default to [NewNope], which discards everything.
package logger
