package logger

import (
	"context"
	"fmt"
	"log/slog"
)

type (
	cacheKeyCtx  struct{}
	cacheNameCtx struct{}
)

// WithCacheKey stores the cache key being worked on in ctx.
func WithCacheKey(ctx context.Context, key any) context.Context {
	return context.WithValue(ctx, cacheKeyCtx{}, key)
}

// WithCacheName stores the name of the cache being worked on in ctx.
func WithCacheName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, cacheNameCtx{}, name)
}

// CacheKeyExtractor adds "cache_key" to records logged with a context from
// WithCacheKey.
func CacheKeyExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		key := ctx.Value(cacheKeyCtx{})
		if key == nil {
			return slog.Attr{}, false
		}
		if s, ok := key.(string); ok {
			return slog.String("cache_key", s), true
		}
		return slog.String("cache_key", fmt.Sprint(key)), true
	}
}

// CacheNameExtractor adds "cache" to records logged with a context from
// WithCacheName.
func CacheNameExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if name, ok := ctx.Value(cacheNameCtx{}).(string); ok && name != "" {
			return slog.String("cache", name), true
		}
		return slog.Attr{}, false
	}
}

// CacheExtractors returns the extractors for every cache context value.
func CacheExtractors() []ContextExtractor {
	return []ContextExtractor{CacheNameExtractor(), CacheKeyExtractor()}
}
