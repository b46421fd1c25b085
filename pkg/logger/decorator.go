package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor pulls one attribute out of a context.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// LogHandlerDecorator runs context extractors on every record before passing
// it on. An extracted attribute is dropped when the record or the logger
// already carries the same top-level key, so logger.With("cache", name) wins
// over a cache name found in the context.
type LogHandlerDecorator struct {
	next       slog.Handler
	extractors []ContextExtractor
	// static holds top-level keys added with WithAttrs.
	static  map[string]struct{}
	grouped bool
}

// NewLogHandlerDecorator wraps next. Nil extractors are ignored.
func NewLogHandlerDecorator(next slog.Handler, extractors ...ContextExtractor) slog.Handler {
	var clean []ContextExtractor
	for _, ex := range extractors {
		if ex != nil {
			clean = append(clean, ex)
		}
	}
	return &LogHandlerDecorator{next: next, extractors: clean}
}

func (h *LogHandlerDecorator) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *LogHandlerDecorator) Handle(ctx context.Context, rec slog.Record) error {
	if len(h.extractors) == 0 {
		return h.next.Handle(ctx, rec)
	}

	var present map[string]struct{}
	if !h.grouped && rec.NumAttrs() > 0 {
		present = make(map[string]struct{}, rec.NumAttrs())
		rec.Attrs(func(a slog.Attr) bool {
			present[a.Key] = struct{}{}
			return true
		})
	}

	extra := make([]slog.Attr, 0, len(h.extractors))
	for _, ex := range h.extractors {
		attr, ok := ex(ctx)
		if !ok {
			continue
		}
		if _, dup := h.static[attr.Key]; dup {
			continue
		}
		if _, dup := present[attr.Key]; dup {
			continue
		}
		extra = append(extra, attr)
	}
	rec.AddAttrs(extra...)
	return h.next.Handle(ctx, rec)
}

func (h *LogHandlerDecorator) WithAttrs(attrs []slog.Attr) slog.Handler {
	static := h.static
	if !h.grouped {
		static = make(map[string]struct{}, len(h.static)+len(attrs))
		for k := range h.static {
			static[k] = struct{}{}
		}
		for _, a := range attrs {
			static[a.Key] = struct{}{}
		}
	}
	return &LogHandlerDecorator{
		next:       h.next.WithAttrs(attrs),
		extractors: h.extractors,
		static:     static,
		grouped:    h.grouped,
	}
}

// WithGroup nests later attributes, so extracted ones no longer collide with
// top-level keys.
func (h *LogHandlerDecorator) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &LogHandlerDecorator{
		next:       h.next.WithGroup(name),
		extractors: h.extractors,
		grouped:    true,
	}
}
