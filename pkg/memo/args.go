package memo

import "context"

// ArgsFunc is a memoized variadic function. Its key is derived from all
// arguments with Key unless WithKeyer(func([]any) string) is set.
type ArgsFunc[V any] struct {
	*Func[[]any, V]
}

// WrapArgs memoizes a function taking any number of arguments.
//
//	price := memo.WrapArgs(func(ctx context.Context, args ...any) (float64, error) {
//	    return quotes.Price(ctx, args[0].(string), args[1].(string))
//	}, memo.WithTTL(10*time.Second))
//
//	p, err := price.Call(ctx, "EUR", "USD")
func WrapArgs[V any](fn func(ctx context.Context, args ...any) (V, error), opts ...Option) *ArgsFunc[V] {
	if fn == nil {
		panic(ErrNilFunc)
	}

	opts = append([]Option{WithKeyer(func(args []any) string { return Key(args...) })}, opts...)
	inner := Wrap(func(ctx context.Context, args []any) (V, error) {
		return fn(ctx, args...)
	}, opts...)

	return &ArgsFunc[V]{Func: inner}
}

// Call returns the memoized result for args.
func (f *ArgsFunc[V]) Call(ctx context.Context, args ...any) (V, error) {
	return f.Func.Call(ctx, args)
}

// Delete drops the memoized result for args.
func (f *ArgsFunc[V]) Delete(args ...any) bool {
	return f.Func.Delete(args)
}

// Key returns the cache key used for args.
func (f *ArgsFunc[V]) Key(args ...any) string {
	return f.Func.Key(args)
}
