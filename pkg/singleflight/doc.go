// Package singleflight deduplicates concurrent computations of the same key.
//
// While a computation for a key is running, further calls for that key join it
// and receive its result instead of starting another one:
//
//	var g singleflight.Group[string, *User]
//
//	u, err, shared := g.Do(ctx, "user:123", func(ctx context.Context) (*User, error) {
//	    return repo.FindUser(ctx, "123")
//	})
//
// The computation runs in its own goroutine with a context that keeps the
// caller's values but not its cancellation. A caller whose context is done
// stops waiting and gets ctx.Err(); the computation carries on for everyone
// else. Once it settles the key is released, so the next call starts fresh.
//
// Group is a typed layer over golang.org/x/sync/singleflight. Keys that are
// not strings are formatted with %#v before they reach it.
//
// A panic inside the computation is recovered and delivered to all waiters as
// an error wrapping [ErrPanic].
package singleflight
