// Package source provides origins that an in-process cache can sit in front of.
//
// A source is the slow side of a memoized lookup: the cache keeps values in
// process memory, the source is only asked on a miss or a background refresh.
//
//	client, err := redis.Open(ctx, os.Getenv("REDIS_URL"))
//	if err != nil {
//	    return err
//	}
//	users := source.NewRedis[User](client, nil, source.WithPrefix("users"))
//
//	lookup := memo.Wrap(users.Load,
//	    memo.WithTTL(time.Minute),
//	    memo.WithSWR(30*time.Second),
//	)
//	u, err := lookup.Call(ctx, "123")
//
// Values are decoded with a [Marshaler]; [JSON] is used when none is given and
// [Bytes] passes raw values through.
// A missing key is reported as [ErrNotFound].
package source
