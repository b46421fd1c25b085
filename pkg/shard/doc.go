// Package shard spreads string keys over several independent caches so that
// unrelated keys do not contend on one mutex.
//
// A key always lands on the same shard: the shard index is the murmur3 hash of
// the key modulo the shard count. Every option passed to [New] applies to each
// shard, so limits such as cache.WithMaxEntries bound a single shard, and LRU
// order is per shard.
//
//	c := shard.New[[]byte](16,
//	    cache.WithMaxEntries(4096),
//	    cache.WithStats(),
//	)
//	defer c.Close()
//
//	_ = c.Set("user:1", data, cache.WithTTL(time.Minute))
//	v, ok := c.Get("user:1")
//
// Len, TotalSize and Stats aggregate over all shards.
package shard
