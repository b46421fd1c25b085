// Package metrics exports cache statistics to Prometheus.
//
// A [Collector] reads [cache.StatsSnapshot] values on every scrape, so it
// costs nothing between scrapes and never double counts. Any type with Name
// and Stats methods can be added, which covers cache.Cache, shard.Cache and
// the cache behind a memo.Func.
//
//	users := cache.New[string, *User](cache.WithName("users"), cache.WithStats())
//	col := metrics.NewCollector("hoard", users)
//
//	http.Handle("/metrics", metrics.Handler(col))
//
// Counters are only meaningful for caches built with cache.WithStats (or a
// recorder that exposes Snapshot). Entries and size are always exported.
package metrics
