package health

import (
	"context"
	"fmt"
)

// Saturation is anything that knows its entry count and limit, such as
// cache.Cache or shard.Cache.
type Saturation interface {
	Len() int
	MaxEntries() int
}

// CacheCheck fails when c holds more than threshold of its entry limit.
// threshold is a fraction in (0, 1]; values outside that range mean 1, so the
// check only fails on a cache that is over its limit.
func CacheCheck(c Saturation, threshold float64) CheckFunc {
	if threshold <= 0 || threshold > 1 {
		threshold = 1
	}
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		limit := c.MaxEntries()
		if limit <= 0 {
			return nil
		}
		used := float64(c.Len()) / float64(limit)
		if used > threshold {
			return fmt.Errorf("%w: %d of %d entries", ErrSaturated, c.Len(), limit)
		}
		return nil
	}
}

// Usage is the fill level of one cache at the time of a readiness request.
type Usage struct {
	Entries int     `json:"entries"`
	Limit   int     `json:"limit,omitempty"`
	Ratio   float64 `json:"ratio,omitempty"`
}

func usageOf(c Saturation) Usage {
	u := Usage{Entries: c.Len(), Limit: c.MaxEntries()}
	if u.Limit > 0 {
		u.Ratio = float64(u.Entries) / float64(u.Limit)
	}
	return u
}

func usage(caches map[string]Saturation) map[string]Usage {
	if len(caches) == 0 {
		return nil
	}
	out := make(map[string]Usage, len(caches))
	for name, c := range caches {
		out[name] = usageOf(c)
	}
	return out
}
