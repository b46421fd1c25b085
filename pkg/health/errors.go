package health

import "errors"

var (
	// ErrCheckTimeout is reported when a check does not finish in time.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrSaturated is reported by CacheCheck when a cache is too full.
	ErrSaturated = errors.New("health: cache saturated")
)
