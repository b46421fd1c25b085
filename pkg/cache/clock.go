package cache

import "time"

// Clock provides the current time to the cache.
// The default implementation uses time.Now().
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns the wall clock used when no Clock is configured.
func SystemClock() Clock { return realClock{} }
