package cache_test

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/dmitrymomot/hoard/pkg/cache"
	"github.com/dmitrymomot/hoard/pkg/events"
)

type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// CacheSuite runs the cache contract against one storage layout.
type CacheSuite struct {
	suite.Suite
	clock  *fakeClock
	layout cache.Layout
}

func TestCache_Nodes(t *testing.T) {
	t.Parallel()
	suite.Run(t, &CacheSuite{layout: cache.LayoutNodes})
}

func TestCache_Flat(t *testing.T) {
	t.Parallel()
	suite.Run(t, &CacheSuite{layout: cache.LayoutFlat})
}

func (s *CacheSuite) SetupTest() {
	s.clock = newFakeClock()
}

func (s *CacheSuite) newCache(opts ...cache.Option) *cache.Cache[string, int] {
	opts = append([]cache.Option{cache.WithLayout(s.layout), cache.WithClock(s.clock)}, opts...)
	c := cache.New[string, int](opts...)
	s.T().Cleanup(func() { _ = c.Close() })
	return c
}

func (s *CacheSuite) TestGetSet() {
	c := s.newCache()

	_, ok := c.Get("missing")
	s.False(ok)

	s.Require().NoError(c.Set("a", 1))
	v, ok := c.Get("a")
	s.True(ok)
	s.Equal(1, v)
	s.Equal(1, c.Len())
}

func (s *CacheSuite) TestAbsoluteTTL() {
	c := s.newCache()

	s.Require().NoError(c.Set("a", 1, cache.WithTTL(100*time.Millisecond)))

	s.clock.Advance(50 * time.Millisecond)
	_, ok := c.Get("a")
	s.True(ok, "present before deadline")

	s.clock.Advance(100 * time.Millisecond)
	_, ok = c.Get("a")
	s.False(ok, "absent after deadline")
	s.Zero(c.Len(), "expired entry is removed on lookup")
}

func (s *CacheSuite) TestAbsoluteTTLIsNotExtendedByReads() {
	c := s.newCache()

	s.Require().NoError(c.Set("a", 1, cache.WithTTL(100*time.Millisecond)))
	for range 9 {
		s.clock.Advance(10 * time.Millisecond)
		_, ok := c.Get("a")
		s.True(ok)
	}

	s.clock.Advance(10 * time.Millisecond)
	_, ok := c.Get("a")
	s.False(ok)
}

func (s *CacheSuite) TestSlidingTTL() {
	c := s.newCache()

	s.Require().NoError(c.Set("a", 1, cache.WithSlidingTTL(100*time.Millisecond)))

	s.clock.Advance(90 * time.Millisecond)
	_, ok := c.Get("a")
	s.True(ok)

	s.clock.Advance(60 * time.Millisecond) // t=150, 60ms since last read
	_, ok = c.Get("a")
	s.True(ok)

	s.clock.Advance(100 * time.Millisecond) // t=250, 100ms since last read
	_, ok = c.Get("a")
	s.False(ok)
}

func (s *CacheSuite) TestSlidingTTLNotRenewedByPeek() {
	c := s.newCache()

	s.Require().NoError(c.Set("a", 1, cache.WithSlidingTTL(100*time.Millisecond)))

	s.clock.Advance(90 * time.Millisecond)
	s.True(c.Has("a"))
	_, ok := c.Peek("a")
	s.True(ok)

	s.clock.Advance(10 * time.Millisecond)
	s.False(c.Has("a"))
	s.Zero(c.Len())
}

func (s *CacheSuite) TestSlidingAndAbsoluteTTL() {
	c := s.newCache()

	s.Require().NoError(c.Set("a", 1,
		cache.WithTTL(150*time.Millisecond),
		cache.WithSlidingTTL(100*time.Millisecond),
	))

	s.clock.Advance(80 * time.Millisecond)
	_, ok := c.Get("a")
	s.True(ok)

	s.clock.Advance(80 * time.Millisecond) // sliding still fine, absolute reached
	_, ok = c.Get("a")
	s.False(ok)
}

func (s *CacheSuite) TestShortTTLScenario() {
	c := s.newCache()

	s.Require().NoError(c.Set("a", 1, cache.WithTTL(10*time.Millisecond)))

	s.clock.Advance(5 * time.Millisecond)
	v, ok := c.Get("a")
	s.True(ok)
	s.Equal(1, v)

	s.clock.Advance(15 * time.Millisecond)
	_, ok = c.Get("a")
	s.False(ok)
}

func (s *CacheSuite) TestEvictsLeastRecentlyUsed() {
	c := s.newCache(cache.WithMaxEntries(2))

	s.Require().NoError(c.Set("a", 1))
	s.Require().NoError(c.Set("b", 2))
	s.Require().NoError(c.Set("c", 3))

	s.False(c.Has("a"))
	s.True(c.Has("b"))
	s.True(c.Has("c"))
	s.Equal(2, c.Len())
}

func (s *CacheSuite) TestGetPromotes() {
	c := s.newCache(cache.WithMaxEntries(2))

	s.Require().NoError(c.Set("a", 1))
	s.Require().NoError(c.Set("b", 2))
	_, _ = c.Get("a")
	s.Require().NoError(c.Set("c", 3))

	s.True(c.Has("a"))
	s.False(c.Has("b"))
	s.Equal([]string{"c", "a"}, c.Keys())
}

func (s *CacheSuite) TestPeekDoesNotPromote() {
	c := s.newCache(cache.WithMaxEntries(2))

	s.Require().NoError(c.Set("a", 1))
	s.Require().NoError(c.Set("b", 2))
	_, _ = c.Peek("a")
	s.True(c.Has("a"))
	s.Require().NoError(c.Set("c", 3))

	s.False(c.Has("a"))
	s.Equal([]string{"c", "b"}, c.Keys())
}

func (s *CacheSuite) TestUpdateInPlace() {
	c := s.newCache(cache.WithMaxEntries(3))

	s.Require().NoError(c.Set("a", 1, cache.WithSize(10)))
	s.Require().NoError(c.Set("b", 2, cache.WithSize(5)))
	s.Require().NoError(c.Set("a", 11, cache.WithSize(4)))

	v, ok := c.Peek("a")
	s.True(ok)
	s.Equal(11, v)
	s.Equal(2, c.Len())
	s.Equal(int64(9), c.TotalSize())
	s.Equal([]string{"a", "b"}, c.Keys())
}

func (s *CacheSuite) TestUpdateResetsExpiry() {
	c := s.newCache()

	s.Require().NoError(c.Set("a", 1, cache.WithTTL(10*time.Millisecond)))
	s.clock.Advance(8 * time.Millisecond)
	s.Require().NoError(c.Set("a", 2))

	s.clock.Advance(time.Hour)
	v, ok := c.Get("a")
	s.True(ok)
	s.Equal(2, v)
}

func (s *CacheSuite) TestMaxSizeEviction() {
	c := s.newCache(cache.WithMaxSize(10))

	s.Require().NoError(c.Set("a", 1, cache.WithSize(4)))
	s.Require().NoError(c.Set("b", 2, cache.WithSize(4)))
	s.Require().NoError(c.Set("c", 3, cache.WithSize(4)))

	s.False(c.Has("a"))
	s.Equal(int64(8), c.TotalSize())

	// Growing b in place pushes out the tail, never b itself.
	s.Require().NoError(c.Set("b", 2, cache.WithSize(9)))
	s.Equal([]string{"b"}, c.Keys())
	s.Equal(int64(9), c.TotalSize())
}

func (s *CacheSuite) TestTooLarge() {
	c := s.newCache(cache.WithMaxSize(10))

	s.Require().NoError(c.Set("a", 1, cache.WithSize(3)))
	s.Require().NoError(c.Set("b", 2, cache.WithSize(3)))

	err := c.Set("a", 1, cache.WithSize(11))
	s.Require().ErrorIs(err, cache.ErrTooLarge)
	s.False(c.Has("a"))
	s.True(c.Has("b"))
	s.Equal(int64(3), c.TotalSize())
}

func (s *CacheSuite) TestDefaultTTL() {
	c := s.newCache(cache.WithDefaultTTL(100 * time.Millisecond))

	s.Require().NoError(c.Set("default", 1))
	s.Require().NoError(c.Set("forever", 2, cache.WithTTL(-1)))
	s.Require().NoError(c.Set("short", 3, cache.WithTTL(10*time.Millisecond)))

	s.clock.Advance(50 * time.Millisecond)
	s.True(c.Has("default"))
	s.False(c.Has("short"))

	s.clock.Advance(time.Hour)
	s.False(c.Has("default"))
	s.True(c.Has("forever"))
}

func (s *CacheSuite) TestInsertSweepsExpiredTail() {
	c := s.newCache()

	s.Require().NoError(c.Set("old", 1, cache.WithTTL(time.Millisecond)))
	s.clock.Advance(time.Second)
	s.Equal(1, c.Len(), "expiry is lazy")

	s.Require().NoError(c.Set("new", 2))
	s.Equal([]string{"new"}, c.Keys())
}

func (s *CacheSuite) TestSweep() {
	c := s.newCache()

	for i := range 3 {
		s.Require().NoError(c.Set(fmt.Sprint(i), i, cache.WithTTL(10*time.Millisecond)))
	}
	s.Require().NoError(c.Set("keep", 9))

	s.Zero(c.Sweep())
	s.clock.Advance(20 * time.Millisecond)
	s.Equal(3, c.Sweep())
	s.Equal([]string{"keep"}, c.Keys())
}

func (s *CacheSuite) TestDelete() {
	c := s.newCache()

	s.Require().NoError(c.Set("a", 1, cache.WithSize(7)))
	s.True(c.Delete("a"))
	s.False(c.Delete("a"))
	s.Zero(c.Len())
	s.Zero(c.TotalSize())
}

func (s *CacheSuite) TestClear() {
	c := s.newCache(cache.WithMaxEntries(4))

	for i := range 4 {
		s.Require().NoError(c.Set(fmt.Sprint(i), i, cache.WithSize(2)))
	}
	c.Clear()
	s.Zero(c.Len())
	s.Zero(c.TotalSize())
	s.Empty(c.Keys())

	for i := range 4 {
		s.Require().NoError(c.Set(fmt.Sprint(i), i))
	}
	s.Equal(4, c.Len())
}

func (s *CacheSuite) TestCapacityInvariant() {
	const maxEntries, maxSize = 16, 100
	c := s.newCache(cache.WithMaxEntries(maxEntries), cache.WithMaxSize(maxSize))

	rng := rand.New(rand.NewPCG(1, 2))
	sizes := make(map[string]int64)

	for i := range 5000 {
		key := fmt.Sprint(rng.IntN(64))
		switch rng.IntN(10) {
		case 0:
			c.Delete(key)
		case 1, 2, 3:
			_, _ = c.Get(key)
		case 4:
			s.clock.Advance(time.Millisecond)
		default:
			size := int64(rng.IntN(20) + 1)
			var opts []cache.SetOption
			opts = append(opts, cache.WithSize(size))
			if rng.IntN(3) == 0 {
				opts = append(opts, cache.WithTTL(time.Duration(rng.IntN(20)+1)*time.Millisecond))
			}
			s.Require().NoError(c.Set(key, i, opts...))
			sizes[key] = size
		}

		keys := c.Keys()
		s.Require().LessOrEqual(len(keys), maxEntries)
		s.Require().Equal(len(keys), c.Len())

		var sum int64
		for _, k := range keys {
			sum += sizes[k]
		}
		s.Require().Equal(sum, c.TotalSize())
		s.Require().LessOrEqual(sum, int64(maxSize))
	}
}

func (s *CacheSuite) TestChurnRecyclesSlots() {
	c := s.newCache(cache.WithMaxEntries(8))

	s.Require().NotPanics(func() {
		for i := range 1000 {
			s.Require().NoError(c.Set(fmt.Sprint(i), i))
			if i%3 == 0 {
				c.Delete(fmt.Sprint(i - 1))
			}
		}
	})
	s.LessOrEqual(c.Len(), 8)
	v, ok := c.Get("999")
	s.True(ok)
	s.Equal(999, v)
}

func (s *CacheSuite) TestStats() {
	c := s.newCache(cache.WithStats(), cache.WithMaxEntries(2))

	s.Require().NoError(c.Set("a", 1, cache.WithSize(3)))
	s.Require().NoError(c.Set("b", 2, cache.WithSize(5), cache.WithTTL(time.Millisecond)))
	_, _ = c.Get("a")
	_, _ = c.Get("nope")
	s.clock.Advance(time.Second)
	_, _ = c.Get("b")
	s.Require().NoError(c.Set("c", 3, cache.WithSize(1)))
	s.Require().NoError(c.Set("d", 4, cache.WithSize(1)))
	c.Delete("d")

	st := c.Stats()
	s.Equal(int64(1), st.Hits)
	s.Equal(int64(2), st.Misses)
	s.Equal(int64(4), st.Sets)
	s.Equal(int64(1), st.Expirations)
	s.Equal(int64(1), st.Evictions)
	s.Equal(int64(1), st.Deletes)
	s.Equal(1, st.Entries)
	s.Equal(int64(1), st.TotalSize)
	s.InDelta(1.0/3.0, st.HitRate(), 1e-9)
	s.InDelta(1.0, st.AvgSize(), 1e-9)
}

func (s *CacheSuite) TestEvents() {
	bus := events.NewBus()
	var got []events.Type
	bus.SubscribeAll(func(ev events.Event) {
		got = append(got, ev.Type)
	})

	c := s.newCache(cache.WithEvents(bus), cache.WithMaxEntries(1), cache.WithName("test"))

	s.Require().NoError(c.Set("a", 1, cache.WithTTL(time.Millisecond)))
	_, _ = c.Get("a")
	s.clock.Advance(time.Second)
	_, _ = c.Get("a")
	s.Require().NoError(c.Set("b", 2))
	s.Require().NoError(c.Set("c", 3))
	c.Delete("c")
	c.Clear()

	s.Equal([]events.Type{
		events.Set, events.Hit,
		events.Expire, events.Miss,
		events.Set,
		events.Evict, events.Set,
		events.Delete,
		events.Clear,
	}, got)
}

func (s *CacheSuite) TestListenersCannotBreakCache() {
	bus := events.NewBus()
	bus.Subscribe(events.Set, func(events.Event) { panic("boom") })

	c := s.newCache(cache.WithEvents(bus), cache.WithStatsRecorder(panickingRecorder{}))

	s.Require().NotPanics(func() {
		s.Require().NoError(c.Set("a", 1))
		_, _ = c.Get("a")
	})
	s.Equal(1, c.Len())
}

func (s *CacheSuite) TestListenerMayCallBack() {
	bus := events.NewBus()
	c := s.newCache(cache.WithEvents(bus), cache.WithMaxEntries(1))

	var lens []int
	bus.Subscribe(events.Evict, func(ev events.Event) {
		lens = append(lens, c.Len())
		_, _ = c.Peek(ev.Key.(string))
	})

	s.Require().NoError(c.Set("a", 1))
	s.Require().NoError(c.Set("b", 2))
	s.Equal([]int{1}, lens)
}

func (s *CacheSuite) TestClose() {
	c := s.newCache()

	s.Require().NoError(c.Set("a", 1))
	s.Require().NoError(c.Close())
	s.Require().NoError(c.Close())

	s.Require().ErrorIs(c.Set("b", 2), cache.ErrClosed)
	v, ok := c.Get("a")
	s.True(ok)
	s.Equal(1, v)
}

type panickingRecorder struct{}

func (panickingRecorder) RecordHit()        { panic("hit") }
func (panickingRecorder) RecordMiss()       { panic("miss") }
func (panickingRecorder) RecordSet()        { panic("set") }
func (panickingRecorder) RecordDelete()     { panic("delete") }
func (panickingRecorder) RecordEviction()   { panic("eviction") }
func (panickingRecorder) RecordExpiration() { panic("expiration") }

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("custom sizer", func(t *testing.T) {
		t.Parallel()

		c := cache.New[string, []byte](cache.WithSizer(func(b []byte) int64 { return int64(len(b)) }))
		defer c.Close()

		require.NoError(t, c.Set("a", make([]byte, 10)))
		require.NoError(t, c.Set("b", make([]byte, 5)))
		require.Equal(t, int64(15), c.TotalSize())
	})

	t.Run("explicit size wins over sizer", func(t *testing.T) {
		t.Parallel()

		c := cache.New[string, []byte](cache.WithSizer(func(b []byte) int64 { return int64(len(b)) }))
		defer c.Close()

		require.NoError(t, c.Set("a", make([]byte, 10), cache.WithSize(1)))
		require.Equal(t, int64(1), c.TotalSize())
	})

	t.Run("default sizer estimates structure", func(t *testing.T) {
		t.Parallel()

		c := cache.New[string, string]()
		defer c.Close()

		require.NoError(t, c.Set("a", "hello"))
		require.Equal(t, cache.EstimateSize("hello"), c.TotalSize())
	})

	t.Run("mismatched sizer panics", func(t *testing.T) {
		t.Parallel()

		require.Panics(t, func() {
			cache.New[string, int](cache.WithSizer(func(string) int64 { return 1 }))
		})
	})

	t.Run("invalid schedule is ignored", func(t *testing.T) {
		t.Parallel()

		c := cache.New[string, int](cache.WithSweepSchedule("every now and then"))
		defer c.Close()

		require.NoError(t, c.Set("a", 1))
		require.True(t, c.Has("a"))
	})

	t.Run("exposes name and limits", func(t *testing.T) {
		t.Parallel()

		c := cache.New[string, int](cache.WithName("users"), cache.WithMaxEntries(5))
		defer c.Close()

		require.Equal(t, "users", c.Name())
		require.Equal(t, 5, c.MaxEntries())
	})
}

func TestParseSchedule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec    string
		wantErr bool
	}{
		{spec: "*/5 * * * *"},
		{spec: "@hourly"},
		{spec: "@every 30s"},
		{spec: "", wantErr: true},
		{spec: "* * *", wantErr: true},
		{spec: "@sometimes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			t.Parallel()

			sched, err := cache.ParseSchedule(tt.spec)
			if tt.wantErr {
				require.ErrorIs(t, err, cache.ErrInvalidSchedule)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, sched)
		})
	}
}

func TestParseLayout(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]cache.Layout{"": cache.LayoutNodes, "nodes": cache.LayoutNodes, "flat": cache.LayoutFlat} {
		got, err := cache.ParseLayout(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
		if in != "" {
			require.Equal(t, in, got.String())
		}
	}

	_, err := cache.ParseLayout("array")
	require.ErrorIs(t, err, cache.ErrInvalidLayout)
}

func TestSweepInterval(t *testing.T) {
	t.Parallel()

	c := cache.New[string, int](cache.WithSweepInterval(5 * time.Millisecond))
	defer c.Close()

	require.NoError(t, c.Set("a", 1, cache.WithTTL(time.Millisecond)))
	require.NoError(t, c.Set("b", 2))

	require.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 5*time.Millisecond)
	require.True(t, c.Has("b"))
}

func TestCache_Concurrent(t *testing.T) {
	t.Parallel()

	for _, layout := range []cache.Layout{cache.LayoutNodes, cache.LayoutFlat} {
		t.Run(layout.String(), func(t *testing.T) {
			t.Parallel()

			c := cache.New[int, int](
				cache.WithLayout(layout),
				cache.WithMaxEntries(64),
				cache.WithStats(),
			)
			defer c.Close()

			var wg sync.WaitGroup
			for g := range 8 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := range 2000 {
						k := (g*31 + i) % 200
						if i%3 == 0 {
							_ = c.Set(k, i, cache.WithTTL(time.Millisecond))
						} else {
							_, _ = c.Get(k)
						}
					}
				}()
			}
			wg.Wait()

			require.LessOrEqual(t, c.Len(), 64)
			st := c.Stats()
			require.Equal(t, int64(8*2000), st.Hits+st.Misses+st.Sets)
		})
	}
}
