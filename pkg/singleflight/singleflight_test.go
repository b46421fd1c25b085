package singleflight_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/hoard/pkg/singleflight"
)

// blocker is a computation that counts its runs and waits for release.
type blocker struct {
	release chan struct{}
	calls   atomic.Int32
	val     int
}

func newBlocker(val int) *blocker {
	return &blocker{release: make(chan struct{}), val: val}
}

func (b *blocker) fn(ctx context.Context) (int, error) {
	b.calls.Add(1)
	<-b.release
	return b.val, ctx.Err()
}

func TestGroup_Do(t *testing.T) {
	t.Parallel()

	t.Run("returns computed value", func(t *testing.T) {
		t.Parallel()

		var g singleflight.Group[string, int]
		v, err, shared := g.Do(context.Background(), "k", func(context.Context) (int, error) {
			return 42, nil
		})
		require.NoError(t, err)
		require.Equal(t, 42, v)
		require.False(t, shared)
		require.Zero(t, g.InFlight())
	})

	t.Run("concurrent callers share one computation", func(t *testing.T) {
		t.Parallel()

		var g singleflight.Group[string, int]
		b := newBlocker(7)
		ctx := context.Background()

		const n = 10
		chans := make([]<-chan singleflight.Result[int], n)
		for i := range n {
			chans[i] = g.DoChan(ctx, "k", b.fn)
		}
		require.Equal(t, 1, g.InFlight())

		close(b.release)
		for _, ch := range chans {
			r := <-ch
			require.NoError(t, r.Err)
			require.Equal(t, 7, r.Val)
			require.True(t, r.Shared)
		}
		require.Equal(t, int32(1), b.calls.Load())
		require.Zero(t, g.InFlight())
	})

	t.Run("different keys run independently", func(t *testing.T) {
		t.Parallel()

		var g singleflight.Group[int, int]
		a, b := newBlocker(1), newBlocker(2)
		ctx := context.Background()

		ca := g.DoChan(ctx, 1, a.fn)
		cb := g.DoChan(ctx, 2, b.fn)
		require.Equal(t, 2, g.InFlight())

		close(b.release)
		require.Equal(t, 2, (<-cb).Val)
		close(a.release)
		require.Equal(t, 1, (<-ca).Val)
	})

	t.Run("errors reach every caller and are not remembered", func(t *testing.T) {
		t.Parallel()

		var g singleflight.Group[string, int]
		errBoom := errors.New("boom")
		release := make(chan struct{})
		var calls atomic.Int32
		fn := func(context.Context) (int, error) {
			calls.Add(1)
			<-release
			return 0, errBoom
		}

		ctx := context.Background()
		first := g.DoChan(ctx, "k", fn)
		second := g.DoChan(ctx, "k", fn)
		close(release)

		require.ErrorIs(t, (<-first).Err, errBoom)
		require.ErrorIs(t, (<-second).Err, errBoom)

		v, err, _ := g.Do(ctx, "k", func(context.Context) (int, error) { return 5, nil })
		require.NoError(t, err)
		require.Equal(t, 5, v)
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("panics become errors", func(t *testing.T) {
		t.Parallel()

		var g singleflight.Group[string, int]
		_, err, _ := g.Do(context.Background(), "k", func(context.Context) (int, error) {
			panic("kaboom")
		})
		require.ErrorIs(t, err, singleflight.ErrPanic)
		require.Contains(t, err.Error(), "kaboom")
		require.Zero(t, g.InFlight())

		v, err, _ := g.Do(context.Background(), "k", func(context.Context) (int, error) { return 1, nil })
		require.NoError(t, err)
		require.Equal(t, 1, v)
	})
}

func TestGroup_Cancellation(t *testing.T) {
	t.Parallel()

	t.Run("cancelled waiter leaves the computation running", func(t *testing.T) {
		t.Parallel()

		var g singleflight.Group[string, int]
		b := newBlocker(3)

		leaderCtx, cancel := context.WithCancel(context.Background())
		leader := g.DoChan(leaderCtx, "k", b.fn)
		follower := g.DoChan(context.Background(), "k", b.fn)

		cancel()
		require.ErrorIs(t, (<-leader).Err, context.Canceled)

		close(b.release)
		r := <-follower
		require.NoError(t, r.Err, "computation context is detached from the leader")
		require.Equal(t, 3, r.Val)
		require.Equal(t, int32(1), b.calls.Load())
	})

	t.Run("Do returns ctx error on timeout", func(t *testing.T) {
		t.Parallel()

		var g singleflight.Group[string, int]
		b := newBlocker(1)
		defer close(b.release)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err, _ := g.Do(ctx, "k", b.fn)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Equal(t, 1, g.InFlight())
	})

	t.Run("computation keeps caller values", func(t *testing.T) {
		t.Parallel()

		type ctxKey struct{}
		var g singleflight.Group[string, string]
		ctx := context.WithValue(context.Background(), ctxKey{}, "v")

		got, err, _ := g.Do(ctx, "k", func(ctx context.Context) (string, error) {
			return ctx.Value(ctxKey{}).(string), nil
		})
		require.NoError(t, err)
		require.Equal(t, "v", got)
	})
}

func TestGroup_Forget(t *testing.T) {
	t.Parallel()

	var g singleflight.Group[string, int]
	ctx := context.Background()
	old, fresh := newBlocker(1), newBlocker(2)

	oldCh := g.DoChan(ctx, "k", old.fn)
	g.Forget("k")
	require.Zero(t, g.InFlight())

	freshCh := g.DoChan(ctx, "k", fresh.fn)
	require.Equal(t, 1, g.InFlight())

	// The forgotten call settles first and must not release the newer one.
	close(old.release)
	require.Equal(t, 1, (<-oldCh).Val)
	require.Equal(t, 1, g.InFlight())

	joined := g.DoChan(ctx, "k", fresh.fn)
	close(fresh.release)
	require.Equal(t, 2, (<-freshCh).Val)
	require.Equal(t, 2, (<-joined).Val)
	require.Equal(t, int32(1), fresh.calls.Load())
	require.Zero(t, g.InFlight())
}

func TestGroup_Stress(t *testing.T) {
	t.Parallel()

	var g singleflight.Group[int, int]
	var calls atomic.Int32
	var wg sync.WaitGroup

	for i := range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := i % 4
			v, err, _ := g.Do(context.Background(), key, func(context.Context) (int, error) {
				calls.Add(1)
				time.Sleep(time.Millisecond)
				return key * 10, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, key*10, v)
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, calls.Load(), int32(200))
	require.Zero(t, g.InFlight())
}

func TestGroup_KeysOfDifferentTypes(t *testing.T) {
	t.Parallel()

	var g singleflight.Group[any, string]
	a, b := newBlocker(0), newBlocker(0)
	ctx := context.Background()

	strKey := g.DoChan(ctx, "1", func(ctx context.Context) (string, error) {
		_, err := a.fn(ctx)
		return "string", err
	})
	intKey := g.DoChan(ctx, 1, func(ctx context.Context) (string, error) {
		_, err := b.fn(ctx)
		return "int", err
	})
	require.Equal(t, 2, g.InFlight())

	close(a.release)
	close(b.release)
	require.Equal(t, "string", (<-strKey).Val)
	require.Equal(t, "int", (<-intKey).Val)
	require.Equal(t, int32(1), a.calls.Load())
	require.Equal(t, int32(1), b.calls.Load())
}
