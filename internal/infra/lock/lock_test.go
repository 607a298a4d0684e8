//go:build unit

package lock

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// assertMutualExclusion runs n goroutines through the same key and fails if
// two of them are ever inside the critical section at once.
func assertMutualExclusion(t *testing.T, l locker, n int) {
	t.Helper()

	var inside, maxInside, total atomic.Int32
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			unlock, err := l.Lock(context.Background(), "coupon:AB12CD34")
			if err != nil {
				return err
			}
			defer unlock()

			cur := inside.Add(1)
			for {
				prev := maxInside.Load()
				if cur <= prev || maxInside.CompareAndSwap(prev, cur) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			total.Add(1)
			inside.Add(-1)
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), maxInside.Load())
	assert.Equal(t, int32(n), total.Load())
}

func TestLocalLocker(t *testing.T) {
	t.Run("mutual exclusion", func(t *testing.T) {
		l := NewLocalLocker()
		assertMutualExclusion(t, l, 32)
		assert.Zero(t, l.size())
	})

	t.Run("different keys do not block", func(t *testing.T) {
		l := NewLocalLocker()
		unlockA, err := l.Lock(context.Background(), "a")
		require.NoError(t, err)
		defer unlockA()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		unlockB, err := l.Lock(ctx, "b")
		require.NoError(t, err)
		unlockB()
	})

	t.Run("context cancel while waiting", func(t *testing.T) {
		l := NewLocalLocker()
		unlock, err := l.Lock(context.Background(), "a")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = l.Lock(ctx, "a")
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		unlock()
		unlock() // idempotent
		assert.Zero(t, l.size())
	})
}

func newRedisLockerForTest(t *testing.T, wait time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRedisLocker(client, 5*time.Second, wait, logger), mr
}

func TestRedisLocker(t *testing.T) {
	t.Run("mutual exclusion", func(t *testing.T) {
		l, mr := newRedisLockerForTest(t, 5*time.Second)
		assertMutualExclusion(t, l, 16)
		assert.False(t, mr.Exists("lock:coupon:AB12CD34"))
	})

	t.Run("times out while held", func(t *testing.T) {
		l, _ := newRedisLockerForTest(t, 60*time.Millisecond)
		unlock, err := l.Lock(context.Background(), "k")
		require.NoError(t, err)
		defer unlock()

		_, err = l.Lock(context.Background(), "k")
		assert.ErrorIs(t, err, ErrLockTimeout)
	})

	t.Run("release does not delete a successor's lock", func(t *testing.T) {
		l, mr := newRedisLockerForTest(t, time.Second)
		unlock, err := l.Lock(context.Background(), "k")
		require.NoError(t, err)

		// the first holder's TTL lapses and someone else takes the key
		mr.Del("lock:k")
		require.NoError(t, mr.Set("lock:k", "someone-else"))

		unlock()
		got, err := mr.Get("lock:k")
		require.NoError(t, err)
		assert.Equal(t, "someone-else", got)
	})

	t.Run("redis down", func(t *testing.T) {
		l, mr := newRedisLockerForTest(t, time.Second)
		mr.Close()

		_, err := l.Lock(context.Background(), "k")
		assert.Error(t, err)
	})
}
