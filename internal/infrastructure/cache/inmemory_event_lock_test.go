package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryEventLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("acquire and release", func(t *testing.T) {
		locker := NewInMemoryEventLocker()
		defer locker.Close()

		acquired, err := locker.TryAcquire(ctx, "evt_1", time.Minute)
		require.NoError(t, err)
		assert.True(t, acquired)

		// Second acquire on the same event must fail
		acquired, err = locker.TryAcquire(ctx, "evt_1", time.Minute)
		require.NoError(t, err)
		assert.False(t, acquired)

		require.NoError(t, locker.Release(ctx, "evt_1"))

		acquired, err = locker.TryAcquire(ctx, "evt_1", time.Minute)
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("distinct events do not contend", func(t *testing.T) {
		locker := NewInMemoryEventLocker()
		defer locker.Close()

		a, err := locker.TryAcquire(ctx, "evt_a", time.Minute)
		require.NoError(t, err)
		b, err := locker.TryAcquire(ctx, "evt_b", time.Minute)
		require.NoError(t, err)

		assert.True(t, a)
		assert.True(t, b)
		assert.Equal(t, 2, locker.Size())
	})

	t.Run("expired lock can be reclaimed", func(t *testing.T) {
		locker := NewInMemoryEventLocker()
		defer locker.Close()

		acquired, err := locker.TryAcquire(ctx, "evt_exp", 10*time.Millisecond)
		require.NoError(t, err)
		require.True(t, acquired)

		time.Sleep(20 * time.Millisecond)

		acquired, err = locker.TryAcquire(ctx, "evt_exp", time.Minute)
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("exactly one of many concurrent acquirers wins", func(t *testing.T) {
		locker := NewInMemoryEventLocker()
		defer locker.Close()

		const goroutines = 50
		var wins int64
		var mu sync.Mutex
		var wg sync.WaitGroup

		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				acquired, err := locker.TryAcquire(ctx, "evt_race", time.Minute)
				require.NoError(t, err)
				if acquired {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(1), wins)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		locker := NewInMemoryEventLocker()
		assert.NoError(t, locker.Close())
		assert.NoError(t, locker.Close())
	})
}
