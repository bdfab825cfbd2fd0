package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Hit(t *testing.T) {
	ctx := context.Background()
	rule := Rule{MaxAttempts: 3, Window: time.Minute}

	t.Run("Invalid rule rejected", func(t *testing.T) {
		// Arrange
		store := NewMemoryStore(clockwork.NewFakeClock(), 0)
		defer store.Close()

		// Act
		_, err := store.Hit(ctx, "k", Rule{MaxAttempts: 1})

		// Assert
		assert.ErrorIs(t, err, ErrInvalidRule)
	})

	t.Run("Reset time fixed at window start", func(t *testing.T) {
		// Arrange
		clock := clockwork.NewFakeClock()
		store := NewMemoryStore(clock, 0)
		defer store.Close()
		start := clock.Now()

		// Act
		first, _ := store.Hit(ctx, "k", rule)
		clock.Advance(20 * time.Second)
		second, _ := store.Hit(ctx, "k", rule)

		// Assert
		assert.Equal(t, start.Add(time.Minute), first.ResetAt)
		assert.Equal(t, first.ResetAt, second.ResetAt)
	})

	t.Run("Concurrent hits never exceed the limit", func(t *testing.T) {
		// Arrange
		store := NewMemoryStore(clockwork.NewFakeClock(), 0)
		defer store.Close()
		var allowed int64
		var wg sync.WaitGroup

		// Act
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				d, err := store.Hit(ctx, "shared", rule)
				if err == nil && d.Allowed {
					atomic.AddInt64(&allowed, 1)
				}
			}()
		}
		wg.Wait()

		// Assert
		assert.Equal(t, int64(rule.MaxAttempts), allowed)
		assert.Equal(t, rule.MaxAttempts, store.Count("shared"))
	})
}

func TestMemoryStore_Cleanup(t *testing.T) {
	ctx := context.Background()

	t.Run("Expired windows removed", func(t *testing.T) {
		// Arrange
		clock := clockwork.NewFakeClock()
		store := NewMemoryStore(clock, 0)
		defer store.Close()
		_, _ = store.Hit(ctx, "short", Rule{MaxAttempts: 1, Window: time.Second})
		_, _ = store.Hit(ctx, "long", Rule{MaxAttempts: 1, Window: time.Hour})

		// Act
		clock.Advance(time.Minute)
		removed := store.Cleanup()

		// Assert
		assert.Equal(t, 1, removed)
		assert.Equal(t, 1, store.Len())
		assert.Equal(t, 0, store.Count("short"))
		assert.Equal(t, 1, store.Count("long"))
	})

	t.Run("Janitor removes expired windows", func(t *testing.T) {
		// Arrange
		clock := clockwork.NewFakeClock()
		store := NewMemoryStore(clock, time.Minute)
		defer store.Close()
		_, _ = store.Hit(ctx, "k", Rule{MaxAttempts: 1, Window: time.Second})
		require.NoError(t, clock.BlockUntilContext(ctx, 1))

		// Act
		clock.Advance(time.Minute)

		// Assert
		assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	})
}

func TestMemoryStore_Close(t *testing.T) {
	t.Run("Close is idempotent", func(t *testing.T) {
		// Arrange
		store := NewMemoryStore(clockwork.NewFakeClock(), time.Minute)

		// Act & Assert
		assert.NoError(t, store.Close())
		assert.NoError(t, store.Close())
	})

	t.Run("Close without janitor", func(t *testing.T) {
		// Arrange
		store := NewMemoryStore(nil, 0)

		// Act & Assert
		assert.NoError(t, store.Close())
	})
}
