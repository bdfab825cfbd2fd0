package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// window is the counter of one (identity, class) key.
type window struct {
	count   int
	start   time.Time
	resetAt time.Time
}

// MemoryStore keeps fixed windows in process memory. Counters are not shared
// between instances; use RedisStore when several instances serve traffic.
type MemoryStore struct {
	windows *shardedMap[window]
	clock   clockwork.Clock

	// cleanup interval for removing expired windows
	cleanupInterval time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewMemoryStore creates an in-memory store and starts its janitor.
//
// Parameters:
//   - clock: Time source; nil selects the real clock
//   - cleanupInterval: How often expired windows are removed; zero disables the janitor
//
// Returns:
//   - A running store; call Close to stop the janitor
func NewMemoryStore(clock clockwork.Clock, cleanupInterval time.Duration) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	s := &MemoryStore{
		windows:         newShardedMap[window](),
		clock:           clock,
		cleanupInterval: cleanupInterval,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go s.janitor()
	} else {
		close(s.done)
	}

	return s
}

// Hit implements Store. The whole check-and-increment runs under the shard lock.
func (s *MemoryStore) Hit(_ context.Context, key string, rule Rule) (Decision, error) {
	if err := rule.Validate(); err != nil {
		return Decision{}, err
	}

	now := s.clock.Now()
	var decision Decision

	s.windows.update(key, func(w window, ok bool) window {
		// Start a new window on first sight or once the previous one elapsed
		if !ok || !now.Before(w.resetAt) {
			w = window{start: now, resetAt: now.Add(rule.Window)}
		}

		if w.count >= rule.MaxAttempts {
			decision = Decision{
				Allowed:    false,
				Limit:      rule.MaxAttempts,
				Remaining:  0,
				RetryAfter: w.resetAt.Sub(now),
				ResetAt:    w.resetAt,
			}
			return w
		}

		w.count++
		decision = Decision{
			Allowed:   true,
			Limit:     rule.MaxAttempts,
			Remaining: rule.MaxAttempts - w.count,
			ResetAt:   w.resetAt,
		}
		return w
	})

	return decision, nil
}

// Count returns the current counter for key, zero if absent or expired.
func (s *MemoryStore) Count(key string) int {
	w, ok := s.windows.get(key)
	if !ok || !s.clock.Now().Before(w.resetAt) {
		return 0
	}
	return w.count
}

// Len returns the number of tracked windows, expired ones included.
func (s *MemoryStore) Len() int {
	return s.windows.len()
}

// Cleanup removes windows that have elapsed and returns how many were dropped.
func (s *MemoryStore) Cleanup() int {
	now := s.clock.Now()
	return s.windows.deleteFunc(func(_ string, w window) bool {
		return !now.Before(w.resetAt)
	})
}

// janitor periodically removes expired windows until Close is called.
func (s *MemoryStore) janitor() {
	defer close(s.done)

	ticker := s.clock.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.Chan():
			if removed := s.Cleanup(); removed > 0 {
				log.Debug().Int("removed", removed).Msg("Expired rate limit windows removed")
			}
		}
	}
}

// Close stops the janitor and waits for it to exit. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
	return nil
}
