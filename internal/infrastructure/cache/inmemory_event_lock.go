package cache

import (
	"context"
	"sync"
	"time"

	"github.com/returnsdesk/backend/internal/domain/shared"
)

// lockEntry represents a held per-event lock with expiration
type lockEntry struct {
	expiresAt time.Time
}

// InMemoryEventLocker serializes processing per event ID using an in-memory
// map. Suitable for single-instance deployments and testing; distributed
// deployments use the Redis-backed locker.
type InMemoryEventLocker struct {
	mu        sync.Mutex
	locks     map[string]lockEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryEventLocker creates an in-memory event locker. It starts a
// background goroutine to clean up expired locks.
func NewInMemoryEventLocker() *InMemoryEventLocker {
	locker := &InMemoryEventLocker{
		locks:    make(map[string]lockEntry),
		stopChan: make(chan struct{}),
	}

	locker.wg.Add(1)
	go locker.cleanupLoop()

	return locker
}

// TryAcquire attempts to take the processing lock for an event ID.
// Returns true if acquired, false if another invocation holds it. The TTL
// guards against locks orphaned by a crashed holder.
func (l *InMemoryEventLocker) TryAcquire(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, held := l.locks[eventID]; held {
		if time.Now().Before(e.expiresAt) {
			return false, nil
		}
		// Expired lock, safe to reclaim
	}

	l.locks[eventID] = lockEntry{expiresAt: time.Now().Add(ttl)}
	return true, nil
}

// Release frees the processing lock for an event ID
func (l *InMemoryEventLocker) Release(_ context.Context, eventID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, eventID)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (l *InMemoryEventLocker) Close() error {
	l.closeOnce.Do(func() {
		close(l.stopChan)
		l.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired locks
func (l *InMemoryEventLocker) cleanupLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

func (l *InMemoryEventLocker) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for eventID, e := range l.locks {
		if now.After(e.expiresAt) {
			delete(l.locks, eventID)
		}
	}
}

// Size returns the number of held locks (for testing/monitoring)
func (l *InMemoryEventLocker) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// Ensure InMemoryEventLocker implements EventLocker
var _ shared.EventLocker = (*InMemoryEventLocker)(nil)
