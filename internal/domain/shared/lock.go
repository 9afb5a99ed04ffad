package shared

import (
	"context"
	"time"
)

// EventLocker provides per-event mutual exclusion. Processing of a single
// event ID is strictly serialized: the lock is held for the duration of the
// decision flow and released on completion or failure. The TTL bounds how
// long a crashed holder can block replays.
type EventLocker interface {
	// TryAcquire attempts to take the lock for eventID.
	// Returns false if another invocation currently holds it.
	TryAcquire(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// Release releases the lock for eventID. Releasing a lock that is not
	// held is a no-op.
	Release(ctx context.Context, eventID string) error

	// Close releases any resources held by the locker
	Close() error
}

// LockConfig holds configuration for per-event locking
type LockConfig struct {
	// TTL is the maximum time a lock may be held before it expires.
	// It must exceed the worst-case duration of a full decision flow
	// including refund retries.
	TTL time.Duration
}

// DefaultLockConfig returns the default lock configuration
func DefaultLockConfig() LockConfig {
	return LockConfig{
		TTL: 5 * time.Minute,
	}
}
