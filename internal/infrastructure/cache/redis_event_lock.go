package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/returnsdesk/backend/internal/domain/shared"
	"github.com/returnsdesk/backend/internal/infrastructure/config"
)

// releaseScriptSrc deletes the lock key only when it still holds this
// acquisition's token. A holder that outlived the TTL must not delete a
// successor's lock.
const releaseScriptSrc = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

var releaseScript = redis.NewScript(releaseScriptSrc)

// RedisEventLocker serializes processing per event ID across instances.
// Acquisition is a single atomic SETNX with TTL; the TTL bounds how long a
// crashed holder can block an event. Each acquisition stores a random token
// so release is scoped to the acquisition that took the lock.
type RedisEventLocker struct {
	client    *redis.Client
	keyPrefix string

	mu     sync.Mutex
	tokens map[string]string
}

// NewRedisEventLocker creates a Redis-backed event locker
func NewRedisEventLocker(cfg config.RedisConfig) (*RedisEventLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisEventLockerWithClient(client, ""), nil
}

// NewRedisEventLockerWithClient creates a locker with an existing Redis client.
// Useful for testing or when sharing a client across components.
func NewRedisEventLockerWithClient(client *redis.Client, keyPrefix string) *RedisEventLocker {
	if keyPrefix == "" {
		keyPrefix = "returns:event:lock:"
	}
	return &RedisEventLocker{
		client:    client,
		keyPrefix: keyPrefix,
		tokens:    make(map[string]string),
	}
}

// TryAcquire attempts to take the processing lock for an event ID.
// Returns true if acquired, false if another invocation holds it.
func (l *RedisEventLocker) TryAcquire(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	key := l.keyPrefix + eventID
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire event lock: %w", err)
	}
	if acquired {
		l.mu.Lock()
		l.tokens[eventID] = token
		l.mu.Unlock()
	}
	return acquired, nil
}

// Release frees the processing lock for an event ID. The delete is
// conditional on the acquisition token: if the lock expired and another
// instance re-acquired it, the successor's lock stays intact.
func (l *RedisEventLocker) Release(ctx context.Context, eventID string) error {
	l.mu.Lock()
	token, held := l.tokens[eventID]
	delete(l.tokens, eventID)
	l.mu.Unlock()

	if !held {
		return nil
	}

	key := l.keyPrefix + eventID
	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release event lock: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (l *RedisEventLocker) Close() error {
	return l.client.Close()
}

// Ensure RedisEventLocker implements EventLocker
var _ shared.EventLocker = (*RedisEventLocker)(nil)
