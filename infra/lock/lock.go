// Package lock provides the leases used to keep periodic jobs single-flight
// across processes.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock is a lease held with SET NX PX.
type RedisLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	token  string
}

// NewRedisLock returns a lease on key that expires after ttl unless released.
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{client: client, key: key, ttl: ttl, token: uuid.NewString()}
}

// TryAcquire reports whether this process now holds the lease.
func (l *RedisLock) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	return ok, nil
}

// Release gives up the lease if we still own it.
func (l *RedisLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}

// LocalLock is the single-process fallback used when Redis is not configured.
type LocalLock struct {
	mu sync.Mutex
}

// NewLocalLock returns an in-process lease.
func NewLocalLock() *LocalLock {
	return &LocalLock{}
}

// TryAcquire never blocks.
func (l *LocalLock) TryAcquire(context.Context) (bool, error) {
	return l.mu.TryLock(), nil
}

// Release unlocks the lease.
func (l *LocalLock) Release(context.Context) error {
	l.mu.Unlock()
	return nil
}
