package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunLocker implements usecase.RunLocker using Redis SET NX. The TTL
// bounds how long a crashed process can keep a batch locked.
type RunLocker struct {
	client *redis.Client
	prefix string
}

// NewRunLocker creates a new RunLocker.
func NewRunLocker(client *redis.Client) *RunLocker {
	return &RunLocker{
		client: client,
		prefix: "settlement:lock:",
	}
}

// Acquire takes the batch lock. It reports false when another process
// already holds it.
func (l *RunLocker) Acquire(ctx context.Context, batch string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.prefix+batch, "locked", ttl).Result()
}

// Release drops the batch lock.
func (l *RunLocker) Release(ctx context.Context, batch string) error {
	return l.client.Del(ctx, l.prefix+batch).Err()
}
