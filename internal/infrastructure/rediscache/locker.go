package rediscache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/domain"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/ports"
)

const lockKeyPattern = "deals:ingest:lock:%s"

// RunLocker serializes ingestion per site with a SETNX lock. The TTL bounds
// how long a crashed run can block its site before the lock expires.
type RunLocker struct {
	client *redis.Client
}

var _ ports.RunLocker = (*RunLocker)(nil)

// NewRunLocker wires a Redis client.
func NewRunLocker(client *redis.Client) *RunLocker {
	return &RunLocker{client: client}
}

// Acquire takes the site's run lock or returns domain.ErrRunInProgress when
// another run holds it. The returned release func is safe to defer.
func (l *RunLocker) Acquire(ctx context.Context, siteKey string, ttl time.Duration) (func(), error) {
	if l.client == nil {
		return func() {}, nil
	}

	key := fmt.Sprintf(lockKeyPattern, siteKey)
	ok, err := l.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunInProgress, siteKey)
	}

	release := func() {
		_ = l.client.Del(context.Background(), key).Err()
	}
	return release, nil
}
