// Package lockcache caches per-token lock flags in Redis for the read path.
// The state store stays the source of truth; mutating operations invalidate
// the cached entry, and the short TTL bounds staleness if an invalidation is
// lost.
package lockcache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"sigil/pkg/domain"
)

const keyPrefix = "sigil:lock:"

// Redis is a read-through cache over the lock flags.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a lock cache with the given TTL.
func New(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Get returns the cached flag and whether the cache held an entry. Errors are
// treated as misses: the caller falls back to the state store.
func (r *Redis) Get(ctx context.Context, id domain.TokenID) (locked bool, ok bool) {
	val, err := r.client.Get(ctx, keyPrefix+id.String()).Result()
	if err != nil {
		return false, false
	}
	return val == "1", true
}

// Set caches the flag for the configured TTL. Failures are ignored; the next
// read falls through to the store.
func (r *Redis) Set(ctx context.Context, id domain.TokenID, locked bool) {
	val := "0"
	if locked {
		val = "1"
	}
	_ = r.client.Set(ctx, keyPrefix+id.String(), val, r.ttl).Err()
}

// Invalidate drops the cached flag after a lock mutation.
func (r *Redis) Invalidate(ctx context.Context, id domain.TokenID) {
	_ = r.client.Del(ctx, keyPrefix+id.String()).Err()
}
