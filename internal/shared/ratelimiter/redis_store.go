package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps counters in Redis so that several instances share limits.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed Store. Keys are written as "<prefix>:<key>".
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) redisKey(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

// Increment counts one hit for key in a single MULTI/EXEC round trip.
// EXPIRE NX sets the TTL only on the first hit of a window, so a key can
// never be left without one.
func (s *RedisStore) Increment(ctx context.Context, key string, win time.Duration) (int64, time.Time, error) {
	k := s.redisKey(key)

	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	if _, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, win)
		ttl = pipe.PTTL(ctx, k)
		return nil
	}); err != nil {
		return 0, time.Time{}, err
	}

	remaining := ttl.Val()
	if remaining < 0 {
		remaining = win
	}
	return incr.Val(), time.Now().Add(remaining), nil
}
