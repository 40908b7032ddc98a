package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const limitKeyPrefix = "idg:ratelimit:"

// RedisStore implements Store with a fixed window counter per key, shared
// across replicas.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	redisKey := limitKeyPrefix + key

	pipe := s.client.TxPipeline()
	count := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, window)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit check: %w", err)
	}

	resetAt := time.Now().Add(ttl.Val())
	current := int(count.Val())
	if current > limit {
		return Result{Allowed: false, Limit: limit, ResetAt: resetAt}, nil
	}
	return Result{
		Allowed:   true,
		Remaining: limit - current,
		Limit:     limit,
		ResetAt:   resetAt,
	}, nil
}
