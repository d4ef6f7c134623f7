package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/calldeck-team/calldeck/pkg/config"
)

// NewRedisClient creates a Redis client and verifies connectivity
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

const seenKeyPrefix = "calldeck:seen:"

// RedisSeenStore records processed call ids in Redis so duplicate webhook
// deliveries are recognized across process restarts (within the TTL window).
type RedisSeenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSeenStore creates a Redis-backed seen-id store
func NewRedisSeenStore(client *redis.Client, ttl time.Duration) *RedisSeenStore {
	return &RedisSeenStore{client: client, ttl: ttl}
}

// SetNX marks the id as seen. Returns true when this call was the first to
// mark it; the check and the mark are one atomic Redis operation.
func (s *RedisSeenStore) SetNX(ctx context.Context, id string) (bool, error) {
	return s.client.SetNX(ctx, seenKeyPrefix+id, "1", s.ttl).Result()
}

// Delete releases the id so a later SetNX succeeds again
func (s *RedisSeenStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, seenKeyPrefix+id).Err()
}
