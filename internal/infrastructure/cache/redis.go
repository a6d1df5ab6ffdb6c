package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shoesync/backend/internal/domain"
)

const listingKey = "shoesync:listing"

// RedisListingCache is a redis-backed listing snapshot, for deployments
// where the sync runner restarts between retry attempts.
type RedisListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// NewRedisListingCache creates a redis-backed listing cache.
func NewRedisListingCache(client *redis.Client, ttl time.Duration) *RedisListingCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisListingCache{client: client, ttl: ttl}
}

func (c *RedisListingCache) Get(ctx context.Context) ([]string, error) {
	data, err := c.client.Get(ctx, listingKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, fmt.Errorf("decode cached listing: %w", err)
	}
	return urls, nil
}

func (c *RedisListingCache) Set(ctx context.Context, urls []string) error {
	data, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("encode listing: %w", err)
	}
	if err := c.client.Set(ctx, listingKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

func (c *RedisListingCache) Clear(ctx context.Context) error {
	if err := c.client.Del(ctx, listingKey).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}
