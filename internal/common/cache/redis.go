// internal/common/cache/redis.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invoice-intake/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// Store is the key/value surface the sinks use to remember resolved Drive
// folder and spreadsheet ids between submissions.
type Store interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Remember(ctx context.Context, key, value string) error
}

// RedisClient wraps the Redis client
type RedisClient struct {
	Client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis creates a new Redis client
func NewRedis(cfg config.RedisConfig) *RedisClient {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	return NewWithClient(rdb, time.Duration(cfg.TTL)*time.Second)
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *redis.Client, ttl time.Duration) *RedisClient {
	return &RedisClient{Client: rdb, prefix: "invoice-intake:", ttl: ttl}
}

// Ping tests the Redis connection
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// Lookup returns the cached value; a miss is reported as ok=false with no error.
func (c *RedisClient) Lookup(ctx context.Context, key string) (string, bool, error) {
	val, err := c.Client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Remember stores value under key with the configured TTL.
func (c *RedisClient) Remember(ctx context.Context, key, value string) error {
	if err := c.Client.Set(ctx, c.prefix+key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Forget deletes one or more keys
func (c *RedisClient) Forget(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.prefix + k
	}
	return c.Client.Del(ctx, prefixed...).Err()
}
