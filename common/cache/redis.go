package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache with JSON values stored under a key prefix.
type RedisCache[T any] struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects with a redis:// URL and verifies the connection.
func NewRedisCache[T any](ctx context.Context, connectionString, prefix string) (*RedisCache[T], error) {
	opts, err := redis.ParseURL(connectionString)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisCacheFromClient[T](client, prefix), nil
}

func NewRedisCacheFromClient[T any](client *redis.Client, prefix string) *RedisCache[T] {
	return &RedisCache[T]{client: client, prefix: prefix}
}

func (c *RedisCache[T]) key(key string) string {
	return c.prefix + key
}

func (c *RedisCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.key(key), data, ttl).Err()
}

func (c *RedisCache[T]) Get(ctx context.Context, key string) (T, error) {
	var value T
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return value, ErrKeyNotFound
		}
		return value, err
	}

	err = json.Unmarshal(data, &value)
	return value, err
}

func (c *RedisCache[T]) Has(ctx context.Context, key string) (bool, error) {
	exists, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (c *RedisCache[T]) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}

func (c *RedisCache[T]) GetMultiple(ctx context.Context, keys []string) (map[string]T, error) {
	result := make(map[string]T, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	pipe := c.client.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(keys))
	for _, key := range keys {
		cmds[key] = pipe.Get(ctx, c.key(key))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	for key, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			continue
		}
		var value T
		if err := json.Unmarshal(data, &value); err == nil {
			result[key] = value
		}
	}

	return result, nil
}

// Close closes the Redis connection
func (c *RedisCache[T]) Close() error {
	return c.client.Close()
}
