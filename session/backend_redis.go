package session

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps session state in Redis under a key prefix
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend builds a Redis-backed session backend.
func NewRedisBackend(addr, password string, db int, prefix string) *RedisBackend {
	return NewRedisBackendWithClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), prefix)
}

// NewRedisBackendWithClient wraps an existing client
func NewRedisBackendWithClient(client *redis.Client, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "reelmark"
	}
	return &RedisBackend{client: client, prefix: prefix}
}

func (r *RedisBackend) key(k string) string {
	return r.prefix + ":" + k
}

// Load reads key; redis.Nil means no value
func (r *RedisBackend) Load(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Save writes key without expiry
func (r *RedisBackend) Save(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

// Delete removes key
func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// Close releases the underlying connection pool
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
