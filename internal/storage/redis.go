package storage

import (
	"context"
	"time"

	pkgredis "github.com/aurevo/storefront/pkg/redis"
)

// redisKV is the subset of pkg/redis.Client used by RedisBackend.
type redisKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	KVKey(name string) string
}

// RedisBackend stores values under the namespaced kv prefix.
type RedisBackend struct {
	client redisKV
	ttl    time.Duration
}

// NewRedisBackend binds the backend to a redis client. ttl of zero keeps keys forever.
func NewRedisBackend(client redisKV, ttl time.Duration) *RedisBackend {
	return &RedisBackend{client: client, ttl: ttl}
}

func (r *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.client.KVKey(key))
	if pkgredis.IsNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.client.KVKey(key), value, r.ttl)
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.client.KVKey(key))
}
