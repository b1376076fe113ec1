package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/stemsi/exstem-cbt/internal/config"
)

// RedisStore keeps slots as plain string keys.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.SessionSlotKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSlotNotFound
	}
	return data, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.rdb.Set(ctx, config.CacheKey.SessionSlotKey(key), value, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, config.CacheKey.SessionSlotKey(key)).Err()
}
