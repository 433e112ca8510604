package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSlotStore keeps each slot in a Redis string key.
type RedisSlotStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisSlotStore constructs a store. prefix is prepended to every slot key.
func NewRedisSlotStore(client redis.Cmdable, prefix string) *RedisSlotStore {
	return &RedisSlotStore{client: client, prefix: prefix}
}

func (s *RedisSlotStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, true, nil
}

func (s *RedisSlotStore) Write(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
