package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps session records in Redis with the token's TTL, so
// revocation is shared across replicas and records expire on their own.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed (%s): %w", addr, err)
	}
	return &RedisStore{client: rdb}, nil
}

func key(tokenID string) string { return "session:" + tokenID }

func (s *RedisStore) Save(ctx context.Context, tokenID, userID string, ttl time.Duration) error {
	return s.client.Set(ctx, key(tokenID), userID, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, tokenID string) (string, bool, error) {
	val, err := s.client.Get(ctx, key(tokenID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, tokenID string) error {
	return s.client.Del(ctx, key(tokenID)).Err()
}
