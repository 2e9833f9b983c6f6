package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis.
type RedisStore struct {
	Client *redis.Client
}

// NewRedisStore creates a RedisStore on top of client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Client: client}
}

func (s *RedisStore) Save(ctx context.Context, id string, p Principal, ttl time.Duration) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.Client.Set(ctx, sessionKey(id), body, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Principal, error) {
	body, err := s.Client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Principal{}, ErrNotFound
	}
	if err != nil {
		return Principal{}, fmt.Errorf("failed to load session: %w", err)
	}

	var p Principal
	if err := json.Unmarshal(body, &p); err != nil {
		return Principal{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return p, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.Client.Del(ctx, sessionKey(id)).Err()
}

func (s *RedisStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, string, error) {
	ok, err := s.Client.SetNX(ctx, key, Pending, ttl).Result()
	if err != nil {
		return false, "", fmt.Errorf("failed to claim %s: %w", key, err)
	}
	if ok {
		return true, "", nil
	}

	val, err := s.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return s.Claim(ctx, key, ttl)
	}
	if err != nil {
		return false, "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return false, val, nil
}

func (s *RedisStore) Complete(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.Client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.Client.Del(ctx, key).Err()
}
