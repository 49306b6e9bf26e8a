package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis keeps values in Redis under a key prefix, without expiry.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ Storage = (*Redis)(nil)

// NewRedis builds a Redis-backed storage.
func NewRedis(addr, password, prefix string) (*Redis, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("redis addr is required")
	}
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: prefix,
	}, nil
}

func (s *Redis) key(k string) string { return s.prefix + k }

func (s *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *Redis) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

func (s *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// Close releases the client connection pool.
func (s *Redis) Close() error { return s.client.Close() }
