package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mrz1836/testmo/internal/errors"
)

// pingTimeout bounds the connection check in OpenRedis.
const pingTimeout = 5 * time.Second

// RedisKV stores each key as a Redis string under a common prefix.
type RedisKV struct {
	client   *redis.Client
	prefix   string
	maxBytes int64
}

var _ KV = (*RedisKV)(nil)

// OpenRedis connects to the server at url (redis://host:port/db) and pings it.
func OpenRedis(ctx context.Context, url, prefix string, maxValueBytes int64) (*RedisKV, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisKV{client: client, prefix: prefix, maxBytes: maxValueBytes}, nil
}

// Get implements KV.
func (s *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", errors.ErrKeyNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

// Put implements KV.
func (s *RedisKV) Put(ctx context.Context, key string, value []byte) error {
	if err := checkQuota(key, value, s.maxBytes); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete implements KV.
func (s *RedisKV) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Close implements KV.
func (s *RedisKV) Close() error { return s.client.Close() }
