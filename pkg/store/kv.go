package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV is the durable key-value store used for cross-session topic caching
// and credential storage. Get reports ok=false for a missing key.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// MemoryKV keeps values in memory (single process only).
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryKV builds an in-memory key-value store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

// Get returns the stored value for key.
func (s *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	v, ok := s.values[key]
	s.mu.Unlock()
	return v, ok, nil
}

// Set stores value under key.
func (s *MemoryKV) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *MemoryKV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}

const redisOpTimeout = 3 * time.Second

// RedisKV stores values in Redis.
type RedisKV struct {
	client *redis.Client
	prefix string
}

// NewRedisKV builds a Redis-backed key-value store. Keys are namespaced
// under prefix so multiple deployments can share one Redis.
func NewRedisKV(addr, password, prefix string) *RedisKV {
	return &RedisKV{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: prefix,
	}
}

func (s *RedisKV) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

// Get returns the stored value for key.
func (s *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv get %q: %w", key, err)
	}
	return v, true, nil
}

// Set stores value under key without expiry.
func (s *RedisKV) Set(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *RedisKV) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	return nil
}
