package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
)

// KVStore is the key/value persistence used for sessions, carts and the catalog cache.
// Get returns errors.ErrNotFound for missing or expired keys.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

var (
	_ KVStore = (*RedisKVStore)(nil)
	_ KVStore = (*MemoryKVStore)(nil)
)

// RedisKVStore implements KVStore using Redis.
type RedisKVStore struct {
	client *redis.Client
	logger *logging.LoggerV2
}

// NewRedisClient builds a Redis client from config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisKVStore wraps a Redis client.
func NewRedisKVStore(client *redis.Client, logger *logging.LoggerV2) *RedisKVStore {
	return &RedisKVStore{client: client, logger: logger}
}

func (s *RedisKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		s.logger.Error("Redis get error", logging.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return nil, err
	}
	return data, nil
}

func (s *RedisKVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.logger.Error("Redis set error", logging.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return err
	}
	return nil
}

func (s *RedisKVStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Ping checks connectivity for readiness probes.
func (s *RedisKVStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryKVStore is a process-local KVStore for tests and single-node development.
type MemoryKVStore struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	now  func() time.Time
}

// NewMemoryKVStore creates an empty in-memory store.
func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

// WithClock overrides the time source.
func (s *MemoryKVStore) WithClock(now func() time.Time) *MemoryKVStore {
	s.now = now
	return s
}

func (s *MemoryKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok {
		return nil, errors.ErrNotFound
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.data, key)
		return nil, errors.ErrNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (s *MemoryKVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.data[key] = e
	return nil
}

func (s *MemoryKVStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Ping always succeeds.
func (s *MemoryKVStore) Ping(ctx context.Context) error {
	return nil
}
