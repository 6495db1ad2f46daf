package sigcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dtrann/healthseal/internal/core/domain"
)

const redisPrefix = "sigcache:"

// RedisStore keeps signatures in Redis, with a TTL matching the
// signature's own validity window.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

// Get returns the cached signature, or nil on miss.
func (s *RedisStore) Get(ctx context.Context, user, contract string) (*domain.DecryptionSignature, error) {
	val, err := s.rdb.Get(ctx, redisPrefix+cacheKey(user, contract)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var sig domain.DecryptionSignature
	if err := json.Unmarshal([]byte(val), &sig); err != nil {
		return nil, nil // Corrupt entry counts as a miss
	}
	return &sig, nil
}

// Put stores a signature with a TTL covering its validity window.
func (s *RedisStore) Put(ctx context.Context, sig *domain.DecryptionSignature) error {
	data, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("marshal signature: %w", err)
	}

	ttl := time.Duration(sig.DurationDays) * 24 * time.Hour
	end := time.Unix(sig.StartTimestamp, 0).Add(ttl)
	if remaining := time.Until(end); remaining > 0 {
		ttl = remaining
	}

	key := redisPrefix + cacheKey(sig.User, sig.Contract)
	if err := s.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Clear removes every cached signature.
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, redisPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del failed: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Open picks the backend from config: Redis when a URL is configured,
// otherwise the JSON file store.
func Open(cfg Config) (Store, error) {
	if cfg.RedisURL != "" {
		return NewRedisStore(cfg.RedisURL)
	}
	path := cfg.Path
	if path == "" {
		path = "sigcache.json"
	}
	return NewFileStore(path), nil
}
