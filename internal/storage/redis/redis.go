package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodtune/focuswatch/internal/config"
	"github.com/goodtune/focuswatch/internal/storage"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "focuswatch"

// Store implements storage.Backend using a single Redis hash.
type Store struct {
	client  *redis.Client
	hashKey string
}

// Open creates a new Redis-backed storage instance
func Open(cfg config.RedisConfig) (*Store, error) {
	// Parse timeouts
	dialTimeout, err := time.ParseDuration(cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid dial_timeout: %w", err)
	}

	readTimeout, err := time.ParseDuration(cfg.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid read_timeout: %w", err)
	}

	writeTimeout, err := time.ParseDuration(cfg.WriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid write_timeout: %w", err)
	}

	// Determine address
	addr := cfg.Host
	if cfg.Port > 0 {
		addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	// Ping to verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}

	return &Store{
		client:  client,
		hashKey: prefix + ":settings",
	}, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Get returns a field of the settings hash.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.HGet(ctx, s.hashKey, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("hget %s: %w", key, err)
	}
	return value, nil
}

// Set writes a field of the settings hash.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.HSet(ctx, s.hashKey, key, value).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}
