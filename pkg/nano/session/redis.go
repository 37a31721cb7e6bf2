package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps tokens in Redis so several processes can share a login
type RedisStore struct {
	client *redis.Client
	config StoreConfig
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	// Addr is the Redis server address (host:port)
	Addr string
	// Password is the Redis password (optional)
	Password string
	// DB is the Redis database number
	DB int
	// StoreConfig holds common store configuration
	StoreConfig StoreConfig
}

// DefaultRedisConfig returns a default Redis configuration
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:        "localhost:6379",
		StoreConfig: DefaultStoreConfig(),
	}
}

// NewRedisStore connects to Redis and checks the connection
func NewRedisStore(ctx context.Context, config RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.Addr, err)
	}

	return NewRedisStoreWithClient(client, config.StoreConfig), nil
}

// NewRedisStoreWithClient creates a store over an existing client
func NewRedisStoreWithClient(client *redis.Client, config StoreConfig) *RedisStore {
	return &RedisStore{
		client: client,
		config: config,
	}
}

// Get returns the saved token for identifier
func (r *RedisStore) Get(ctx context.Context, identifier string) (string, error) {
	token, err := r.client.Get(ctx, r.config.Prefix+identifier).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrTokenMiss{Identifier: identifier}
		}
		return "", err
	}
	return token, nil
}

// Set saves token for identifier
func (r *RedisStore) Set(ctx context.Context, identifier, token string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = r.config.DefaultTTL
	}
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, r.config.Prefix+identifier, token, ttl).Err()
}

// Delete forgets the token for identifier
func (r *RedisStore) Delete(ctx context.Context, identifier string) error {
	return r.client.Del(ctx, r.config.Prefix+identifier).Err()
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
