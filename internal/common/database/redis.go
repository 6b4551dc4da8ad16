// internal/common/database/redis.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loanflow-workers/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient holds the shared cache connection. Workers take the raw
// *redis.Client; this wrapper only covers lifecycle and health.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis builds the cache client. Connections are dialed lazily, so a
// down server surfaces at the first Ping, not here.
func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address is not configured")
	}

	client := redis.NewClient(&redis.Options{
		Addr:                  cfg.Address,
		Password:              cfg.Password,
		DB:                    cfg.DB,
		DialTimeout:           5 * time.Second,
		ReadTimeout:           3 * time.Second,
		WriteTimeout:          3 * time.Second,
		PoolSize:              16,
		MinIdleConns:          2,
		ContextTimeoutEnabled: true,
	})

	return &RedisClient{Client: client}, nil
}

// Ping verifies the server answers.
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// GetClient exposes the raw client for the caching workers.
func (c *RedisClient) GetClient() *redis.Client {
	return c.Client
}

// Close releases the connection pool.
func (c *RedisClient) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
