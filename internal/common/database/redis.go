// internal/common/database/redis.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nl-sql-search/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// History writes are one LPUSH+LTRIM per search, so a handful of
// connections is plenty.
const (
	historyPoolSize     = 4
	historyDialTimeout  = 2 * time.Second
	historyReadTimeout  = time.Second
	historyWriteTimeout = time.Second
)

// RedisClient backs the search history list.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis builds the history store connection. It does not dial; call
// Ping to check reachability.
func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, errors.New("database.redis.address is required when history is enabled")
	}

	return &RedisClient{Client: redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  historyDialTimeout,
		ReadTimeout:  historyReadTimeout,
		WriteTimeout: historyWriteTimeout,
		PoolSize:     historyPoolSize,
	})}, nil
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("history redis %s unreachable: %w", c.Client.Options().Addr, err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
