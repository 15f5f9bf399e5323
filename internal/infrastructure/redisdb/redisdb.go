package redisdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nerrad567/itemvault/internal/infrastructure/config"
)

const defaultDialTimeout = 5 * time.Second

// ErrAddrRequired is returned when no Redis address is configured.
var ErrAddrRequired = errors.New("redisdb: address is required")

// Client wraps a go-redis client with itemvault connection handling.
type Client struct {
	*redis.Client
	prefix string
}

// Connect opens a Redis client and verifies it with a PING.
//
// Parameters:
//   - ctx: bounds the initial PING
//   - cfg: Redis section of config.yaml
//
// Returns:
//   - *Client: Connected client
//   - error: If the address is empty or the server is unreachable
func Connect(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.Addr == "" {
		return nil, ErrAddrRequired
	}

	dialTimeout := time.Duration(cfg.DialTimeout) * time.Second
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}

	return &Client{Client: rdb, prefix: cfg.KeyPrefix}, nil
}

// KeyPrefix returns the namespace all itemvault keys live under.
func (c *Client) KeyPrefix() string {
	return c.prefix
}

// HealthCheck verifies the server still answers PING.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check: %w", err)
	}
	return nil
}

// Close closes the client. It is safe to call on a nil Client.
func (c *Client) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
