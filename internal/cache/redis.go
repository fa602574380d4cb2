// Package cache wraps the Redis connection used for idempotency records.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/sneaker-inventory/internal/middleware"
	"github.com/redis/go-redis/v9"
)

const keyNamespace = "sneaker"

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
}

// Client is a namespaced Redis client
type Client struct {
	store cmdable
	raw   *redis.Client
}

// New connects to the Redis server at redisURL and verifies it answers
func New(ctx context.Context, redisURL string) (*Client, error) {
	if redisURL == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}

	raw := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := raw.Ping(pingCtx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{store: raw, raw: raw}, nil
}

// Get returns the value at key. A missing key yields middleware.ErrIdempotencyMiss.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	v, err := c.store.Get(ctx, c.buildKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", middleware.ErrIdempotencyMiss
	}
	if err != nil {
		return "", fmt.Errorf("failed to get key: %w", err)
	}
	return v, nil
}

// SetNX stores value only if key is not already present
func (c *Client) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	ok, err := c.store.SetNX(ctx, c.buildKey(key), value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set key: %w", err)
	}
	return ok, nil
}

// Ping verifies the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.store.Ping(ctx).Err()
}

// Close shuts down the underlying client if available
func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func (c *Client) buildKey(key string) string {
	return keyNamespace + ":" + strings.TrimSpace(key)
}

var _ middleware.IdempotencyStore = (*Client)(nil)
