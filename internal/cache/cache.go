// Package cache wraps the Redis client used to deduplicate provider payment
// events across channels and restarts.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// dedupTTL outlives any provider's webhook retry window.
const dedupTTL = 48 * time.Hour

type Client struct {
	rdb *redis.Client
}

func New(ctx context.Context, addr string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return &Client{rdb: rdb}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func dedupKey(key string) string {
	return "dedup:payment:" + key
}

// Seen reports whether the payment event key was already applied.
func (c *Client) Seen(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, dedupKey(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Mark records a successfully applied payment event key.
func (c *Client) Mark(ctx context.Context, key string) error {
	return c.rdb.Set(ctx, dedupKey(key), "1", dedupTTL).Err()
}
