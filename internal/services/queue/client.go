package queue

import (
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Client wraps the Redis connection the request queue uses.
type Client struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewClientFromRedis shares an existing connection.
func NewClientFromRedis(rdb *redis.Client, logger *slog.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// Close closes the shared connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

