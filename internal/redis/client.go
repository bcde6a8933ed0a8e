package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trogers1052/signal-picks-service/internal/config"
	"github.com/trogers1052/signal-picks-service/internal/models"
)

// Client wraps the Redis client with picks-specific caching operations
type Client struct {
	rdb *redis.Client
}

// New creates a new Redis client
func New(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks if Redis is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Best-of-day snapshot caching. Snapshots for past dates are immutable once
// materialized, which makes them the one read worth caching.

// SetBestOfDay caches a date's best-of-day snapshot with TTL
func (c *Client) SetBestOfDay(ctx context.Context, date string, signals []*models.Signal, ttl time.Duration) error {
	key := fmt.Sprintf("picks:best:%s", date)
	jsonData, err := json.Marshal(signals)
	if err != nil {
		return fmt.Errorf("failed to marshal best of day: %w", err)
	}
	return c.rdb.Set(ctx, key, jsonData, ttl).Err()
}

// GetBestOfDay retrieves a cached best-of-day snapshot
func (c *Client) GetBestOfDay(ctx context.Context, date string) ([]*models.Signal, error) {
	key := fmt.Sprintf("picks:best:%s", date)
	jsonData, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var signals []*models.Signal
	if err := json.Unmarshal(jsonData, &signals); err != nil {
		return nil, fmt.Errorf("failed to unmarshal best of day: %w", err)
	}
	return signals, nil
}

// Generic operations

// Set stores a value with optional TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Get retrieves a string value
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.rdb.Get(ctx, key).Result()
}

// Delete removes a key
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// Exists checks if a key exists
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	result, err := c.rdb.Exists(ctx, key).Result()
	return result > 0, err
}
