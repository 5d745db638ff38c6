// Package cache stores JSON values in Redis with a fixed TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "mentorsync:"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Redis is a JSON cache backed by a go-redis client.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, opts Options) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", opts.Addr, err)
	}
	return &Redis{rdb: rdb, ttl: opts.TTL}, nil
}

func key(k string) string { return keyPrefix + k }

// GetJSON loads key into dest. It reports false with a nil error on a miss.
func (c *Redis) GetJSON(ctx context.Context, k string, dest any) (bool, error) {
	val, err := c.rdb.Get(ctx, key(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, fmt.Errorf("decoding cached %s: %w", k, err)
	}
	return true, nil
}

// SetJSON stores value under key for the configured TTL.
func (c *Redis) SetJSON(ctx context.Context, k string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key(k), b, c.ttl).Err()
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Redis) Delete(ctx context.Context, k string) error {
	return c.rdb.Del(ctx, key(k)).Err()
}

// Close releases the client's connections.
func (c *Redis) Close() error {
	return c.rdb.Close()
}
