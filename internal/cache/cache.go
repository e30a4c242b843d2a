// Package cache memoizes solver results in Redis, keyed by a hash of
// the grid, dictionary, and seed that produced them (SPEC_FULL.md §4.11).
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long a cached result survives before a repeat
// request re-runs the solver.
const DefaultTTL = 24 * time.Hour

// Cache wraps a Redis client.
type Cache struct {
	rdb *redis.Client
}

// New parses redisURL and pings the resulting client.
func New(redisURL string) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("cache: parsing redis url: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("cache: pinging redis: %w", err)
	}

	return &Cache{rdb: rdb}, nil
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}

// Key hashes the normalized grid text, dictionary text, and seed into a
// single cache key, so two requests for the same puzzle share a result.
func Key(gridText, dictionaryText string, seed int64) string {
	h := sha256.New()
	h.Write([]byte(gridText))
	h.Write([]byte{0})
	h.Write([]byte(dictionaryText))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(seed, 10)))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached value for key, or ("", false, nil) on a miss.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, "job:"+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache: getting %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value under key with the given TTL.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, "job:"+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: setting %s: %w", key, err)
	}
	return nil
}

// normalize joins lines with "\n", so a slice of lines and its
// newline-joined text produce the same key. Lines are not otherwise
// altered: trailing blank lines or "\r" endings yield a different key.
func normalize(lines []string) string {
	return strings.Join(lines, "\n")
}

// GridDictKey is a convenience wrapper combining normalize and Key for
// the HTTP handler's cache lookup.
func GridDictKey(gridLines, dictionary []string, seed int64) string {
	return Key(normalize(gridLines), normalize(dictionary), seed)
}
