// Package cache provides a best-effort Redis cache for optimization
// results. Cache failures are logged and treated as misses; they are never
// allowed to fail an optimization request.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/morgankhalil/venueconnect/internal/logging"
	"github.com/morgankhalil/venueconnect/internal/tour"
)

// ResultCache stores serialized optimization results under a tour-scoped
// key with a short TTL.
type ResultCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// New connects a result cache to the Redis instance at addr.
func New(addr string, ttl time.Duration, logger *logging.Logger) *ResultCache {
	return &ResultCache{
		rdb:    redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
		logger: logger,
	}
}

// Close releases the Redis connection.
func (c *ResultCache) Close() error { return c.rdb.Close() }

// Key derives a cache key from the tour id and an opaque digest of the
// request options, so option changes never serve stale orderings.
func Key(tourID int64, optionsDigest string) string {
	return fmt.Sprintf("venueconnect:optimize:%d:%s", tourID, optionsDigest)
}

// Digest hashes any JSON-encodable options value into a short hex string.
func Digest(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "nodigest"
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:8])
}

// Get returns the cached result for key, or ok=false on miss or any error.
func (c *ResultCache) Get(ctx context.Context, key string) (*tour.Result, bool) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.warn("cache read failed", key, err)
		return nil, false
	}
	var res tour.Result
	if err := json.Unmarshal(data, &res); err != nil {
		c.warn("cache entry corrupt", key, err)
		return nil, false
	}
	return &res, true
}

// Set stores the result under key for the configured TTL.
func (c *ResultCache) Set(ctx context.Context, key string, res *tour.Result) {
	data, err := json.Marshal(res)
	if err != nil {
		c.warn("cache encode failed", key, err)
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.warn("cache write failed", key, err)
	}
}

func (c *ResultCache) warn(msg, key string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, map[string]interface{}{"key": key, "error": err.Error()})
	}
}
