// Package redis caches serialized analytics reports between requests.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const reportKeyPrefix = "hostel-flavour:report:"

// Connect creates a Redis client from a URL and verifies the connection.
func Connect(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

// ReportCache stores serialized analytics reports with a TTL. A cache miss
// is not an error; callers recompute and write back.
type ReportCache struct {
	rdb goredis.Cmdable
}

func NewReportCache(rdb goredis.Cmdable) *ReportCache {
	return &ReportCache{rdb: rdb}
}

func (c *ReportCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := c.rdb.Get(ctx, reportKeyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read report cache: %w", err)
	}
	return payload, true, nil
}

func (c *ReportCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, reportKeyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write report cache: %w", err)
	}
	return nil
}
