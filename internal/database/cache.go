package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Cache implementation
type Cache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewCache(client *redis.Client, logger *logrus.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger,
	}
}

// Cache key constants
const (
	askResponseKey = "ask:response:%s"
	queryStatsKey  = "ask:stats"
)

// CacheAskResponse caches a full ask response keyed by normalized query hash.
func (c *Cache) CacheAskResponse(ctx context.Context, queryHash string, response interface{}, expiration time.Duration) error {
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal ask response: %w", err)
	}
	return c.client.Set(ctx, fmt.Sprintf(askResponseKey, queryHash), data, expiration).Err()
}

// GetCachedAskResponse retrieves a cached ask response into result.
func (c *Cache) GetCachedAskResponse(ctx context.Context, queryHash string, result interface{}) error {
	data, err := c.client.Get(ctx, fmt.Sprintf(askResponseKey, queryHash)).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), result)
}

// CacheQueryStats caches the aggregated statistics payload.
func (c *Cache) CacheQueryStats(ctx context.Context, stats interface{}, expiration time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	return c.client.Set(ctx, queryStatsKey, data, expiration).Err()
}

// GetCachedQueryStats retrieves cached statistics into result.
func (c *Cache) GetCachedQueryStats(ctx context.Context, result interface{}) error {
	data, err := c.client.Get(ctx, queryStatsKey).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), result)
}

// InvalidateQueryStats drops the stats cache, used after new audit records.
func (c *Cache) InvalidateQueryStats(ctx context.Context) error {
	return c.client.Del(ctx, queryStatsKey).Err()
}
