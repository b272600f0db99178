package shipping

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateCache keeps rate rows in Redis. The data is read-mostly admin config,
// so a short TTL plus invalidation on mutation is enough.
type RateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRateCache constructs a RateCache.
func NewRateCache(client *redis.Client, ttl time.Duration) *RateCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RateCache{client: client, ttl: ttl}
}

func rateKey(methodID, regionID int64) string {
	return fmt.Sprintf("shiprate:%d:%d", methodID, regionID)
}

// Get returns the cached rate, reporting a miss with ok=false.
func (c *RateCache) Get(ctx context.Context, methodID, regionID int64) (Rate, bool) {
	if c == nil || c.client == nil {
		return Rate{}, false
	}
	raw, err := c.client.Get(ctx, rateKey(methodID, regionID)).Bytes()
	if err != nil {
		return Rate{}, false
	}
	var rate Rate
	if err := json.Unmarshal(raw, &rate); err != nil {
		return Rate{}, false
	}
	return rate, true
}

// Set stores a rate row.
func (c *RateCache) Set(ctx context.Context, rate Rate) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(rate)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, rateKey(rate.MethodID, rate.RegionID), raw, c.ttl).Err()
}

// Invalidate drops the cached rate for a pair.
func (c *RateCache) Invalidate(ctx context.Context, methodID, regionID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, rateKey(methodID, regionID)).Err()
}

// InvalidateRegion drops every cached rate touching the region.
func (c *RateCache) InvalidateRegion(ctx context.Context, regionID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	pattern := fmt.Sprintf("shiprate:*:%d", regionID)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
