package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"matchamap/internal/models"

	"github.com/redis/go-redis/v9"
)

const redisSearchPrefix = "matchamap:search:"

// RedisSearchCache keeps memoized searches in Redis as JSON values.
// Keys carry a Redis TTL of retention so abandoned entries are reclaimed without the janitor;
// freshness is still judged from CreatedAt by the caller.
type RedisSearchCache struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisSearchCache creates a Redis-backed search cache. retention should exceed the
// freshness window.
func NewRedisSearchCache(client *redis.Client, retention time.Duration) *RedisSearchCache {
	return &RedisSearchCache{client: client, retention: retention}
}

func (c *RedisSearchCache) Get(ctx context.Context, queryKey string) (*models.PlaceSearchCache, error) {
	data, err := c.client.Get(ctx, redisSearchPrefix+queryKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load search cache %s: %w", queryKey, err)
	}

	var entry models.PlaceSearchCache
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode search cache %s: %w", queryKey, err)
	}
	return &entry, nil
}

func (c *RedisSearchCache) Put(ctx context.Context, entry *models.PlaceSearchCache) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode search cache %s: %w", entry.QueryKey, err)
	}
	if err := c.client.Set(ctx, redisSearchPrefix+entry.QueryKey, data, c.retention).Err(); err != nil {
		return fmt.Errorf("failed to store search cache %s: %w", entry.QueryKey, err)
	}
	return nil
}

func (c *RedisSearchCache) Delete(ctx context.Context, queryKey string) error {
	if err := c.client.Del(ctx, redisSearchPrefix+queryKey).Err(); err != nil {
		return fmt.Errorf("failed to delete search cache %s: %w", queryKey, err)
	}
	return nil
}

func (c *RedisSearchCache) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	iter := c.client.Scan(ctx, 0, redisSearchPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return purged, fmt.Errorf("failed to read %s: %w", key, err)
		}

		var entry models.PlaceSearchCache
		if err := json.Unmarshal(data, &entry); err == nil && !entry.CreatedAt.Before(cutoff) {
			continue
		}
		if err := c.client.Del(ctx, key).Err(); err != nil {
			return purged, fmt.Errorf("failed to delete %s: %w", key, err)
		}
		purged++
	}
	if err := iter.Err(); err != nil {
		return purged, fmt.Errorf("failed to scan search cache: %w", err)
	}
	return purged, nil
}
