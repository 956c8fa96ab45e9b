package services

import (
	"context"
	"time"

	"matchamap/internal/logger"
	"matchamap/internal/store"

	"go.uber.org/zap"
)

// CacheJanitor periodically removes search cache entries older than the freshness window.
// Reads already treat such entries as absent; the janitor only reclaims space.
type CacheJanitor struct {
	cache    store.SearchCacheStore
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	log      *zap.SugaredLogger
}

func NewCacheJanitor(cache store.SearchCacheStore, ttl, interval time.Duration) *CacheJanitor {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &CacheJanitor{
		cache:    cache,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
		log:      logger.GetLogger("janitor"),
	}
}

// Start runs the janitor until ctx is cancelled.
func (j *CacheJanitor) Start(ctx context.Context) {
	go j.run(ctx)
}

func (j *CacheJanitor) run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep purges expired entries once and returns how many were removed.
func (j *CacheJanitor) Sweep(ctx context.Context) int64 {
	purged, err := j.cache.PurgeOlderThan(ctx, j.now().Add(-j.ttl))
	if err != nil {
		j.log.Errorw("failed to purge search cache", "error", err)
		return purged
	}
	if purged > 0 {
		cachePurged.Add(float64(purged))
		j.log.Infow("purged expired search cache entries", "count", purged)
	}
	return purged
}
