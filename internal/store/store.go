// Package store persists place records and memoized proximity searches.
package store

import (
	"context"
	"time"

	"matchamap/internal/models"
)

// PlaceStore is the durable cache of place records, keyed by provider place ID.
type PlaceStore interface {
	// Get returns the record, or (nil, nil) when none exists.
	Get(ctx context.Context, placeID string) (*models.PlaceCache, error)
	// GetMany returns the records that exist among placeIDs, in no particular order.
	GetMany(ctx context.Context, placeIDs []string) ([]models.PlaceCache, error)
	// Upsert inserts update.Record, or overwrites update.Columns of the existing row,
	// and returns the stored record.
	Upsert(ctx context.Context, update models.PlaceUpdate) (*models.PlaceCache, error)
}

// SearchCacheStore holds memoized proximity searches keyed by quantized query key.
type SearchCacheStore interface {
	// Get returns the entry, or (nil, nil) when none exists. Expiry is the caller's decision.
	Get(ctx context.Context, queryKey string) (*models.PlaceSearchCache, error)
	// Put creates the entry, replacing any entry with the same query key.
	Put(ctx context.Context, entry *models.PlaceSearchCache) error
	// Delete removes the entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, queryKey string) error
	// PurgeOlderThan removes entries created before cutoff and returns how many went.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
