package store

import (
	"context"
	"sync"
	"time"

	"matchamap/internal/models"
)

// MemoryPlaceStore is an in-process PlaceStore for local development and tests.
type MemoryPlaceStore struct {
	mu     sync.RWMutex
	places map[string]models.PlaceCache
	now    func() time.Time
}

func NewMemoryPlaceStore() *MemoryPlaceStore {
	return &MemoryPlaceStore{
		places: make(map[string]models.PlaceCache),
		now:    time.Now,
	}
}

func (s *MemoryPlaceStore) Get(ctx context.Context, placeID string) (*models.PlaceCache, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	place, ok := s.places[placeID]
	if !ok {
		return nil, nil
	}
	return &place, nil
}

func (s *MemoryPlaceStore) GetMany(ctx context.Context, placeIDs []string) ([]models.PlaceCache, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	places := make([]models.PlaceCache, 0, len(placeIDs))
	seen := make(map[string]bool, len(placeIDs))
	for _, id := range placeIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if place, ok := s.places[id]; ok {
			places = append(places, place)
		}
	}
	return places, nil
}

func (s *MemoryPlaceStore) Upsert(ctx context.Context, update models.PlaceUpdate) (*models.PlaceCache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	place, ok := s.places[update.Record.PlaceID]
	if ok {
		place.Assign(&update.Record, update.Columns)
	} else {
		place = update.Record
		place.CreatedAt = now
	}
	place.UpdatedAt = now
	s.places[place.PlaceID] = place

	return &place, nil
}

// Len returns how many places are stored.
func (s *MemoryPlaceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.places)
}

// MemorySearchCache is an in-process SearchCacheStore for local development and tests.
type MemorySearchCache struct {
	mu      sync.RWMutex
	entries map[string]models.PlaceSearchCache
}

func NewMemorySearchCache() *MemorySearchCache {
	return &MemorySearchCache{entries: make(map[string]models.PlaceSearchCache)}
}

func (c *MemorySearchCache) Get(ctx context.Context, queryKey string) (*models.PlaceSearchCache, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[queryKey]
	if !ok {
		return nil, nil
	}
	entry.PlaceIDs = append(models.StringList(nil), entry.PlaceIDs...)
	return &entry, nil
}

func (c *MemorySearchCache) Put(ctx context.Context, entry *models.PlaceSearchCache) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := *entry
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	stored.PlaceIDs = append(models.StringList(nil), entry.PlaceIDs...)
	c.entries[entry.QueryKey] = stored
	return nil
}

func (c *MemorySearchCache) Delete(ctx context.Context, queryKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, queryKey)
	return nil
}

func (c *MemorySearchCache) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var purged int64
	for key, entry := range c.entries {
		if entry.CreatedAt.Before(cutoff) {
			delete(c.entries, key)
			purged++
		}
	}
	return purged, nil
}
