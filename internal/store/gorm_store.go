package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"matchamap/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPlaceStore keeps place records in the place_cache table.
type GormPlaceStore struct {
	db *gorm.DB
}

func NewGormPlaceStore(db *gorm.DB) *GormPlaceStore {
	return &GormPlaceStore{db: db}
}

func (s *GormPlaceStore) Get(ctx context.Context, placeID string) (*models.PlaceCache, error) {
	var place models.PlaceCache
	err := s.db.WithContext(ctx).Where("place_id = ?", placeID).First(&place).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load place %s: %w", placeID, err)
	}
	return &place, nil
}

func (s *GormPlaceStore) GetMany(ctx context.Context, placeIDs []string) ([]models.PlaceCache, error) {
	if len(placeIDs) == 0 {
		return []models.PlaceCache{}, nil
	}
	var places []models.PlaceCache
	if err := s.db.WithContext(ctx).Where("place_id IN ?", placeIDs).Find(&places).Error; err != nil {
		return nil, fmt.Errorf("failed to load %d places: %w", len(placeIDs), err)
	}
	return places, nil
}

// Upsert relies on INSERT ... ON CONFLICT so concurrent writers to one place ID each apply
// atomically; the last writer wins per column.
func (s *GormPlaceStore) Upsert(ctx context.Context, update models.PlaceUpdate) (*models.PlaceCache, error) {
	record := update.Record
	columns := append(append([]string{}, update.Columns...), "updated_at")

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "place_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&record).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert place %s: %w", record.PlaceID, err)
	}

	stored, err := s.Get(ctx, record.PlaceID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("place %s missing after upsert", record.PlaceID)
	}
	return stored, nil
}

// GormSearchCache keeps memoized searches in the place_search_cache table.
type GormSearchCache struct {
	db *gorm.DB
}

func NewGormSearchCache(db *gorm.DB) *GormSearchCache {
	return &GormSearchCache{db: db}
}

func (c *GormSearchCache) Get(ctx context.Context, queryKey string) (*models.PlaceSearchCache, error) {
	var entry models.PlaceSearchCache
	err := c.db.WithContext(ctx).Where("query_key = ?", queryKey).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load search cache %s: %w", queryKey, err)
	}
	return &entry, nil
}

func (c *GormSearchCache) Put(ctx context.Context, entry *models.PlaceSearchCache) error {
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "query_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"center_lat", "center_lng", "radius_meters", "keyword", "place_ids_json", "created_at",
		}),
	}).Create(entry).Error
	if err != nil {
		return fmt.Errorf("failed to store search cache %s: %w", entry.QueryKey, err)
	}
	return nil
}

func (c *GormSearchCache) Delete(ctx context.Context, queryKey string) error {
	err := c.db.WithContext(ctx).Where("query_key = ?", queryKey).Delete(&models.PlaceSearchCache{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete search cache %s: %w", queryKey, err)
	}
	return nil
}

func (c *GormSearchCache) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := c.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.PlaceSearchCache{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge search cache: %w", result.Error)
	}
	return result.RowsAffected, nil
}
