package models

import (
	"time"

	"gorm.io/gorm"
)

// PlaceSearchCache memoizes one proximity search: the place IDs it returned, in provider order.
// Entries are disposable indexes over PlaceCache; sorting is reapplied on every read.
type PlaceSearchCache struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	QueryKey     string     `gorm:"size:255;not null;uniqueIndex" json:"query_key"`
	CenterLat    float64    `gorm:"not null" json:"center_lat"`
	CenterLng    float64    `gorm:"not null" json:"center_lng"`
	RadiusMeters int        `gorm:"not null" json:"radius_meters"`
	Keyword      string     `gorm:"size:100;not null" json:"keyword"`
	PlaceIDs     StringList `gorm:"column:place_ids_json;type:jsonb;not null;default:'[]'" json:"place_ids"`
	CreatedAt    time.Time  `gorm:"not null;index" json:"created_at"`
}

// BeforeCreate hook is called before inserting a new cache entry
func (c *PlaceSearchCache) BeforeCreate(tx *gorm.DB) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return nil
}

// TableName specifies the table name for the PlaceSearchCache model
func (PlaceSearchCache) TableName() string {
	return "place_search_cache"
}

// IsExpired reports whether the entry is older than ttl at the given instant.
func (c *PlaceSearchCache) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.CreatedAt) >= ttl
}
