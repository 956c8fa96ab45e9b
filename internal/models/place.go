package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StringList represents a list of strings that can be stored as JSONB
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = make([]string, 0)
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
}

// Place cache column names, used to tell an upsert which columns it may overwrite.
const (
	ColName             = "name"
	ColAddress          = "address"
	ColLat              = "lat"
	ColLng              = "lng"
	ColRating           = "rating"
	ColUserRatingsTotal = "user_ratings_total"
	ColPriceLevel       = "price_level"
	ColTypes            = "types"
	ColPhotoRef         = "photo_ref"
	ColPhone            = "phone"
	ColWebsite          = "website"
	ColOpeningHours     = "opening_hours"
	ColRawJSON          = "raw_json"
)

// PlaceCache is one venue as known to this system, keyed by the provider place ID.
// Records are only ever upserted; nothing deletes them.
type PlaceCache struct {
	PlaceID          string         `gorm:"primaryKey;size:255" json:"place_id"`
	Name             string         `gorm:"size:255" json:"name"`
	Address          string         `gorm:"size:500" json:"address"`
	Lat              *float64       `gorm:"type:double precision" json:"lat,omitempty"`
	Lng              *float64       `gorm:"type:double precision" json:"lng,omitempty"`
	Rating           *float64       `gorm:"type:double precision" json:"rating,omitempty"`
	UserRatingsTotal *int           `json:"user_ratings_total,omitempty"`
	PriceLevel       *int           `gorm:"type:smallint" json:"price_level,omitempty"`
	Types            StringList     `gorm:"type:jsonb;default:'[]'" json:"types"`
	PhotoRef         string         `gorm:"type:text" json:"photo_ref,omitempty"`
	Phone            string         `gorm:"size:50" json:"phone,omitempty"`
	Website          string         `gorm:"type:text" json:"website,omitempty"`
	OpeningHours     datatypes.JSON `gorm:"type:jsonb" json:"opening_hours,omitempty"`
	RawJSON          datatypes.JSON `gorm:"type:jsonb" json:"raw_json,omitempty"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;index" json:"updated_at"`
}

// BeforeCreate hook is called before inserting a new place
func (p *PlaceCache) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	return nil
}

// TableName specifies the table name for the PlaceCache model
func (PlaceCache) TableName() string {
	return "place_cache"
}

// HasCoordinates reports whether the record can take part in distance ranking.
func (p *PlaceCache) HasCoordinates() bool {
	return p.Lat != nil && p.Lng != nil
}

// Payload decodes the stored raw provider payload. A record without one yields (nil, nil).
func (p *PlaceCache) Payload() (*PlacePayload, error) {
	if len(p.RawJSON) == 0 || string(p.RawJSON) == "null" {
		return nil, nil
	}
	var payload PlacePayload
	if err := json.Unmarshal(p.RawJSON, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode raw payload for %s: %w", p.PlaceID, err)
	}
	return &payload, nil
}

// DecodedOpeningHours returns the stored weekly schedule, or nil when none is known.
func (p *PlaceCache) DecodedOpeningHours() *OpeningHours {
	if len(p.OpeningHours) == 0 || string(p.OpeningHours) == "null" {
		return nil
	}
	var hours OpeningHours
	if err := json.Unmarshal(p.OpeningHours, &hours); err != nil {
		return nil
	}
	return &hours
}

// Assign copies the named columns from src onto p. Unknown column names are ignored.
func (p *PlaceCache) Assign(src *PlaceCache, columns []string) {
	for _, col := range columns {
		switch col {
		case ColName:
			p.Name = src.Name
		case ColAddress:
			p.Address = src.Address
		case ColLat:
			p.Lat = src.Lat
		case ColLng:
			p.Lng = src.Lng
		case ColRating:
			p.Rating = src.Rating
		case ColUserRatingsTotal:
			p.UserRatingsTotal = src.UserRatingsTotal
		case ColPriceLevel:
			p.PriceLevel = src.PriceLevel
		case ColTypes:
			p.Types = append(StringList(nil), src.Types...)
		case ColPhotoRef:
			p.PhotoRef = src.PhotoRef
		case ColPhone:
			p.Phone = src.Phone
		case ColWebsite:
			p.Website = src.Website
		case ColOpeningHours:
			p.OpeningHours = append(datatypes.JSON(nil), src.OpeningHours...)
		case ColRawJSON:
			p.RawJSON = append(datatypes.JSON(nil), src.RawJSON...)
		}
	}
}

// PlaceUpdate is a write to the place cache: the values to store and the columns an existing
// row may have overwritten. A new row is always created from every field of Record.
type PlaceUpdate struct {
	Record  PlaceCache
	Columns []string
}
