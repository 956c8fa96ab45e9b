// Package places holds the completeness policy for cached place records: when a cached record
// is good enough to serve, and how a fresh provider payload is merged into it without losing
// richer data captured earlier.
package places

import (
	"encoding/json"
	"fmt"

	"matchamap/internal/models"

	"gorm.io/datatypes"
)

// IsFull reports whether a cached record carries enough detail to be served without a fetch:
// at least one photo, and either reviews or a detail-only descriptive field.
// A record with no raw payload is never full.
func IsFull(record *models.PlaceCache) bool {
	if record == nil {
		return false
	}
	payload, err := record.Payload()
	if err != nil || payload == nil {
		return false
	}
	if payload.FirstPhotoReference() == "" {
		return false
	}
	return payload.HasReviews() || payload.HasDetailedFields()
}

// NeedsRefresh reports whether a detail fetch is warranted for the record.
func NeedsRefresh(record *models.PlaceCache, force bool) bool {
	return force || record == nil || !IsFull(record)
}

// PhotoRef returns the record's photo reference, falling back to the first photo in its raw
// payload.
func PhotoRef(record *models.PlaceCache) string {
	if record == nil {
		return ""
	}
	if record.PhotoRef != "" {
		return record.PhotoRef
	}
	payload, err := record.Payload()
	if err != nil || payload == nil {
		return ""
	}
	return payload.FirstPhotoReference()
}

var summaryColumns = []string{
	models.ColName,
	models.ColAddress,
	models.ColRating,
	models.ColUserRatingsTotal,
	models.ColPriceLevel,
	models.ColTypes,
}

var detailOnlyColumns = []string{
	models.ColPhone,
	models.ColWebsite,
	models.ColOpeningHours,
}

// MergeDetail merges a detail-style payload into the existing record (nil when absent).
// Every field is overwritten except the photo reference and coordinates, which are only
// replaced when the payload has them. The raw payload is always replaced.
func MergeDetail(existing *models.PlaceCache, fresh *models.PlacePayload) (models.PlaceUpdate, error) {
	record, columns, err := baseRecord(fresh)
	if err != nil {
		return models.PlaceUpdate{}, err
	}

	record.Phone = fresh.FormattedPhoneNumber
	record.Website = fresh.Website
	if fresh.OpeningHours != nil {
		hours, err := json.Marshal(fresh.OpeningHours)
		if err != nil {
			return models.PlaceUpdate{}, fmt.Errorf("failed to encode opening hours for %s: %w", fresh.PlaceID, err)
		}
		record.OpeningHours = datatypes.JSON(hours)
	}

	raw, err := json.Marshal(fresh)
	if err != nil {
		return models.PlaceUpdate{}, fmt.Errorf("failed to encode payload for %s: %w", fresh.PlaceID, err)
	}
	record.RawJSON = datatypes.JSON(raw)

	columns = append(columns, detailOnlyColumns...)
	columns = append(columns, models.ColRawJSON)

	applyPhotoRule(existing, fresh, &record, &columns)

	return models.PlaceUpdate{Record: record, Columns: columns}, nil
}

// MergeSummary merges a summary-style payload (nearby or text search) into the existing record.
// Only fields a summary carries are overwritten. The photo reference is kept unless the payload
// has one, and the raw payload is kept when the cached one has reviews and the fresh one does
// not, so a cheap search result never clobbers a detail fetch already on file.
func MergeSummary(existing *models.PlaceCache, fresh *models.PlacePayload) (models.PlaceUpdate, error) {
	record, columns, err := baseRecord(fresh)
	if err != nil {
		return models.PlaceUpdate{}, err
	}

	raw, err := json.Marshal(fresh)
	if err != nil {
		return models.PlaceUpdate{}, fmt.Errorf("failed to encode payload for %s: %w", fresh.PlaceID, err)
	}
	record.RawJSON = datatypes.JSON(raw)

	if existing != nil {
		cached, _ := existing.Payload()
		if cached.HasReviews() && !fresh.HasReviews() {
			record.RawJSON = existing.RawJSON
		} else {
			columns = append(columns, models.ColRawJSON)
		}
	}

	applyPhotoRule(existing, fresh, &record, &columns)

	return models.PlaceUpdate{Record: record, Columns: columns}, nil
}

// baseRecord maps the fields every payload shape carries. Coordinates are only written when the
// payload has them, so a known location is never blanked.
func baseRecord(fresh *models.PlacePayload) (models.PlaceCache, []string, error) {
	if fresh == nil || fresh.PlaceID == "" {
		return models.PlaceCache{}, nil, fmt.Errorf("payload has no place id")
	}

	record := models.PlaceCache{
		PlaceID:          fresh.PlaceID,
		Name:             fresh.Name,
		Address:          fresh.Address(),
		Rating:           fresh.Rating,
		UserRatingsTotal: fresh.UserRatingsTotal,
		PriceLevel:       fresh.PriceLevel,
		Types:            models.StringList(append([]string{}, fresh.Types...)),
	}
	columns := append([]string{}, summaryColumns...)
	if fresh.Geometry != nil {
		lat, lng := fresh.Geometry.Location.Lat, fresh.Geometry.Location.Lng
		record.Lat = &lat
		record.Lng = &lng
		columns = append(columns, models.ColLat, models.ColLng)
	}
	return record, columns, nil
}

// applyPhotoRule sets the photo reference only when the payload has one; otherwise the
// existing value is carried over and the column is left out of the overwrite set.
func applyPhotoRule(existing *models.PlaceCache, fresh *models.PlacePayload, record *models.PlaceCache, columns *[]string) {
	if ref := fresh.FirstPhotoReference(); ref != "" {
		record.PhotoRef = ref
		*columns = append(*columns, models.ColPhotoRef)
		return
	}
	if existing != nil {
		record.PhotoRef = existing.PhotoRef
	}
}
