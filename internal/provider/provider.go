// Package provider talks to the upstream places API. Everything above this package sees
// places only as models.PlacePayload values.
package provider

import (
	"context"
	"fmt"
	"net/url"

	"matchamap/internal/models"
)

// Client is the upstream places provider.
type Client interface {
	// Autocomplete returns place predictions for partial input.
	Autocomplete(ctx context.Context, req AutocompleteRequest) ([]Prediction, error)
	// Details fetches the full record for one place. It returns nil, nil when the provider
	// does not know the place.
	Details(ctx context.Context, placeID string) (*models.PlacePayload, error)
	// Nearby runs a keyword search around a point.
	Nearby(ctx context.Context, req NearbyRequest) ([]models.PlacePayload, error)
	// TextSearch runs a free-text search.
	TextSearch(ctx context.Context, req TextSearchRequest) ([]models.PlacePayload, error)
	// PhotoURL builds a fetchable URL for a photo reference, or "" when that is not possible.
	PhotoURL(photoRef string, maxWidth int) string
}

// Autocomplete prediction types
const (
	TypesGeocode       = "geocode"
	TypesEstablishment = "establishment"
)

type AutocompleteRequest struct {
	Input string
	Types string
}

type Prediction struct {
	Description string `json:"description"`
	PlaceID     string `json:"placeId"`
}

type NearbyRequest struct {
	Lat          float64
	Lng          float64
	RadiusMeters int
	Keyword      string
	Category     string
}

type TextSearchRequest struct {
	Query    string
	Category string
}

const photoEndpoint = "https://maps.googleapis.com/maps/api/place/photo"

// PhotoURL builds the provider photo URL for a reference. It returns "" when the reference or
// the API key is missing.
func PhotoURL(apiKey, photoRef string, maxWidth int) string {
	if photoRef == "" || apiKey == "" {
		return ""
	}
	return fmt.Sprintf("%s?maxwidth=%d&photo_reference=%s&key=%s",
		photoEndpoint, maxWidth, url.QueryEscape(photoRef), url.QueryEscape(apiKey))
}
