package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"matchamap/internal/models"
	"matchamap/internal/provider"
	"matchamap/internal/store"
)

// fakeProvider is a provider.Client that serves canned payloads and counts calls.
type fakeProvider struct {
	mu sync.Mutex

	details     map[string]models.PlacePayload
	detailErrs  map[string]error
	nearby      []models.PlacePayload
	nearbyErr   error
	text        []models.PlacePayload
	predictions []provider.Prediction

	detailCalls       map[string]int
	nearbyCalls       int
	textCalls         int
	autocompleteCalls int
	lastNearby        provider.NearbyRequest
	lastText          provider.TextSearchRequest
	lastAutocomplete  provider.AutocompleteRequest
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		details:     make(map[string]models.PlacePayload),
		detailErrs:  make(map[string]error),
		detailCalls: make(map[string]int),
	}
}

func (f *fakeProvider) Autocomplete(ctx context.Context, req provider.AutocompleteRequest) ([]provider.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.autocompleteCalls++
	f.lastAutocomplete = req
	return f.predictions, nil
}

func (f *fakeProvider) Details(ctx context.Context, placeID string) (*models.PlacePayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls[placeID]++
	if err := f.detailErrs[placeID]; err != nil {
		return nil, err
	}
	payload, ok := f.details[placeID]
	if !ok {
		return nil, nil
	}
	return &payload, nil
}

func (f *fakeProvider) Nearby(ctx context.Context, req provider.NearbyRequest) ([]models.PlacePayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nearbyCalls++
	f.lastNearby = req
	if f.nearbyErr != nil {
		return nil, f.nearbyErr
	}
	return append([]models.PlacePayload(nil), f.nearby...), nil
}

func (f *fakeProvider) TextSearch(ctx context.Context, req provider.TextSearchRequest) ([]models.PlacePayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textCalls++
	f.lastText = req
	return append([]models.PlacePayload(nil), f.text...), nil
}

func (f *fakeProvider) PhotoURL(photoRef string, maxWidth int) string {
	if photoRef == "" {
		return ""
	}
	return fmt.Sprintf("photo:%s:%d", photoRef, maxWidth)
}

func (f *fakeProvider) totalDetailCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.detailCalls {
		total += n
	}
	return total
}

// countingCache wraps a SearchCacheStore and counts reads.
type countingCache struct {
	store.SearchCacheStore
	mu   sync.Mutex
	gets int
}

func (c *countingCache) Get(ctx context.Context, queryKey string) (*models.PlaceSearchCache, error) {
	c.mu.Lock()
	c.gets++
	c.mu.Unlock()
	return c.SearchCacheStore.Get(ctx, queryKey)
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func summaryPayload(id string, lat, lng, rating float64, total int, photo string) models.PlacePayload {
	p := models.PlacePayload{
		PlaceID:          id,
		Name:             "Summary " + id,
		Vicinity:         "Near " + id,
		Geometry:         &models.Geometry{Location: models.LatLng{Lat: lat, Lng: lng}},
		Rating:           floatPtr(rating),
		UserRatingsTotal: intPtr(total),
		Types:            []string{"cafe", "point_of_interest", "establishment"},
	}
	if photo != "" {
		p.Photos = []models.Photo{{PhotoReference: photo}}
	}
	return p
}

func detailPayload(id, photo string) models.PlacePayload {
	p := models.PlacePayload{
		PlaceID:              id,
		Name:                 "Detail " + id,
		FormattedAddress:     "1 Tea St, " + id,
		Geometry:             &models.Geometry{Location: models.LatLng{Lat: 40.7128, Lng: -74.0060}},
		Rating:               floatPtr(4.6),
		UserRatingsTotal:     intPtr(250),
		Types:                []string{"cafe", "point_of_interest", "food", "store", "establishment"},
		FormattedPhoneNumber: "(212) 555-0100",
		Website:              "https://" + id + ".example",
		OpeningHours:         &models.OpeningHours{WeekdayText: []string{"Monday: 8 AM - 6 PM"}},
		Reviews: []models.Review{
			{AuthorName: "Aki", Rating: 5, Text: "Best matcha", RelativeTimeDescription: "a week ago"},
			{AuthorName: "Ben", Rating: 4, Text: "Good latte", RelativeTimeDescription: "2 months ago"},
		},
		EditorialSummary: &models.EditorialSummary{Overview: "Ceremonial grade matcha bar"},
	}
	if photo != "" {
		p.Photos = []models.Photo{{PhotoReference: photo}, {PhotoReference: photo + "-2"}}
	}
	return p
}
