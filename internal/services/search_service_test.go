package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"matchamap/internal/geo"
	"matchamap/internal/models"
	"matchamap/internal/store"
)

type searchFixture struct {
	svc    *SearchService
	fake   *fakeProvider
	places *store.MemoryPlaceStore
	cache  *countingCache
	clock  *clock
}

func newSearchFixture() *searchFixture {
	fake := newFakeProvider()
	placeStore := store.NewMemoryPlaceStore()
	cache := &countingCache{SearchCacheStore: store.NewMemorySearchCache()}
	clk := &clock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	opts := Options{Now: clk.Now}

	resolver := NewPlaceService(placeStore, fake, opts)
	return &searchFixture{
		svc:    NewSearchService(cache, placeStore, fake, resolver, opts),
		fake:   fake,
		places: placeStore,
		cache:  cache,
		clock:  clk,
	}
}

func nycQuery(sort string) NearbyQuery {
	return NearbyQuery{Lat: floatPtr(40.7128), Lng: floatPtr(-74.0060), RadiusMeters: 3000, Sort: sort}
}

func placeIDs(places []PlaceSummary) []string {
	ids := make([]string, len(places))
	for i, p := range places {
		ids[i] = p.PlaceID
	}
	return ids
}

func nycResults() []models.PlacePayload {
	return []models.PlacePayload{
		summaryPayload("far-popular", 40.7300, -74.0000, 4.5, 900, "ref-1"),
		summaryPayload("near-unrated", 40.7129, -74.0061, 0, 0, "ref-2"),
		summaryPayload("mid-good", 40.7200, -74.0030, 4.8, 60, "ref-3"),
	}
}

func TestSearchNearbyCacheHit(t *testing.T) {
	f := newSearchFixture()
	f.fake.nearby = nycResults()
	ctx := context.Background()

	first, err := f.svc.SearchNearby(ctx, nycQuery("default"))
	if err != nil {
		t.Fatalf("SearchNearby: %v", err)
	}
	if first.Meta.FromCache {
		t.Error("first search reported fromCache")
	}

	f.clock.Advance(30 * time.Minute)
	second, err := f.svc.SearchNearby(ctx, nycQuery("default"))
	if err != nil {
		t.Fatalf("SearchNearby: %v", err)
	}
	if !second.Meta.FromCache {
		t.Error("second search within the freshness window should come from cache")
	}
	if f.fake.nearbyCalls != 1 {
		t.Errorf("provider nearby calls = %d, want 1", f.fake.nearbyCalls)
	}

	a, b := placeIDs(first.Places), placeIDs(second.Places)
	if fmt.Sprint(a) != fmt.Sprint(b) {
		t.Errorf("cached ids %v differ from fresh %v", b, a)
	}
	if second.Center.Lat != 40.7128 || second.Center.Lng != -74.0060 {
		t.Errorf("Center = %+v", second.Center)
	}
}

func TestSearchNearbyExpiry(t *testing.T) {
	f := newSearchFixture()
	f.fake.nearby = nycResults()
	ctx := context.Background()

	if _, err := f.svc.SearchNearby(ctx, nycQuery("default")); err != nil {
		t.Fatalf("SearchNearby: %v", err)
	}
	key := geo.NewSearchKey(40.7128, -74.0060, 3000, "matcha").String()
	before, _ := f.cache.SearchCacheStore.Get(ctx, key)
	if before == nil {
		t.Fatal("no cache entry after first search")
	}

	f.clock.Advance(61 * time.Minute)
	result, err := f.svc.SearchNearby(ctx, nycQuery("default"))
	if err != nil {
		t.Fatalf("SearchNearby: %v", err)
	}
	if result.Meta.FromCache {
		t.Error("expired entry served from cache")
	}
	if f.fake.nearbyCalls != 2 {
		t.Errorf("provider nearby calls = %d, want 2", f.fake.nearbyCalls)
	}

	after, _ := f.cache.SearchCacheStore.Get(ctx, key)
	if after == nil || !after.CreatedAt.After(before.CreatedAt) {
		t.Errorf("cache entry not replaced: before %v after %v", before, after)
	}
}

func TestSearchNearbySameCellSharesEntry(t *testing.T) {
	f := newSearchFixture()
	f.fake.nearby = nycResults()
	ctx := context.Background()

	if _, err := f.svc.SearchNearby(ctx, nycQuery("default")); err != nil {
		t.Fatalf("SearchNearby: %v", err)
	}
	nudged := NearbyQuery{Lat: floatPtr(40.71281), Lng: floatPtr(-74.00601), RadiusMeters: 3000}
	result, err := f.svc.SearchNearby(ctx, nudged)
	if err != nil {
		t.Fatalf("SearchNearby: %v", err)
	}
	if !result.Meta.FromCache {
		t.Error("a point in the same cell should hit the cache")
	}
}

func TestSearchNearbyValidation(t *testing.T) {
	tests := []struct {
		name  string
		query NearbyQuery
	}{
		{"missing lat", NearbyQuery{Lng: floatPtr(-74.0), RadiusMeters: 3000}},
		{"missing lng", NearbyQuery{Lat: floatPtr(40.7), RadiusMeters: 3000}},
		{"lat out of range", NearbyQuery{Lat: floatPtr(95), Lng: floatPtr(-74.0)}},
		{"radius too large", NearbyQuery{Lat: floatPtr(40.7), Lng: floatPtr(-74.0), RadiusMeters: 60000}},
		{"negative radius", NearbyQuery{Lat: floatPtr(40.7), Lng: floatPtr(-74.0), RadiusMeters: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSearchFixture()
			_, err := f.svc.SearchNearby(context.Background(), tt.query)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			if f.cache.gets != 0 || f.fake.nearbyCalls != 0 || f.fake.totalDetailCalls() != 0 {
				t.Errorf("accessed cache/provider: gets=%d nearby=%d details=%d",
					f.cache.gets, f.fake.nearbyCalls, f.fake.totalDetailCalls())
			}
		})
	}
}

func TestSearchNearbyDefaultRadius(t *testing.T) {
	f := newSearchFixture()
	q := nycQuery("")
	q.RadiusMeters = 0
	if _, err := f.svc.SearchNearby(context.Background(), q); err != nil {
		t.Fatalf("SearchNearby: %v", err)
	}
	if f.fake.lastNearby.RadiusMeters != 3000 {
		t.Errorf("radius = %d, want default 3000", f.fake.lastNearby.RadiusMeters)
	}
	if f.fake.lastNearby.Keyword != "matcha" || f.fake.lastNearby.Category != "cafe" {
		t.Errorf("request = %+v", f.fake.lastNearby)
	}
}

func TestSearchNearbySorting(t *testing.T) {
	tests := []struct {
		sort string
		want []string
	}{
		{"distance", []string{"near-unrated", "mid-good", "far-popular"}},
		{"rating", []string{"mid-good", "far-popular", "near-unrated"}},
		{"popularity", []string{"far-popular", "mid-good", "near-unrated"}},
		{"default", []string{"far-popular", "mid-good", "near-unrated"}},
	}

	for _, tt := range tests {
		t.Run(tt.sort, func(t *testing.T) {
			f := newSearchFixture()
			f.fake.nearby = nycResults()
			result, err := f.svc.SearchNearby(context.Background(), nycQuery(tt.sort))
			if err != nil {
				t.Fatalf("SearchNearby: %v", err)
			}
			if got := placeIDs(result.Places); fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
			for i := 1; tt.sort == "distance" && i < len(result.Places); i++ {
				if *result.Places[i].Distance < *result.Places[i-1].Distance {
					t.Errorf("distance decreased at %d", i)
				}
			}
		})
	}
}

func TestSearchNearbyHydrationDropsMissingIDs(t *testing.T) {
	f := newSearchFixture()
	ctx := context.Background()

	if _, err := f.svc.resolver.StoreSummaries(ctx, []models.PlacePayload{summaryPayload("known", 40.713, -74.006, 4.0, 5, "ref-k")}); err != nil {
		t.Fatalf("StoreSummaries: %v", err)
	}
	key := geo.NewSearchKey(40.7128, -74.0060, 3000, "matcha").String()
	err := f.cache.Put(ctx, &models.PlaceSearchCache{
		QueryKey:     key,
		RadiusMeters: 3000,
		Keyword:      "matcha",
		PlaceIDs:     models.StringList{"gone", "known"},
		CreatedAt:    f.clock.Now(),
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	result, err := f.svc.SearchNearby(ctx, nycQuery("default"))
	if err != nil {
		t.Fatalf("SearchNearby: %v", err)
	}
	if !result.Meta.FromCache || len(result.Places) != 1 || result.Places[0].PlaceID != "known" {
		t.Errorf("result = %+v", result)
	}
	if f.fake.nearbyCalls != 0 {
		t.Error("cache hit should not query the provider")
	}
}

func TestSearchNearbyKeepsRichPayload(t *testing.T) {
	f := newSearchFixture()
	ctx := context.Background()

	f.fake.details["p1"] = detailPayload("p1", "ref-detail")
	if _, err := f.svc.resolver.Resolve(ctx, "p1", false); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	// The summary for the same place has neither reviews nor a photo.
	f.fake.nearby = []models.PlacePayload{summaryPayload("p1", 40.7128, -74.0060, 4.7, 260, "")}
	result, err := f.svc.SearchNearby(ctx, nycQuery("default"))
	if err != nil {
		t.Fatalf("SearchNearby: %v", err)
	}
	if len(result.Places) != 1 || result.Places[0].PhotoURL == nil {
		t.Fatalf("result = %+v", result.Places)
	}

	stored, _ := f.places.Get(ctx, "p1")
	payload, err := stored.Payload()
	if err != nil || !payload.HasReviews() {
		t.Errorf("summary upsert clobbered reviews: %+v %v", payload, err)
	}
	if stored.PhotoRef != "ref-detail" {
		t.Errorf("PhotoRef = %q, want ref-detail", stored.PhotoRef)
	}
	if stored.Name != "Summary p1" || *stored.UserRatingsTotal != 260 {
		t.Errorf("summary fields not refreshed: %+v", stored)
	}

	if _, err := f.svc.resolver.Resolve(ctx, "p1", false); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if f.fake.detailCalls["p1"] != 1 {
		t.Errorf("detail fetches = %d, record should still be full", f.fake.detailCalls["p1"])
	}
}

func TestSearchNearbyBackfillFailureDoesNotFailBatch(t *testing.T) {
	f := newSearchFixture()
	f.fake.nearby = []models.PlacePayload{
		summaryPayload("fixable", 40.7130, -74.0060, 4.0, 10, ""),
		summaryPayload("broken", 40.7140, -74.0060, 4.0, 10, ""),
	}
	f.fake.details["fixable"] = detailPayload("fixable", "ref-fixed")
	f.fake.detailErrs["broken"] = errors.New("upstream 500")

	result, err := f.svc.SearchNearby(context.Background(), nycQuery("distance"))
	if err != nil {
		t.Fatalf("SearchNearby: %v", err)
	}
	if len(result.Places) != 2 {
		t.Fatalf("got %d places, want 2", len(result.Places))
	}
	byID := map[string]PlaceSummary{}
	for _, p := range result.Places {
		byID[p.PlaceID] = p
	}
	if p := byID["fixable"]; p.PhotoURL == nil || *p.PhotoURL != "photo:ref-fixed:400" {
		t.Errorf("fixable PhotoURL = %v", p.PhotoURL)
	}
	if p := byID["broken"]; p.PhotoURL != nil {
		t.Errorf("broken PhotoURL = %v, want nil", *p.PhotoURL)
	}
}

func TestSearchNearbyProviderError(t *testing.T) {
	f := newSearchFixture()
	f.fake.nearbyErr = errors.New("quota exceeded")

	if _, err := f.svc.SearchNearby(context.Background(), nycQuery("default")); !errors.Is(err, ErrProvider) {
		t.Errorf("err = %v, want ErrProvider", err)
	}
}

func TestSearchNearbyZeroResults(t *testing.T) {
	f := newSearchFixture()
	result, err := f.svc.SearchNearby(context.Background(), nycQuery("default"))
	if err != nil {
		t.Fatalf("SearchNearby: %v", err)
	}
	if result.Places == nil || len(result.Places) != 0 {
		t.Errorf("Places = %#v, want empty list", result.Places)
	}
}

func TestSearchByText(t *testing.T) {
	f := newSearchFixture()
	for i := 0; i < 25; i++ {
		f.fake.text = append(f.fake.text, summaryPayload(fmt.Sprintf("t%02d", i), 40.7, -74.0, 4.0, i, "ref"))
	}
	ctx := context.Background()

	got, err := f.svc.SearchByText(ctx, "Cha Cha")
	if err != nil {
		t.Fatalf("SearchByText: %v", err)
	}
	if len(got) != MaxTextResults {
		t.Errorf("got %d places, want %d", len(got), MaxTextResults)
	}
	if got[0].PlaceID != "t00" || got[19].PlaceID != "t19" {
		t.Errorf("provider order not kept: %v", placeIDs(got))
	}
	if got[0].Distance != nil {
		t.Error("text results carry no distance")
	}
	if f.fake.lastText.Query != "Cha Cha matcha" || f.fake.lastText.Category != "cafe" {
		t.Errorf("request = %+v", f.fake.lastText)
	}
	if f.places.Len() != MaxTextResults {
		t.Errorf("store has %d records, want %d", f.places.Len(), MaxTextResults)
	}

	if _, err := f.svc.SearchByText(ctx, "Cha Cha"); err != nil {
		t.Fatalf("SearchByText: %v", err)
	}
	if f.fake.textCalls != 2 {
		t.Errorf("text calls = %d, text results are not cached", f.fake.textCalls)
	}
}

func TestSearchByTextRequiresQuery(t *testing.T) {
	f := newSearchFixture()
	if _, err := f.svc.SearchByText(context.Background(), " "); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
	if f.fake.textCalls != 0 {
		t.Error("provider called for blank query")
	}
}

func TestCacheJanitorSweep(t *testing.T) {
	cache := store.NewMemorySearchCache()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	_ = cache.Put(ctx, &models.PlaceSearchCache{QueryKey: "old", Keyword: "matcha", CreatedAt: now.Add(-2 * time.Hour)})
	_ = cache.Put(ctx, &models.PlaceSearchCache{QueryKey: "new", Keyword: "matcha", CreatedAt: now.Add(-10 * time.Minute)})

	janitor := NewCacheJanitor(cache, time.Hour, time.Minute)
	janitor.now = func() time.Time { return now }

	if purged := janitor.Sweep(ctx); purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}
	if entry, _ := cache.Get(ctx, "new"); entry == nil {
		t.Error("fresh entry removed")
	}
}
