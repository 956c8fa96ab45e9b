package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"matchamap/internal/geo"
	"matchamap/internal/logger"
	"matchamap/internal/models"
	"matchamap/internal/provider"
	"matchamap/internal/store"

	"go.uber.org/zap"
)

// NearbyQuery is a proximity search request. Lat and Lng are pointers so an absent coordinate
// is distinguishable from zero.
type NearbyQuery struct {
	Lat          *float64
	Lng          *float64
	RadiusMeters int
	Sort         string
}

type Center struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type SearchMeta struct {
	FromCache bool `json:"fromCache"`
}

type NearbyResult struct {
	Places []PlaceSummary `json:"places"`
	Center Center         `json:"center"`
	Meta   SearchMeta     `json:"meta"`
}

type SearchService struct {
	cache    store.SearchCacheStore
	places   store.PlaceStore
	provider provider.Client
	resolver *PlaceService
	opts     Options
	log      *zap.SugaredLogger
}

func NewSearchService(cache store.SearchCacheStore, placeStore store.PlaceStore, client provider.Client, resolver *PlaceService, opts Options) *SearchService {
	return &SearchService{
		cache:    cache,
		places:   placeStore,
		provider: client,
		resolver: resolver,
		opts:     opts.withDefaults(),
		log:      logger.GetLogger("search"),
	}
}

// SearchNearby returns places around a point, ranked by q.Sort. Results come from the search
// cache while its entry is younger than the freshness window; otherwise the provider is queried,
// every result is merged into the place store, and a new cache entry replaces the stale one.
func (s *SearchService) SearchNearby(ctx context.Context, q NearbyQuery) (*NearbyResult, error) {
	ctx = detach(ctx)
	lat, lng, radius, err := s.validateNearby(q)
	if err != nil {
		return nil, err
	}

	key := geo.NewSearchKey(lat, lng, radius, s.opts.Keyword)
	queryKey := key.String()
	now := s.opts.Now()

	entry, err := s.cache.Get(ctx, queryKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	var records []models.PlaceCache
	fromCache := entry != nil && !entry.IsExpired(now, s.opts.CacheTTL)
	if fromCache {
		searchCacheLookups.WithLabelValues("hit").Inc()
		records, err = s.hydrate(ctx, entry.PlaceIDs)
		if err != nil {
			return nil, err
		}
	} else {
		if entry != nil {
			searchCacheLookups.WithLabelValues("expired").Inc()
			if err := s.cache.Delete(ctx, queryKey); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrStore, err)
			}
		} else {
			searchCacheLookups.WithLabelValues("miss").Inc()
		}

		records, err = s.refresh(ctx, key, lat, lng)
		if err != nil {
			return nil, err
		}
	}

	records = s.resolver.BackfillPhotos(ctx, records)

	located := make([]models.PlaceCache, 0, len(records))
	for _, record := range records {
		if record.HasCoordinates() {
			located = append(located, record)
		}
	}

	ranked := geo.Rank(located, geo.ParseCriterion(q.Sort), lat, lng, rankAttributes)
	summaries := make([]PlaceSummary, 0, len(ranked))
	for i := range ranked {
		distance := ranked[i].Distance
		summaries = append(summaries, summarize(s.provider, &ranked[i].Item, &distance))
	}

	s.log.Debugw("nearby search", "key", queryKey, "fromCache", fromCache, "places", len(summaries))

	return &NearbyResult{
		Places: summaries,
		Center: Center{Lat: lat, Lng: lng},
		Meta:   SearchMeta{FromCache: fromCache},
	}, nil
}

// SearchByText runs a free-text search. Result sets are not cached; only the place records
// benefit from the store.
func (s *SearchService) SearchByText(ctx context.Context, query string) ([]PlaceSummary, error) {
	ctx = detach(ctx)
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query required", ErrValidation)
	}

	results, err := s.provider.TextSearch(ctx, provider.TextSearchRequest{
		Query:    query + " " + s.opts.Keyword,
		Category: s.opts.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if len(results) > MaxTextResults {
		results = results[:MaxTextResults]
	}

	records, err := s.resolver.StoreSummaries(ctx, results)
	if err != nil {
		return nil, err
	}
	records = s.resolver.BackfillPhotos(ctx, records)

	summaries := make([]PlaceSummary, 0, len(records))
	for i := range records {
		summaries = append(summaries, summarize(s.provider, &records[i], nil))
	}
	return summaries, nil
}

func (s *SearchService) validateNearby(q NearbyQuery) (lat, lng float64, radius int, err error) {
	if q.Lat == nil || q.Lng == nil {
		return 0, 0, 0, fmt.Errorf("%w: lat and lng required", ErrValidation)
	}
	lat, lng = *q.Lat, *q.Lng
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, 0, fmt.Errorf("%w: coordinates out of range", ErrValidation)
	}

	radius = q.RadiusMeters
	if radius == 0 {
		radius = s.opts.DefaultRadiusMeters
	}
	if radius < 0 || radius > MaxRadiusMeters {
		return 0, 0, 0, fmt.Errorf("%w: radius must be between 1 and %d meters", ErrValidation, MaxRadiusMeters)
	}
	return lat, lng, radius, nil
}

// hydrate loads cached place IDs in cache order, dropping any that no longer resolve.
func (s *SearchService) hydrate(ctx context.Context, placeIDs []string) ([]models.PlaceCache, error) {
	found, err := s.places.GetMany(ctx, placeIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	byID := make(map[string]models.PlaceCache, len(found))
	for _, record := range found {
		byID[record.PlaceID] = record
	}

	records := make([]models.PlaceCache, 0, len(placeIDs))
	for _, id := range placeIDs {
		if record, ok := byID[id]; ok {
			records = append(records, record)
			delete(byID, id)
		}
	}
	return records, nil
}

// refresh queries the provider, stores every result and records a new cache entry.
func (s *SearchService) refresh(ctx context.Context, key geo.SearchKey, lat, lng float64) ([]models.PlaceCache, error) {
	results, err := s.provider.Nearby(ctx, provider.NearbyRequest{
		Lat:          lat,
		Lng:          lng,
		RadiusMeters: key.RadiusMeters,
		Keyword:      s.opts.Keyword,
		Category:     s.opts.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	records, err := s.resolver.StoreSummaries(ctx, results)
	if err != nil {
		return nil, err
	}

	ids := make(models.StringList, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.PlaceID)
	}

	entry := &models.PlaceSearchCache{
		QueryKey:     key.String(),
		CenterLat:    lat,
		CenterLng:    lng,
		RadiusMeters: key.RadiusMeters,
		Keyword:      key.Keyword,
		PlaceIDs:     ids,
		CreatedAt:    s.opts.Now(),
	}
	if err := s.cache.Put(ctx, entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	return records, nil
}

func rankAttributes(record models.PlaceCache) geo.Attributes {
	attrs := geo.Attributes{Lat: *record.Lat, Lng: *record.Lng}
	if record.Rating != nil {
		attrs.Rating = *record.Rating
	}
	if record.UserRatingsTotal != nil {
		attrs.RatingsTotal = *record.UserRatingsTotal
	}
	return attrs
}
