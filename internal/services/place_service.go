package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"matchamap/internal/logger"
	"matchamap/internal/models"
	"matchamap/internal/places"
	"matchamap/internal/provider"
	"matchamap/internal/store"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PlaceService resolves single places and owns the write paths into the place store.
type PlaceService struct {
	places   store.PlaceStore
	provider provider.Client
	opts     Options
	log      *zap.SugaredLogger
}

func NewPlaceService(placeStore store.PlaceStore, client provider.Client, opts Options) *PlaceService {
	return &PlaceService{
		places:   placeStore,
		provider: client,
		opts:     opts.withDefaults(),
		log:      logger.GetLogger("places"),
	}
}

// Resolve returns the enriched place. Details are fetched only when places.NeedsRefresh says so. A failed refresh of an existing record falls back to the cached copy
// unless force is set.
func (s *PlaceService) Resolve(ctx context.Context, placeID string, force bool) (*PlaceDetail, error) {
	ctx = detach(ctx)
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, fmt.Errorf("%w: place id is required", ErrValidation)
	}

	existing, err := s.places.Get(ctx, placeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	record := existing
	if places.NeedsRefresh(existing, force) {
		s.log.Debugw("fetching place details", "placeId", placeID, "force", force, "cached", existing != nil)

		updated, err := s.fetchAndStore(ctx, placeID, existing, "refresh")
		switch {
		case err == nil:
			record = updated
		case errors.Is(err, ErrStore):
			return nil, err
		case existing == nil || force:
			return nil, notFound(placeID, err)
		default:
			s.log.Warnw("serving cached place after failed refresh", "placeId", placeID, "error", err)
		}
	}

	if record == nil {
		return nil, fmt.Errorf("%w: place %s", ErrNotFound, placeID)
	}

	detail := enrich(s.provider, record)
	return &detail, nil
}

// Details always performs the detail fetch, as used right after an autocomplete selection.
func (s *PlaceService) Details(ctx context.Context, placeID string) (*PlaceDetail, error) {
	ctx = detach(ctx)
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, fmt.Errorf("%w: place id is required", ErrValidation)
	}

	existing, err := s.places.Get(ctx, placeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	record, err := s.fetchAndStore(ctx, placeID, existing, "details")
	if err != nil {
		if errors.Is(err, ErrStore) {
			return nil, err
		}
		return nil, notFound(placeID, err)
	}

	detail := enrich(s.provider, record)
	return &detail, nil
}

// Recommendations returns nearby places similar to placeID, excluding the place itself.
func (s *PlaceService) Recommendations(ctx context.Context, placeID string, limit int) ([]PlaceSummary, error) {
	ctx = detach(ctx)
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, fmt.Errorf("%w: place id is required", ErrValidation)
	}
	if limit <= 0 {
		limit = DefaultRecommendations
	}
	if limit > MaxRecommendations {
		limit = MaxRecommendations
	}

	origin, err := s.places.Get(ctx, placeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	if origin == nil {
		origin, err = s.fetchAndStore(ctx, placeID, nil, "details")
		if err != nil {
			if errors.Is(err, ErrStore) {
				return nil, err
			}
			return nil, notFound(placeID, err)
		}
	}
	if !origin.HasCoordinates() {
		return nil, fmt.Errorf("%w: place %s has no location", ErrNotFound, placeID)
	}

	results, err := s.provider.Nearby(ctx, provider.NearbyRequest{
		Lat:          *origin.Lat,
		Lng:          *origin.Lng,
		RadiusMeters: s.opts.DefaultRadiusMeters,
		Keyword:      s.opts.Keyword,
		Category:     s.opts.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	nearby := make([]models.PlacePayload, 0, limit)
	for _, r := range results {
		if r.PlaceID == placeID {
			continue
		}
		nearby = append(nearby, r)
		if len(nearby) == limit {
			break
		}
	}

	records, err := s.StoreSummaries(ctx, nearby)
	if err != nil {
		return nil, err
	}
	records = s.BackfillPhotos(ctx, records)

	summaries := make([]PlaceSummary, 0, len(records))
	for i := range records {
		summaries = append(summaries, summarize(s.provider, &records[i], nil))
	}
	return summaries, nil
}

// Autocomplete returns location predictions for partial input.
func (s *PlaceService) Autocomplete(ctx context.Context, input string) ([]provider.Prediction, error) {
	return s.autocomplete(ctx, strings.TrimSpace(input), provider.TypesGeocode)
}

// CafeAutocomplete returns establishment predictions with the search keyword appended.
func (s *PlaceService) CafeAutocomplete(ctx context.Context, input string) ([]provider.Prediction, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return []provider.Prediction{}, nil
	}
	return s.autocomplete(ctx, input+" "+s.opts.Keyword, provider.TypesEstablishment)
}

func (s *PlaceService) autocomplete(ctx context.Context, input, types string) ([]provider.Prediction, error) {
	if input == "" {
		return []provider.Prediction{}, nil
	}
	predictions, err := s.provider.Autocomplete(ctx, provider.AutocompleteRequest{Input: input, Types: types})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if predictions == nil {
		predictions = []provider.Prediction{}
	}
	return predictions, nil
}

// StoreSummaries upserts summary-style search results with the non-destructive merge rule and
// returns the stored records in input order. Results that cannot be merged are skipped.
func (s *PlaceService) StoreSummaries(ctx context.Context, results []models.PlacePayload) ([]models.PlaceCache, error) {
	stored := make([]*models.PlaceCache, len(results))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.BackfillConcurrency)
	for i := range results {
		g.Go(func() error {
			fresh := &results[i]
			existing, err := s.places.Get(gctx, fresh.PlaceID)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrStore, err)
			}
			update, err := places.MergeSummary(existing, fresh)
			if err != nil {
				s.log.Warnw("skipping search result", "placeId", fresh.PlaceID, "error", err)
				return nil
			}
			record, err := s.places.Upsert(gctx, update)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrStore, err)
			}
			stored[i] = record
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]models.PlaceCache, 0, len(stored))
	for _, record := range stored {
		if record != nil {
			records = append(records, *record)
		}
	}
	return records, nil
}

// BackfillPhotos runs a detail fetch for every record without a photo reference. Fetches run
// concurrently; a failed fetch leaves that record as it was.
func (s *PlaceService) BackfillPhotos(ctx context.Context, records []models.PlaceCache) []models.PlaceCache {
	out := make([]models.PlaceCache, len(records))
	copy(out, records)

	var g errgroup.Group
	g.SetLimit(s.opts.BackfillConcurrency)
	for i := range out {
		if places.PhotoRef(&out[i]) != "" {
			continue
		}
		g.Go(func() error {
			existing := out[i]
			updated, err := s.fetchAndStore(ctx, existing.PlaceID, &existing, "backfill")
			if err != nil {
				s.log.Warnw("photo backfill failed", "placeId", existing.PlaceID, "error", err)
				return nil
			}
			out[i] = *updated
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// fetchAndStore performs a detail fetch and persists it with the detail-style merge.
func (s *PlaceService) fetchAndStore(ctx context.Context, placeID string, existing *models.PlaceCache, reason string) (*models.PlaceCache, error) {
	payload, err := s.provider.Details(ctx, placeID)
	if err != nil {
		detailFetches.WithLabelValues(reason, "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if payload == nil {
		detailFetches.WithLabelValues(reason, "not_found").Inc()
		return nil, fmt.Errorf("%w: provider has no place %s", ErrNotFound, placeID)
	}
	detailFetches.WithLabelValues(reason, "ok").Inc()

	if payload.PlaceID == "" {
		payload.PlaceID = placeID
	}
	update, err := places.MergeDetail(existing, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	record, err := s.places.Upsert(ctx, update)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return record, nil
}

// notFound reports a failed primary fetch with no cached fallback as not found.
func notFound(placeID string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: place %s: %v", ErrNotFound, placeID, err)
}

// detach keeps the caller's values but not its cancellation, so store and cache writes
// finish even when the client goes away. Provider calls stay bounded by their own timeout.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
