package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"matchamap/internal/logger"
	"matchamap/internal/models"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"
)

// ErrNoAPIKey is returned when the client is built without a Google Maps API key.
var ErrNoAPIKey = errors.New("google maps API key not set")

// detailFields is the field set requested for a full place record.
var detailFields = []maps.PlaceDetailsFieldMask{
	maps.PlaceDetailsFieldMaskPlaceID,
	maps.PlaceDetailsFieldMaskName,
	maps.PlaceDetailsFieldMaskFormattedAddress,
	maps.PlaceDetailsFieldMaskGeometry,
	maps.PlaceDetailsFieldMaskRating,
	maps.PlaceDetailsFieldMaskUserRatingsTotal,
	maps.PlaceDetailsFieldMaskPriceLevel,
	maps.PlaceDetailsFieldMaskTypes,
	maps.PlaceDetailsFieldMaskPhotos,
	maps.PlaceDetailsFieldMaskFormattedPhoneNumber,
	maps.PlaceDetailsFieldMaskWebsite,
	maps.PlaceDetailsFieldMaskOpeningHours,
	maps.PlaceDetailsFieldMaskReviews,
	maps.PlaceDetailsFieldMaskEditorialSummary,
}

// GoogleConfig configures the Google Places client.
type GoogleConfig struct {
	APIKey    string
	Timeout   time.Duration
	RateLimit int // requests per second, 0 keeps the library default
}

// GoogleClient implements Client on top of the Google Maps Places web service.
type GoogleClient struct {
	client  *maps.Client
	apiKey  string
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewGoogleClient creates a Places client from explicit configuration.
func NewGoogleClient(cfg GoogleConfig) (*GoogleClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	opts := []maps.ClientOption{
		maps.WithAPIKey(cfg.APIKey),
		maps.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, maps.WithRateLimit(cfg.RateLimit))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}

	return &GoogleClient{
		client:  client,
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		log:     logger.GetLogger("provider"),
	}, nil
}

func (g *GoogleClient) Autocomplete(ctx context.Context, req AutocompleteRequest) (predictions []Prediction, err error) {
	defer func(start time.Time) { observe("autocomplete", start, err) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	request := &maps.PlaceAutocompleteRequest{Input: req.Input}
	if req.Types != "" {
		request.Types = maps.AutocompletePlaceType(req.Types)
	}

	response, err := g.client.PlaceAutocomplete(ctx, request)
	if err != nil {
		if isNotFound(err) {
			return []Prediction{}, nil
		}
		return nil, fmt.Errorf("autocomplete %q: %w", req.Input, err)
	}

	predictions = make([]Prediction, 0, len(response.Predictions))
	for _, p := range response.Predictions {
		predictions = append(predictions, Prediction{Description: p.Description, PlaceID: p.PlaceID})
	}
	return predictions, nil
}

func (g *GoogleClient) Details(ctx context.Context, placeID string) (payload *models.PlacePayload, err error) {
	defer func(start time.Time) { observe("details", start, err) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	request := &maps.PlaceDetailsRequest{
		PlaceID: placeID,
		Fields:  detailFields,
	}

	response, err := g.client.PlaceDetails(ctx, request)
	if err != nil {
		if isNotFound(err) {
			g.log.Debugw("place not found upstream", "placeId", placeID)
			return nil, nil
		}
		return nil, fmt.Errorf("place details %s: %w", placeID, err)
	}
	if response.PlaceID == "" {
		return nil, nil
	}

	return fromDetails(response), nil
}

func (g *GoogleClient) Nearby(ctx context.Context, req NearbyRequest) (results []models.PlacePayload, err error) {
	defer func(start time.Time) { observe("nearby", start, err) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	request := &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: req.Lat, Lng: req.Lng},
		Radius:   uint(req.RadiusMeters),
		Keyword:  req.Keyword,
		Type:     maps.PlaceType(req.Category),
	}

	response, err := g.client.NearbySearch(ctx, request)
	if err != nil {
		if isNotFound(err) {
			return []models.PlacePayload{}, nil
		}
		return nil, fmt.Errorf("nearby search at %f,%f: %w", req.Lat, req.Lng, err)
	}
	return fromSearchResults(response.Results), nil
}

func (g *GoogleClient) TextSearch(ctx context.Context, req TextSearchRequest) (results []models.PlacePayload, err error) {
	defer func(start time.Time) { observe("text_search", start, err) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	request := &maps.TextSearchRequest{
		Query: req.Query,
		Type:  maps.PlaceType(req.Category),
	}

	response, err := g.client.TextSearch(ctx, request)
	if err != nil {
		if isNotFound(err) {
			return []models.PlacePayload{}, nil
		}
		return nil, fmt.Errorf("text search %q: %w", req.Query, err)
	}
	return fromSearchResults(response.Results), nil
}

func (g *GoogleClient) PhotoURL(photoRef string, maxWidth int) string {
	return PhotoURL(g.apiKey, photoRef, maxWidth)
}

// isNotFound matches the provider statuses that mean "no such place" rather than a failure.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "NOT_FOUND") || strings.Contains(msg, "ZERO_RESULTS")
}
