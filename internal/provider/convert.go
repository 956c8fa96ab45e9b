package provider

import (
	"fmt"
	"strconv"

	"matchamap/internal/models"

	"googlemaps.github.io/maps"
)

func fromDetails(r maps.PlaceDetailsResult) *models.PlacePayload {
	payload := &models.PlacePayload{
		PlaceID:              r.PlaceID,
		Name:                 r.Name,
		FormattedAddress:     r.FormattedAddress,
		Vicinity:             r.Vicinity,
		Geometry:             geometry(r.Geometry.Location),
		Rating:               rating(r.Rating),
		UserRatingsTotal:     positiveInt(r.UserRatingsTotal),
		PriceLevel:           positiveInt(r.PriceLevel),
		Types:                r.Types,
		Photos:               photos(r.Photos),
		FormattedPhoneNumber: r.FormattedPhoneNumber,
		Website:              r.Website,
		OpeningHours:         openingHours(r.OpeningHours),
	}

	if r.EditorialSummary != nil && r.EditorialSummary.Overview != "" {
		payload.EditorialSummary = &models.EditorialSummary{Overview: r.EditorialSummary.Overview}
	}

	for _, review := range r.Reviews {
		payload.Reviews = append(payload.Reviews, models.Review{
			AuthorName:              review.AuthorName,
			ProfilePhotoURL:         review.AuthorProfilePhoto,
			Rating:                  review.Rating,
			Text:                    review.Text,
			RelativeTimeDescription: review.RelativeTimeDescription,
		})
	}

	return payload
}

func fromSearchResults(results []maps.PlacesSearchResult) []models.PlacePayload {
	payloads := make([]models.PlacePayload, 0, len(results))
	for _, r := range results {
		if r.PlaceID == "" {
			continue
		}
		payloads = append(payloads, models.PlacePayload{
			PlaceID:          r.PlaceID,
			Name:             r.Name,
			FormattedAddress: r.FormattedAddress,
			Vicinity:         r.Vicinity,
			Geometry:         geometry(r.Geometry.Location),
			Rating:           rating(r.Rating),
			UserRatingsTotal: positiveInt(r.UserRatingsTotal),
			PriceLevel:       positiveInt(r.PriceLevel),
			Types:            r.Types,
			Photos:           photos(r.Photos),
			OpeningHours:     openingHours(r.OpeningHours),
		})
	}
	return payloads
}

// geometry treats the zero location as absent.
func geometry(loc maps.LatLng) *models.Geometry {
	if loc.Lat == 0 && loc.Lng == 0 {
		return nil
	}
	return &models.Geometry{Location: models.LatLng{Lat: loc.Lat, Lng: loc.Lng}}
}

func rating(v float32) *float64 {
	if v <= 0 {
		return nil
	}
	// Shortest float32 decimal so 4.3 stays 4.3 rather than 4.300000190734863.
	f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(v), 'f', -1, 32), 64)
	return &f
}

func positiveInt(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}

func photos(in []maps.Photo) []models.Photo {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.Photo, 0, len(in))
	for _, p := range in {
		out = append(out, models.Photo{PhotoReference: p.PhotoReference, Width: p.Width, Height: p.Height})
	}
	return out
}

func openingHours(in *maps.OpeningHours) *models.OpeningHours {
	if in == nil {
		return nil
	}
	return &models.OpeningHours{OpenNow: in.OpenNow, WeekdayText: in.WeekdayText}
}
