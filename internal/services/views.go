package services

import (
	"strings"

	"matchamap/internal/models"
	"matchamap/internal/places"
	"matchamap/internal/provider"
)

// Photo widths for list and detail views.
const (
	listPhotoWidth   = 400
	detailPhotoWidth = 800
	maxDetailPhotos  = 6
	maxCategories    = 3
)

// PlaceSummary is the list view of a place used by search and recommendations.
type PlaceSummary struct {
	PlaceID          string   `json:"placeId"`
	Name             string   `json:"name"`
	Address          string   `json:"address"`
	Lat              *float64 `json:"lat"`
	Lng              *float64 `json:"lng"`
	Rating           *float64 `json:"rating"`
	UserRatingsTotal *int     `json:"userRatingsTotal"`
	PriceLevel       *int     `json:"priceLevel"`
	Types            []string `json:"types"`
	Distance         *float64 `json:"distance,omitempty"`
	PhotoURL         *string  `json:"photoUrl"`
}

// PlaceDetail is the fully enriched view of one place.
type PlaceDetail struct {
	PlaceID          string               `json:"placeId"`
	Name             string               `json:"name"`
	Address          string               `json:"address"`
	Lat              *float64             `json:"lat"`
	Lng              *float64             `json:"lng"`
	Rating           *float64             `json:"rating"`
	UserRatingsTotal *int                 `json:"userRatingsTotal"`
	PriceLevel       *int                 `json:"priceLevel"`
	Phone            string               `json:"phone,omitempty"`
	Website          string               `json:"website,omitempty"`
	OpeningHours     *models.OpeningHours `json:"openingHours"`
	Description      *string              `json:"description"`
	Categories       []string             `json:"categories"`
	Photos           []string             `json:"photos"`
	Reviews          []ReviewView         `json:"reviews"`
	PhotoURL         *string              `json:"photoUrl"`
}

type ReviewView struct {
	Author      string `json:"author"`
	AuthorPhoto string `json:"authorPhoto,omitempty"`
	Rating      int    `json:"rating"`
	Text        string `json:"text"`
	Time        string `json:"time,omitempty"`
}

var genericCategories = map[string]bool{
	"point_of_interest": true,
	"establishment":     true,
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func summarize(client provider.Client, record *models.PlaceCache, distance *float64) PlaceSummary {
	types := []string(record.Types)
	if types == nil {
		types = []string{}
	}
	return PlaceSummary{
		PlaceID:          record.PlaceID,
		Name:             record.Name,
		Address:          record.Address,
		Lat:              record.Lat,
		Lng:              record.Lng,
		Rating:           record.Rating,
		UserRatingsTotal: record.UserRatingsTotal,
		PriceLevel:       record.PriceLevel,
		Types:            types,
		Distance:         distance,
		PhotoURL:         optionalString(client.PhotoURL(places.PhotoRef(record), listPhotoWidth)),
	}
}

func enrich(client provider.Client, record *models.PlaceCache) PlaceDetail {
	detail := PlaceDetail{
		PlaceID:          record.PlaceID,
		Name:             record.Name,
		Address:          record.Address,
		Lat:              record.Lat,
		Lng:              record.Lng,
		Rating:           record.Rating,
		UserRatingsTotal: record.UserRatingsTotal,
		PriceLevel:       record.PriceLevel,
		Phone:            record.Phone,
		Website:          record.Website,
		OpeningHours:     record.DecodedOpeningHours(),
		Categories:       categories(record.Types),
		Photos:           []string{},
		Reviews:          []ReviewView{},
	}

	// An undecodable payload degrades to a view built from the normalized columns.
	payload, _ := record.Payload()
	if payload != nil {
		for _, photo := range payload.Photos {
			if len(detail.Photos) == maxDetailPhotos {
				break
			}
			if url := client.PhotoURL(photo.PhotoReference, detailPhotoWidth); url != "" {
				detail.Photos = append(detail.Photos, url)
			}
		}
		for _, r := range payload.Reviews {
			detail.Reviews = append(detail.Reviews, ReviewView{
				Author:      r.AuthorName,
				AuthorPhoto: r.ProfilePhotoURL,
				Rating:      r.Rating,
				Text:        r.Text,
				Time:        r.RelativeTimeDescription,
			})
		}
		if payload.EditorialSummary != nil {
			detail.Description = optionalString(payload.EditorialSummary.Overview)
		}
	}

	if len(detail.Photos) > 0 {
		detail.PhotoURL = &detail.Photos[0]
	} else {
		detail.PhotoURL = optionalString(client.PhotoURL(record.PhotoRef, detailPhotoWidth))
	}

	return detail
}

// categories turns provider type tags into up to three readable labels.
func categories(types []string) []string {
	labels := []string{}
	for _, t := range types {
		if genericCategories[t] {
			continue
		}
		labels = append(labels, strings.ReplaceAll(t, "_", " "))
		if len(labels) == maxCategories {
			break
		}
	}
	return labels
}
