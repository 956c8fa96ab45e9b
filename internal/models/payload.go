package models

// PlacePayload is one place record as returned by the upstream places provider.
// Summary-style results (nearby and text search) leave Reviews, FormattedPhoneNumber, Website,
// OpeningHours and EditorialSummary empty. The JSON form is what gets stored as a record's raw
// payload.
type PlacePayload struct {
	PlaceID              string            `json:"place_id"`
	Name                 string            `json:"name"`
	FormattedAddress     string            `json:"formatted_address,omitempty"`
	Vicinity             string            `json:"vicinity,omitempty"`
	Geometry             *Geometry         `json:"geometry,omitempty"`
	Rating               *float64          `json:"rating,omitempty"`
	UserRatingsTotal     *int              `json:"user_ratings_total,omitempty"`
	PriceLevel           *int              `json:"price_level,omitempty"`
	Types                []string          `json:"types,omitempty"`
	Photos               []Photo           `json:"photos,omitempty"`
	FormattedPhoneNumber string            `json:"formatted_phone_number,omitempty"`
	Website              string            `json:"website,omitempty"`
	OpeningHours         *OpeningHours     `json:"opening_hours,omitempty"`
	Reviews              []Review          `json:"reviews,omitempty"`
	EditorialSummary     *EditorialSummary `json:"editorial_summary,omitempty"`
}

// Geometry holds the place coordinates
type Geometry struct {
	Location LatLng `json:"location"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Photo is a provider photo handle
type Photo struct {
	PhotoReference string `json:"photo_reference"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
}

// OpeningHours is the weekly schedule plus the open-now flag
type OpeningHours struct {
	OpenNow     *bool    `json:"open_now,omitempty"`
	WeekdayText []string `json:"weekday_text,omitempty"`
}

// Review is a single user review
type Review struct {
	AuthorName              string `json:"author_name"`
	ProfilePhotoURL         string `json:"profile_photo_url,omitempty"`
	Rating                  int    `json:"rating"`
	Text                    string `json:"text"`
	RelativeTimeDescription string `json:"relative_time_description,omitempty"`
}

type EditorialSummary struct {
	Overview string `json:"overview"`
}

// Address prefers the formatted address and falls back to the vicinity summary results carry.
func (p *PlacePayload) Address() string {
	if p.FormattedAddress != "" {
		return p.FormattedAddress
	}
	return p.Vicinity
}

// FirstPhotoReference returns the first photo reference, or "" when the payload has none.
func (p *PlacePayload) FirstPhotoReference() string {
	for _, photo := range p.Photos {
		if photo.PhotoReference != "" {
			return photo.PhotoReference
		}
	}
	return ""
}

// HasReviews reports whether the payload carries at least one review
func (p *PlacePayload) HasReviews() bool {
	return p != nil && len(p.Reviews) > 0
}

// HasDetailedFields reports whether any detail-only descriptive field is present.
func (p *PlacePayload) HasDetailedFields() bool {
	if p == nil {
		return false
	}
	if p.FormattedPhoneNumber != "" || p.Website != "" {
		return true
	}
	return p.EditorialSummary != nil && p.EditorialSummary.Overview != ""
}
