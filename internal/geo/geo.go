// Package geo provides distance math, place ranking and search-key quantization.
package geo

import (
	"fmt"
	"math"
	"sort"
)

// EarthRadiusMeters is the mean Earth radius used for haversine distances.
const EarthRadiusMeters = 6371000.0

// Criterion selects how Rank orders places.
type Criterion string

const (
	SortDistance   Criterion = "distance"
	SortRating     Criterion = "rating"
	SortPopularity Criterion = "popularity"
	SortDefault    Criterion = "default"
)

// ParseCriterion maps a query value to a Criterion. Anything unknown ranks by the default score.
func ParseCriterion(s string) Criterion {
	switch Criterion(s) {
	case SortDistance, SortRating, SortPopularity:
		return Criterion(s)
	default:
		return SortDefault
	}
}

// DistanceMeters returns the great-circle distance between two coordinates.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)

	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Attributes are the values Rank needs from a place.
// Missing rating or ratings count must be passed as 0.
type Attributes struct {
	Lat          float64
	Lng          float64
	Rating       float64
	RatingsTotal int
}

// Ranked pairs an item with its distance from the search center.
type Ranked[T any] struct {
	Item     T
	Distance float64
}

// Score is the default ranking score: rating weighted by log review volume.
// A place with no reviews scores 0 whatever its star rating.
func Score(a Attributes) float64 {
	return a.Rating * math.Log1p(float64(a.RatingsTotal))
}

// Rank attaches the distance from the center to every item and orders the result by criterion.
// Every item must have coordinates; callers filter out places without them.
func Rank[T any](items []T, criterion Criterion, centerLat, centerLng float64, attrs func(T) Attributes) []Ranked[T] {
	ranked := make([]Ranked[T], len(items))
	keys := make([]Attributes, len(items))
	for i, item := range items {
		a := attrs(item)
		keys[i] = a
		ranked[i] = Ranked[T]{
			Item:     item,
			Distance: DistanceMeters(centerLat, centerLng, a.Lat, a.Lng),
		}
	}

	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}

	var less func(a, b int) bool
	switch criterion {
	case SortDistance:
		less = func(a, b int) bool { return ranked[a].Distance < ranked[b].Distance }
	case SortRating:
		less = func(a, b int) bool { return keys[a].Rating > keys[b].Rating }
	case SortPopularity:
		less = func(a, b int) bool { return keys[a].RatingsTotal > keys[b].RatingsTotal }
	default:
		less = func(a, b int) bool {
			sa, sb := Score(keys[a]), Score(keys[b])
			if sa != sb {
				return sa > sb
			}
			return ranked[a].Distance < ranked[b].Distance
		}
	}

	sort.SliceStable(idx, func(i, j int) bool { return less(idx[i], idx[j]) })

	out := make([]Ranked[T], len(idx))
	for i, k := range idx {
		out[i] = ranked[k]
	}
	return out
}

// KeyPrecision is the number of decimals coordinates are rounded to in a SearchKey (~110 m cells).
const KeyPrecision = 3

// SearchKey identifies a memoized proximity search.
// Coordinates are stored as integers scaled by 10^KeyPrecision so the key never depends on
// float formatting.
type SearchKey struct {
	LatE3        int64
	LngE3        int64
	RadiusMeters int
	Keyword      string
}

// NewSearchKey quantizes a search center onto the cache grid.
func NewSearchKey(lat, lng float64, radiusMeters int, keyword string) SearchKey {
	return SearchKey{
		LatE3:        quantize(lat),
		LngE3:        quantize(lng),
		RadiusMeters: radiusMeters,
		Keyword:      keyword,
	}
}

func quantize(v float64) int64 {
	return int64(math.Round(v * math.Pow10(KeyPrecision)))
}

// String renders the key in its storage form, e.g. "40713:-74006:3000:matcha".
func (k SearchKey) String() string {
	return fmt.Sprintf("%d:%d:%d:%s", k.LatE3, k.LngE3, k.RadiusMeters, k.Keyword)
}
