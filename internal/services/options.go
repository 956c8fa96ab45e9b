package services

import (
	"time"
)

// Options tunes place and search behaviour. Zero fields fall back to the defaults below.
type Options struct {
	Keyword             string
	Category            string
	CacheTTL            time.Duration
	DefaultRadiusMeters int
	BackfillConcurrency int
	Now                 func() time.Time
}

const (
	defaultKeyword             = "matcha"
	defaultCategory            = "cafe"
	defaultCacheTTL            = time.Hour
	defaultRadiusMeters        = 3000
	defaultBackfillConcurrency = 5

	// MaxRadiusMeters is the largest proximity radius the provider accepts.
	MaxRadiusMeters = 50000
	// MaxTextResults caps how many text search results are kept.
	MaxTextResults = 20
	// DefaultRecommendations and MaxRecommendations bound the recommendations limit.
	DefaultRecommendations = 6
	MaxRecommendations     = 20
)

func (o Options) withDefaults() Options {
	if o.Keyword == "" {
		o.Keyword = defaultKeyword
	}
	if o.Category == "" {
		o.Category = defaultCategory
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = defaultCacheTTL
	}
	if o.DefaultRadiusMeters <= 0 {
		o.DefaultRadiusMeters = defaultRadiusMeters
	}
	if o.BackfillConcurrency <= 0 {
		o.BackfillConcurrency = defaultBackfillConcurrency
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
