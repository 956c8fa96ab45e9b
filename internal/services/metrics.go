package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchamap_search_cache_lookups_total",
			Help: "Proximity search cache lookups by result (hit, miss, expired)",
		},
		[]string{"result"},
	)

	detailFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchamap_place_detail_fetches_total",
			Help: "Detail fetches by reason (refresh, details, backfill) and outcome",
		},
		[]string{"reason", "outcome"},
	)

	cachePurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchamap_search_cache_purged_total",
			Help: "Expired search cache entries removed by the janitor",
		},
	)
)
