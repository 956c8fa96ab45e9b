package provider

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchamap_provider_requests_total",
			Help: "Total number of upstream places provider requests",
		},
		[]string{"operation", "status"},
	)

	providerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchamap_provider_request_duration_seconds",
			Help:    "Upstream places provider latency in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)
)

// observe records one provider call
func observe(operation string, start time.Time, err error) {
	status := "success"
	switch {
	case err == nil:
	case isNotFound(err):
		status = "not_found"
	default:
		status = "error"
	}
	providerRequestsTotal.WithLabelValues(operation, status).Inc()
	providerRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
