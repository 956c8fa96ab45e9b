package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

const startTimeKey = "metrics:start_time"

var (
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchamap_db_query_duration_seconds",
			Help:    "Database query execution time in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation", "table", "status"},
	)

	dbErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchamap_db_errors_total",
			Help: "Total number of database errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	dbSlowQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchamap_db_slow_queries_total",
			Help: "Total number of slow queries (>1 second)",
		},
		[]string{"operation", "table"},
	)

	dbConnectionPoolInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchamap_db_connection_pool_in_use",
			Help: "Number of database connections currently in use",
		},
	)

	dbConnectionPoolIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchamap_db_connection_pool_idle",
			Help: "Number of idle database connections in the pool",
		},
	)
)

// MetricsPlugin is a gorm plugin that times every statement
type MetricsPlugin struct{}

func (p *MetricsPlugin) Name() string {
	return "metricsPlugin"
}

func (p *MetricsPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	registrations := []error{
		cb.Create().Before("gorm:create").Register("metrics:before_create", beforeCallback),
		cb.Create().After("gorm:create").Register("metrics:after_create", afterCallback("CREATE")),
		cb.Query().Before("gorm:query").Register("metrics:before_query", beforeCallback),
		cb.Query().After("gorm:query").Register("metrics:after_query", afterCallback("SELECT")),
		cb.Update().Before("gorm:update").Register("metrics:before_update", beforeCallback),
		cb.Update().After("gorm:update").Register("metrics:after_update", afterCallback("UPDATE")),
		cb.Delete().Before("gorm:delete").Register("metrics:before_delete", beforeCallback),
		cb.Delete().After("gorm:delete").Register("metrics:after_delete", afterCallback("DELETE")),
		cb.Row().Before("gorm:row").Register("metrics:before_row", beforeCallback),
		cb.Row().After("gorm:row").Register("metrics:after_row", afterCallback("ROW")),
		cb.Raw().Before("gorm:raw").Register("metrics:before_raw", beforeCallback),
		cb.Raw().After("gorm:raw").Register("metrics:after_raw", afterCallback("RAW")),
	}
	return errors.Join(registrations...)
}

func beforeCallback(db *gorm.DB) {
	db.InstanceSet(startTimeKey, time.Now())
}

func afterCallback(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		value, ok := db.InstanceGet(startTimeKey)
		if !ok {
			return
		}
		start, ok := value.(time.Time)
		if !ok {
			return
		}

		duration := time.Since(start).Seconds()
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		status := "success"
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			status = "error"
			dbErrorsTotal.WithLabelValues(operation, table, fmt.Sprintf("%T", db.Error)).Inc()
		}

		dbQueryDuration.WithLabelValues(operation, table, status).Observe(duration)
		if duration > 1.0 {
			dbSlowQueriesTotal.WithLabelValues(operation, table).Inc()
		}
	}
}

// UpdateConnectionPoolMetrics samples the pool gauges
func UpdateConnectionPoolMetrics(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	stats := sqlDB.Stats()
	dbConnectionPoolIdle.Set(float64(stats.Idle))
	dbConnectionPoolInUse.Set(float64(stats.InUse))
}

// StartConnectionPoolMetricsCollector samples pool gauges every interval until ctx is done
func StartConnectionPoolMetricsCollector(ctx context.Context, db *gorm.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			UpdateConnectionPoolMetrics(db)
		}
	}
}
