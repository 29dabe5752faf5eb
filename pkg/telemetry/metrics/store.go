package metrics

import (
	"time"

	"mercator-hq/rsql/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics tracks document store operations.
//
// Metrics:
//   - rsql_store_operations_total: operations by collection, operation, status
//   - rsql_store_operation_duration_seconds: operation duration histogram
//   - rsql_store_records_matched: records returned or deleted per operation
//   - rsql_retention_pruned_records_total: records deleted by retention rules
type StoreMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	recordsMatched    *prometheus.HistogramVec
	prunedTotal       *prometheus.CounterVec
}

// NewStoreMetrics creates and registers store metrics with the provided registry.
func NewStoreMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *StoreMetrics {
	sm := &StoreMetrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "store_operations_total",
				Help:      "Total number of document store operations",
			},
			[]string{"collection", "operation", "status"},
		),

		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "store_operation_duration_seconds",
				Help:      "Duration of document store operations in seconds",
				Buckets:   cfg.QueryDurationBuckets,
			},
			[]string{"collection", "operation"},
		),

		recordsMatched: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "store_records_matched",
				Help:      "Number of records matched by a filtered store operation",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8), // 1 to 16384
			},
			[]string{"collection", "operation"},
		),

		prunedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "retention_pruned_records_total",
				Help:      "Total number of records deleted by retention rules",
			},
			[]string{"rule"},
		),
	}

	registry.MustRegister(
		sm.operationsTotal,
		sm.operationDuration,
		sm.recordsMatched,
		sm.prunedTotal,
	)

	return sm
}

// RecordOperation records one store operation.
func (sm *StoreMetrics) RecordOperation(collection, operation, status string, duration time.Duration) {
	sm.operationsTotal.WithLabelValues(collection, operation, status).Inc()
	sm.operationDuration.WithLabelValues(collection, operation).Observe(duration.Seconds())
}

// RecordMatched records the number of records an operation matched.
func (sm *StoreMetrics) RecordMatched(collection, operation string, n int) {
	sm.recordsMatched.WithLabelValues(collection, operation).Observe(float64(n))
}

// RecordPruned adds n to the pruned counter of rule.
func (sm *StoreMetrics) RecordPruned(rule string, n int64) {
	sm.prunedTotal.WithLabelValues(rule).Add(float64(n))
}
