package metrics

import (
	"errors"
	"time"

	"mercator-hq/rsql/pkg/config"
	rsqlerrors "mercator-hq/rsql/pkg/rsql/errors"

	"github.com/prometheus/client_golang/prometheus"
)

// ParseMetrics tracks query parsing.
//
// Metrics:
//   - rsql_parses_total: parsed queries by result
//   - rsql_parse_duration_seconds: parse duration histogram
//   - rsql_query_length_bytes: length of parsed queries
//   - rsql_operator_usage_total: comparisons by operator
type ParseMetrics struct {
	parsesTotal   *prometheus.CounterVec
	parseDuration *prometheus.HistogramVec
	queryLength   prometheus.Histogram
	operatorUsage *prometheus.CounterVec
}

// NewParseMetrics creates and registers parse metrics with the provided registry.
func NewParseMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ParseMetrics {
	pm := &ParseMetrics{
		parsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "parses_total",
				Help:      "Total number of parsed RSQL queries",
			},
			[]string{"result"},
		),

		parseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "parse_duration_seconds",
				Help:      "Duration of RSQL query parsing in seconds",
				Buckets:   cfg.ParseDurationBuckets,
			},
			[]string{"result"},
		),

		queryLength: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "query_length_bytes",
				Help:      "Length of parsed RSQL queries in bytes",
				Buckets:   prometheus.ExponentialBuckets(16, 4, 7), // 16B to 64KiB
			},
		),

		operatorUsage: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "operator_usage_total",
				Help:      "Total number of comparisons by operator",
			},
			[]string{"operator"},
		),
	}

	registry.MustRegister(
		pm.parsesTotal,
		pm.parseDuration,
		pm.queryLength,
		pm.operatorUsage,
	)

	return pm
}

// RecordParse records one parse.
func (pm *ParseMetrics) RecordParse(result string, duration time.Duration, length int) {
	pm.parsesTotal.WithLabelValues(result).Inc()
	pm.parseDuration.WithLabelValues(result).Observe(duration.Seconds())
	pm.queryLength.Observe(float64(length))
}

// RecordOperatorUse counts one comparison.
func (pm *ParseMetrics) RecordOperatorUse(symbol string) {
	pm.operatorUsage.WithLabelValues(symbol).Inc()
}

// ParseResult maps a parse error to the result label: "ok" for nil, the
// error type for an RSQL error and "error" for anything else.
func ParseResult(err error) string {
	if err == nil {
		return "ok"
	}
	var rerr *rsqlerrors.Error
	if errors.As(err, &rerr) {
		return string(rerr.Type)
	}
	return "error"
}
