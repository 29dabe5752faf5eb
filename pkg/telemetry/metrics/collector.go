package metrics

import (
	"strconv"
	"sync"
	"time"

	"mercator-hq/rsql/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultMaxCollections bounds the number of distinct collection label
// values. Further collections are reported as "other".
const DefaultMaxCollections = 100

// Collector owns every Prometheus metric of the service and provides a
// single interface for recording them. All methods are no-ops when
// metrics are disabled, and safe for concurrent use.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	parseMetrics *ParseMetrics
	storeMetrics *StoreMetrics
	httpMetrics  *HTTPMetrics

	collections *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is used.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "rsql",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.ParseDurationBuckets) == 0 {
		cfg.ParseDurationBuckets = config.DefaultParseDurationBuckets
	}
	if len(cfg.QueryDurationBuckets) == 0 {
		cfg.QueryDurationBuckets = config.DefaultQueryDurationBuckets
	}

	return &Collector{
		config:       cfg,
		registry:     registry,
		parseMetrics: NewParseMetrics(cfg, registry),
		storeMetrics: NewStoreMetrics(cfg, registry),
		httpMetrics:  NewHTTPMetrics(cfg, registry),
		collections:  NewCardinalityLimiter(DefaultMaxCollections),
	}
}

// RecordParse records the outcome of parsing one query. result is "ok" or
// the error type of the failure ("lexical", "syntax", "semantic", "arity").
//
// Example:
//
//	start := time.Now()
//	node, err := p.Parse(q)
//	collector.RecordParse(metrics.ParseResult(err), time.Since(start), len(q))
func (c *Collector) RecordParse(result string, duration time.Duration, length int) {
	if !c.config.Enabled {
		return
	}
	c.parseMetrics.RecordParse(result, duration, length)
}

// RecordOperatorUse counts one comparison using the operator with the
// given primary symbol.
func (c *Collector) RecordOperatorUse(symbol string) {
	if !c.config.Enabled {
		return
	}
	c.parseMetrics.RecordOperatorUse(symbol)
}

// RecordStoreOperation records a store operation ("find", "insert",
// "delete", "count") against a collection.
func (c *Collector) RecordStoreOperation(collection, operation string, err error, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	c.storeMetrics.RecordOperation(c.collectionLabel(collection), operation, status, duration)
}

// RecordRecordsMatched records how many records a filtered store operation
// touched.
func (c *Collector) RecordRecordsMatched(collection, operation string, n int) {
	if !c.config.Enabled {
		return
	}
	c.storeMetrics.RecordMatched(c.collectionLabel(collection), operation, n)
}

// RecordPruned records the records deleted by a retention rule.
func (c *Collector) RecordPruned(rule string, n int64) {
	if !c.config.Enabled {
		return
	}
	c.storeMetrics.RecordPruned(rule, n)
}

// RecordHTTPRequest records one served API request. route is the route
// pattern, not the raw path.
func (c *Collector) RecordHTTPRequest(route, method string, code int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.RecordRequest(route, method, strconv.Itoa(code), duration)
}

func (c *Collector) collectionLabel(collection string) string {
	if !c.collections.Allow(collection) {
		return "other"
	}
	return collection
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique values admitted for a label.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value may be used as a label value: it was
// admitted before, or the limit has not been reached yet.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	_, exists := cl.current[value]
	cl.mu.RUnlock()
	if exists {
		return true
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
