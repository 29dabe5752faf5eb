// Package metrics provides Prometheus metrics for the RSQL service.
//
// # Metrics Categories
//
//   - Parse metrics: parse count and duration by result, query length,
//     operator usage
//   - Store metrics: operation count and duration per collection, records
//     matched, records pruned by retention rules
//   - HTTP metrics: request count and duration per route
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	start := time.Now()
//	node, err := p.Parse(query)
//	collector.RecordParse(metrics.ParseResult(err), time.Since(start), len(query))
//
//	mux.Handle("/metrics", collector.Handler())
//
// Collection names come from clients, so the collection label is capped
// by a CardinalityLimiter; collections beyond the cap are reported as
// "other".
package metrics
