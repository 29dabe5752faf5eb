// Package tracing provides OpenTelemetry distributed tracing for the RSQL
// service.
//
// Spans are exported over OTLP gRPC. When tracing is disabled a noop
// tracer is used, so components can always call Start.
//
// # Spans
//
//   - rsql.parse: one per parsed query, with the (redacted) query, its
//     length, the number of comparisons and, on failure, the error type
//     and position
//   - rsql.store.<operation>: one per document store operation
//   - rsql.retention.prune: one per retention rule run
//   - "<METHOD> <route>": one per API request, continuing any W3C trace
//     context sent by the client
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "rsql.parse")
//	defer span.End()
package tracing
