// Package telemetry groups the observability of the RSQL service.
//
// # Components
//
//   - logging: structured slog logging with query argument redaction
//   - metrics: Prometheus metrics for parsing, the document store and HTTP
//   - tracing: OpenTelemetry spans exported over OTLP/gRPC
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	logger, _ := logging.New(logging.Config{Level: "info", Format: "json", RedactArguments: true})
//	logger.SetDefault()
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
//	tracer, _ := tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(version))
//	defer tracer.Shutdown(context.Background())
//
//	eng, _ := engine.FromConfig(cfg, engine.WithMetrics(collector), engine.WithTracer(tracer))
//
// Components accept a nil collector and fall back to a noop tracer, so
// telemetry is optional everywhere except the serve command.
//
// # Redaction
//
// With redaction enabled, log fields named query or filter keep their
// selectors and operators while argument literals are masked:
//
//	name=="John Smith";age=gt=30  ->  name==***;age=gt=***
//
// Fields whose names suggest secrets (password, token, api_key, dsn) are
// masked completely.
package telemetry
