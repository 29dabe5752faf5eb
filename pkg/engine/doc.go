// Package engine is the parse entrypoint of the RSQL service.
//
// An Engine holds the active parser and replaces it atomically when the
// operator configuration is reloaded. Parses in flight keep using the
// parser they started with. Every parse is traced, counted and logged:
//
//	eng, err := engine.FromConfig(cfg,
//		engine.WithMetrics(collector),
//		engine.WithTracer(tracer),
//	)
//	node, err := eng.Parse(ctx, `genre=in=(sci-fi,action);year=ge=2000`)
//
// A failed reload keeps the previous parser and is reported by LastError.
package engine
