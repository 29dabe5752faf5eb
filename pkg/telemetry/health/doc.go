// Package health provides liveness and readiness probes for the RSQL
// service.
//
// Liveness only reports that the process is running. Readiness runs every
// registered check concurrently, each bounded by a timeout:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("store", health.PingCheck(docs))
//	checker.RegisterCheck("parser", health.ParserCheck(eng.Validate, "id==1"))
//
//	mux.Handle("/health/live", checker.LivenessHandler())
//	mux.Handle("/health/ready", checker.ReadinessHandler())
package health
