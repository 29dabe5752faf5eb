// Package server exposes RSQL parsing and filtered document queries over
// HTTP.
//
// Routes:
//
//	GET    /v1/parse?filter=<rsql>                  parse and return the tree
//	GET    /v1/operators                            list the active operators
//	GET    /v1/collections                          list collections
//	GET    /v1/collections/{name}/records           find records (?filter=&limit=)
//	POST   /v1/collections/{name}/records           insert a document or an array
//	DELETE /v1/collections/{name}/records?filter=   delete matching records
//	GET    /v1/collections/{name}/records/{id}      get one record
//	GET    /v1/collections/{name}/count             count records (?filter=)
//	GET    /metrics                                 Prometheus metrics
//	GET    /health/live, /health/ready, /version    probes
//
// Invalid queries are answered with 400 and the structured parse error:
//
//	{"error": {"type": "syntax", "message": "...", "position": {...}}}
package server
