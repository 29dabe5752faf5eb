// Package logging provides structured logging with query redaction.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON, text, and console formats
//   - Redaction of RSQL argument literals and secret-like fields
//   - Context-aware logging with request, query and collection IDs
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:           "info",
//	    Format:          "json",
//	    RedactArguments: true,
//	})
//	logger.SetDefault()
//
//	logger.Info("query parsed",
//	    "query", `name=="John";age=gt=30`, // logged as name==***;age=gt=***
//	    "duration_ms", 0.12,
//	)
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "records found") // includes request_id
//
// # Redaction
//
// Filters often carry personal data in their arguments. With
// RedactArguments enabled, values logged under the "query" or "filter" keys
// keep their selectors and operators, so the shape of a query stays visible
// while every literal is replaced by ***.
package logging
