package tracing

import (
	"errors"

	rsqlerrors "mercator-hq/rsql/pkg/rsql/errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on RSQL spans.
const (
	// Query attributes
	AttrQuery       = "rsql.query"
	AttrQueryLength = "rsql.query.length"
	AttrComparisons = "rsql.comparisons"

	// Parse error attributes
	AttrErrorType     = "rsql.error.type"
	AttrErrorPosition = "rsql.error.position"
	AttrErrorOperator = "rsql.error.operator"
	AttrErrorMessage  = "error.message"

	// Store attributes
	AttrCollection = "rsql.collection"
	AttrOperation  = "rsql.store.operation"
	AttrRecords    = "rsql.store.records"

	// Retention attributes
	AttrRetentionRule = "rsql.retention.rule"

	AttrRequestID = "rsql.request_id"
)

// SetQueryAttributes records the query text and its length. Callers pass
// the redacted query when arguments may be sensitive.
func SetQueryAttributes(span trace.Span, query string, length int) {
	span.SetAttributes(
		attribute.String(AttrQuery, query),
		attribute.Int(AttrQueryLength, length),
	)
}

// SetParseErrorAttributes records the type, position and operator of an
// RSQL error and marks the span as failed. Other errors are only recorded.
func SetParseErrorAttributes(span trace.Span, err error) {
	if err == nil {
		return
	}

	var rerr *rsqlerrors.Error
	if errors.As(err, &rerr) {
		attrs := []attribute.KeyValue{attribute.String(AttrErrorType, string(rerr.Type))}
		if rerr.Position.IsValid() {
			attrs = append(attrs, attribute.String(AttrErrorPosition, rerr.Position.String()))
		}
		if rerr.Operator != "" {
			attrs = append(attrs, attribute.String(AttrErrorOperator, rerr.Operator))
		}
		span.SetAttributes(attrs...)
	}

	SetError(span, err)
	SetStatus(span, err)
}

// SetStoreAttributes records a store operation against a collection.
func SetStoreAttributes(span trace.Span, collection, operation string) {
	span.SetAttributes(
		attribute.String(AttrCollection, collection),
		attribute.String(AttrOperation, operation),
	)
}

// SetRecordCount records how many records an operation touched.
func SetRecordCount(span trace.Span, n int) {
	span.SetAttributes(attribute.Int(AttrRecords, n))
}
