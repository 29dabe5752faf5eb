package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"mercator-hq/rsql/pkg/config"
	"mercator-hq/rsql/pkg/rsql/ast"
	"mercator-hq/rsql/pkg/rsql/operators"
	"mercator-hq/rsql/pkg/rsql/parser"
	"mercator-hq/rsql/pkg/telemetry/logging"
	"mercator-hq/rsql/pkg/telemetry/metrics"
	"mercator-hq/rsql/pkg/telemetry/tracing"
)

// Engine parses queries with a hot-swappable parser. It is safe for
// concurrent use.
type Engine struct {
	parser  atomic.Pointer[parser.Parser]
	version atomic.Uint64

	metrics *metrics.Collector
	tracer  *tracing.Tracer
	logger  *slog.Logger
	redact  bool

	mu            sync.Mutex
	lastLoadTime  time.Time
	lastLoadError error
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records parse outcomes and operator usage on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = c }
}

// WithTracer wraps every parse in a span.
func WithTracer(t *tracing.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithRedaction masks argument literals of queries recorded on spans.
func WithRedaction(enabled bool) Option {
	return func(e *Engine) { e.redact = enabled }
}

// New creates an engine around p.
func New(p *parser.Parser, opts ...Option) *Engine {
	e := &Engine{
		tracer: tracing.Noop(),
		logger: slog.Default().With("component", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.swap(p)
	return e
}

// FromConfig creates an engine from the parser and operator sections of
// cfg. Argument redaction follows the logging configuration.
func FromConfig(cfg *config.Config, opts ...Option) (*Engine, error) {
	p, err := config.NewParser(cfg)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithRedaction(cfg.Telemetry.Logging.RedactArguments)}, opts...)
	return New(p, opts...), nil
}

// Parse parses query with the active parser.
func (e *Engine) Parse(ctx context.Context, query string) (ast.Node, error) {
	queryID := uuid.NewString()
	ctx = logging.WithQueryID(ctx, queryID)

	ctx, span := e.tracer.Start(ctx, "rsql.parse")
	defer span.End()
	tracing.SetQueryAttributes(span, e.spanQuery(query), len(query))

	start := time.Now()
	node, err := e.parser.Load().Parse(query)
	duration := time.Since(start)

	if e.metrics != nil {
		e.metrics.RecordParse(metrics.ParseResult(err), duration, len(query))
	}

	if err != nil {
		tracing.SetParseErrorAttributes(span, err)
		e.logger.DebugContext(ctx, "query rejected",
			"query_id", queryID,
			"query", query,
			"error", err,
		)
		return nil, err
	}

	comparisons := 0
	ast.Walk(node, func(n ast.Node) bool {
		if c, ok := n.(*ast.ComparisonNode); ok {
			comparisons++
			if e.metrics != nil {
				e.metrics.RecordOperatorUse(c.Operator().Symbol())
			}
		}
		return true
	})
	span.SetAttributes(attribute.Int(tracing.AttrComparisons, comparisons))

	e.logger.DebugContext(ctx, "query parsed",
		"query_id", queryID,
		"query", query,
		"comparisons", comparisons,
		"duration_us", duration.Microseconds(),
	)
	return node, nil
}

// Validate reports whether query parses. It records no telemetry.
func (e *Engine) Validate(query string) error {
	_, err := e.parser.Load().Parse(query)
	return err
}

func (e *Engine) spanQuery(query string) string {
	if e.redact {
		return logging.RedactQuery(query)
	}
	return query
}

// Reload replaces the active parser.
func (e *Engine) Reload(p *parser.Parser) {
	e.swap(p)
	e.logger.Info("parser reloaded",
		"version", e.version.Load(),
		"operators", p.Registry().Len(),
	)
}

// ReloadConfig builds a parser from cfg and makes it active. On error the
// previous parser stays active.
func (e *Engine) ReloadConfig(cfg *config.Config) error {
	p, err := config.NewParser(cfg)
	if err != nil {
		e.mu.Lock()
		e.lastLoadError = err
		e.mu.Unlock()
		e.logger.Error("failed to reload operators, keeping previous parser", "error", err)
		return err
	}
	e.Reload(p)
	return nil
}

func (e *Engine) swap(p *parser.Parser) {
	e.parser.Store(p)
	e.version.Add(1)

	e.mu.Lock()
	e.lastLoadTime = time.Now()
	e.lastLoadError = nil
	e.mu.Unlock()
}

// Parser returns the active parser.
func (e *Engine) Parser() *parser.Parser {
	return e.parser.Load()
}

// Registry returns the operators of the active parser.
func (e *Engine) Registry() *operators.Registry {
	return e.parser.Load().Registry()
}

// Version counts parser swaps, starting at 1.
func (e *Engine) Version() uint64 {
	return e.version.Load()
}

// LastLoadTime returns when the active parser was installed.
func (e *Engine) LastLoadTime() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastLoadTime
}

// LastError returns the error of the last failed reload, or nil when the
// last reload succeeded.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastLoadError
}
