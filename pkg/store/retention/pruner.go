package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"mercator-hq/rsql/pkg/config"
	"mercator-hq/rsql/pkg/rsql/ast"
	"mercator-hq/rsql/pkg/rsql/operators"
	"mercator-hq/rsql/pkg/rsql/parser"
	"mercator-hq/rsql/pkg/rsql/token"
	"mercator-hq/rsql/pkg/store"
	"mercator-hq/rsql/pkg/telemetry/metrics"
	"mercator-hq/rsql/pkg/telemetry/tracing"
)

// Deleter removes the records of a collection matching a filter.
type Deleter interface {
	Delete(ctx context.Context, collection string, node ast.Node) (int64, error)
}

// RuleResult is the outcome of one rule in a run.
type RuleResult struct {
	Rule    string `json:"rule"`
	Deleted int64  `json:"deleted"`
	Error   error  `json:"-"`
}

type rule struct {
	config.RetentionRule
	filter ast.Node
}

// Pruner applies retention rules to a store.
type Pruner struct {
	store   Deleter
	rules   []rule
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Pruner.
type Option func(*Pruner)

// WithMetrics counts pruned records per rule.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Pruner) { p.metrics = c }
}

// WithTracer wraps each run in a span.
func WithTracer(t *tracing.Tracer) Option {
	return func(p *Pruner) { p.tracer = t }
}

// WithClock replaces time.Now as the reference for MaxAge.
func WithClock(now func() time.Time) Option {
	return func(p *Pruner) { p.now = now }
}

// NewPruner compiles the filters of rules with p.
func NewPruner(d Deleter, rules []config.RetentionRule, p *parser.Parser, opts ...Option) (*Pruner, error) {
	pruner := &Pruner{
		store:  d,
		tracer: tracing.Noop(),
		logger: slog.Default().With("component", "store.retention"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(pruner)
	}

	for _, r := range rules {
		compiled := rule{RetentionRule: r}
		if r.Filter != "" {
			node, err := p.Parse(r.Filter)
			if err != nil {
				return nil, fmt.Errorf("retention rule %q: %w", r.Name, err)
			}
			compiled.filter = node
		}
		if compiled.filter == nil && r.MaxAge <= 0 {
			return nil, fmt.Errorf("retention rule %q: filter or max_age is required", r.Name)
		}
		pruner.rules = append(pruner.rules, compiled)
	}

	return pruner, nil
}

// Prune runs every rule once and returns the per-rule results. The
// returned error joins the errors of all failed rules.
func (p *Pruner) Prune(ctx context.Context) ([]RuleResult, error) {
	ctx, span := p.tracer.Start(ctx, "rsql.retention.prune")
	defer span.End()

	now := p.now()
	results := make([]RuleResult, 0, len(p.rules))
	var errs []error
	var total int64

	for _, r := range p.rules {
		res := RuleResult{Rule: r.Name}
		res.Deleted, res.Error = p.pruneRule(ctx, r, now)
		results = append(results, res)

		if res.Error != nil {
			errs = append(errs, fmt.Errorf("retention rule %q: %w", r.Name, res.Error))
			p.logger.Error("retention rule failed",
				"rule", r.Name,
				"collection", r.Collection,
				"error", res.Error,
			)
			continue
		}

		total += res.Deleted
		if p.metrics != nil {
			p.metrics.RecordPruned(r.Name, res.Deleted)
		}
		p.logger.Debug("retention rule applied",
			"rule", r.Name,
			"collection", r.Collection,
			"deleted_count", res.Deleted,
		)
	}

	err := errors.Join(errs...)
	span.SetAttributes(attribute.Int64(tracing.AttrRecords, total))
	tracing.SetStatus(span, err)

	if total > 0 {
		p.logger.Info("retention pruning completed",
			"total_deleted", total,
			"rules", len(p.rules),
		)
	}
	return results, err
}

func (p *Pruner) pruneRule(ctx context.Context, r rule, now time.Time) (int64, error) {
	node, err := r.node(now)
	if err != nil {
		return 0, err
	}
	return p.store.Delete(ctx, r.Collection, node)
}

// node combines the rule filter with the age cutoff.
func (r rule) node(now time.Time) (ast.Node, error) {
	if r.MaxAge <= 0 {
		return r.filter, nil
	}

	cutoff := now.Add(-r.MaxAge).UTC().Format(store.TimeFormat)
	age, err := ast.NewComparisonNode(store.FieldCreatedAt, operators.LessThan, []string{cutoff}, token.Position{})
	if err != nil {
		return nil, err
	}
	if r.filter == nil {
		return age, nil
	}
	return ast.NewLogicalNode(ast.And, []ast.Node{r.filter, age}, token.Position{})
}

// Rules returns the names of the configured rules.
func (p *Pruner) Rules() []string {
	names := make([]string, len(p.rules))
	for i, r := range p.rules {
		names[i] = r.Name
	}
	return names
}
