package config

import (
	stderrors "errors"
	"fmt"

	"mercator-hq/rsql/pkg/rsql/ast"
	rsqlerrors "mercator-hq/rsql/pkg/rsql/errors"
	"mercator-hq/rsql/pkg/rsql/operators"
	"mercator-hq/rsql/pkg/rsql/parser"
)

// Operator types accepted in OperatorConfig.Type.
const (
	OperatorTypeValued  = "valued"
	OperatorTypeNullary = "nullary"
	OperatorTypeNested  = "nested"
)

// Operator builds the comparison operator described by the definition.
func (o OperatorConfig) Operator() (*ast.ComparisonOperator, error) {
	var typ ast.OperatorType

	switch o.Type {
	case OperatorTypeValued, "":
		hi := o.Max
		switch hi {
		case -1:
			hi = ast.Unbounded
		case 0:
			hi = o.Min
		}
		arity, err := ast.NewArity(o.Min, hi)
		if err != nil {
			return nil, err
		}
		typ = ast.Valued(arity)
	case OperatorTypeNullary:
		if o.Min != 0 || o.Max != 0 {
			return nil, fmt.Errorf("nullary operator %v must not set min or max", o.Symbols)
		}
		typ = ast.Nullary()
	case OperatorTypeNested:
		if o.Min != 0 || o.Max != 0 {
			return nil, fmt.Errorf("nested operator %v must not set min or max", o.Symbols)
		}
		typ = ast.Nested()
	default:
		return nil, fmt.Errorf("invalid operator type %q: must be 'valued', 'nullary' or 'nested'", o.Type)
	}

	return ast.NewComparisonOperator(typ, o.Symbols...)
}

// BuildRegistry compiles the configured operators into a registry. Unless
// default operators are disabled, the definitions are layered on top of
// the default set so that they may replace a default symbol.
func BuildRegistry(cfg *Config) (*operators.Registry, error) {
	ops := make([]*ast.ComparisonOperator, 0, len(cfg.Operators))
	for i, def := range cfg.Operators {
		op, err := def.Operator()
		if err != nil {
			return nil, fmt.Errorf("operators[%d]: %w", i, err)
		}
		ops = append(ops, op)
	}

	if cfg.Parser.DisableDefaultOperators {
		return operators.NewRegistry(ops...)
	}
	return operators.Default().With(ops...)
}

// NewParser returns a parser using the configured operators and limits.
func NewParser(cfg *Config) (*parser.Parser, error) {
	registry, err := BuildRegistry(cfg)
	if err != nil {
		return nil, err
	}

	return parser.New(registry).
		WithMaxLength(limit(cfg.Parser.MaxLength)).
		WithMaxDepth(limit(cfg.Parser.MaxDepth)), nil
}

// limit maps a configured limit to the parser's convention, where 0 means
// unlimited.
func limit(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func shortError(err error) string {
	var rerr *rsqlerrors.Error
	if stderrors.As(err, &rerr) {
		return rerr.Short()
	}
	return err.Error()
}
