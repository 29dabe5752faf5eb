// Package predicate compiles RSQL trees into in-memory filters over
// JSON-like records.
//
//	match, err := predicate.Compile(rsql.MustParse("genre=in=(drama,war);year=lt=1990"))
//	if match(record) { ... }
//
// Selectors address nested fields with dots (author.name). When a field holds
// a list, == and =in= match if any element matches. Operators of the nested
// type match if any element of the list satisfies the sub-query.
package predicate

import (
	"mercator-hq/rsql/pkg/rsql/ast"
	rsqlerrors "mercator-hq/rsql/pkg/rsql/errors"
	"mercator-hq/rsql/pkg/rsql/operators"
)

// Record is a decoded JSON object.
type Record = map[string]any

// Predicate reports whether a record matches.
type Predicate func(Record) bool

// Func evaluates a custom operator. found is false when the selector does
// not resolve in the record.
type Func func(value any, found bool, args []string) bool

type compiler struct {
	funcs map[string]Func
}

// Option configures Compile.
type Option func(*compiler)

// WithOperator registers fn as the evaluation of op, replacing the built-in
// one if op is a default operator.
func WithOperator(op *ast.ComparisonOperator, fn Func) Option {
	return func(c *compiler) {
		c.funcs[op.Key()] = fn
	}
}

var builtins = map[string]Func{
	operators.Equal.Key():              func(v any, found bool, args []string) bool { return found && anyEqual(v, args[0]) },
	operators.NotEqual.Key():           func(v any, found bool, args []string) bool { return !found || !anyEqual(v, args[0]) },
	operators.GreaterThan.Key():        ordered(func(c int) bool { return c > 0 }),
	operators.GreaterThanOrEqual.Key(): ordered(func(c int) bool { return c >= 0 }),
	operators.LessThan.Key():           ordered(func(c int) bool { return c < 0 }),
	operators.LessThanOrEqual.Key():    ordered(func(c int) bool { return c <= 0 }),
	operators.In.Key():                 func(v any, found bool, args []string) bool { return found && anyIn(v, args) },
	operators.NotIn.Key():              func(v any, found bool, args []string) bool { return !found || !anyIn(v, args) },
	operators.IsNull.Key():             func(v any, found bool, _ []string) bool { return !found || v == nil },
	operators.NotNull.Key():            func(v any, found bool, _ []string) bool { return found && v != nil },
}

// Compile builds a predicate from node. A nil node matches every record.
func Compile(node ast.Node, opts ...Option) (Predicate, error) {
	c := &compiler{funcs: make(map[string]Func, len(builtins))}
	for k, fn := range builtins {
		c.funcs[k] = fn
	}
	for _, opt := range opts {
		opt(c)
	}

	if node == nil {
		return func(Record) bool { return true }, nil
	}
	return ast.Accept[Predicate](node, c)
}

// Filter returns the records matching p, in their original order.
func Filter(records []Record, p Predicate) []Record {
	var out []Record
	for _, r := range records {
		if p(r) {
			out = append(out, r)
		}
	}
	return out
}

func (c *compiler) VisitLogical(n *ast.LogicalNode) (Predicate, error) {
	children := make([]Predicate, n.Len())
	for i, child := range n.Children() {
		p, err := ast.Accept[Predicate](child, c)
		if err != nil {
			return nil, err
		}
		children[i] = p
	}

	if n.Operator() == ast.And {
		return func(r Record) bool {
			for _, p := range children {
				if !p(r) {
					return false
				}
			}
			return true
		}, nil
	}
	return func(r Record) bool {
		for _, p := range children {
			if p(r) {
				return true
			}
		}
		return false
	}, nil
}

func (c *compiler) VisitComparison(n *ast.ComparisonNode) (Predicate, error) {
	selector := n.Selector()
	op := n.Operator()

	if fn, ok := c.funcs[op.Key()]; ok {
		args := n.Arguments()
		return func(r Record) bool {
			v, found := Lookup(r, selector)
			return fn(v, found, args)
		}, nil
	}

	if op.Type().Kind() == ast.KindNested {
		inner, err := ast.Accept[Predicate](n.Nested(), c)
		if err != nil {
			return nil, err
		}
		return func(r Record) bool {
			v, _ := Lookup(r, selector)
			return anyElement(v, inner)
		}, nil
	}

	return nil, rsqlerrors.New(rsqlerrors.ErrorTypeSemantic, n.Position(),
		"operator %s has no in-memory evaluation", op.Symbol())
}

// anyElement reports whether inner matches an element of v, or v itself
// when it is a single object.
func anyElement(v any, inner Predicate) bool {
	switch val := v.(type) {
	case []any:
		for _, elem := range val {
			if obj, ok := elem.(Record); ok && inner(obj) {
				return true
			}
		}
	case Record:
		return inner(val)
	}
	return false
}
