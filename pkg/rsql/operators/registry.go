package operators

import (
	"slices"
	"sort"

	"mercator-hq/rsql/pkg/rsql/ast"
	rsqlerrors "mercator-hq/rsql/pkg/rsql/errors"
)

// Registry is an immutable set of comparison operators indexed by every
// symbol they answer to. A Registry is safe for concurrent use.
type Registry struct {
	operators []*ast.ComparisonOperator
	bySymbol  map[string]*ast.ComparisonOperator
}

// NewRegistry builds a registry from ops. When two operators claim the same
// symbol, the later one wins; an operator left without any symbol is dropped.
func NewRegistry(ops ...*ast.ComparisonOperator) (*Registry, error) {
	bySymbol := make(map[string]*ast.ComparisonOperator)
	for i, op := range ops {
		if op == nil {
			return nil, rsqlerrors.Construction("operator %d is nil", i)
		}
		for _, sym := range op.Symbols() {
			bySymbol[sym] = op
		}
	}

	r := &Registry{bySymbol: bySymbol}
	for _, op := range ops {
		if r.owns(op) && !slices.Contains(r.operators, op) {
			r.operators = append(r.operators, op)
		}
	}
	return r, nil
}

func mustRegistry(ops ...*ast.ComparisonOperator) *Registry {
	r, err := NewRegistry(ops...)
	if err != nil {
		panic(err)
	}
	return r
}

// owns reports whether op still resolves any of its symbols.
func (r *Registry) owns(op *ast.ComparisonOperator) bool {
	for _, sym := range op.Symbols() {
		if r.bySymbol[sym] == op {
			return true
		}
	}
	return false
}

// With returns a new registry holding r's operators followed by ops.
func (r *Registry) With(ops ...*ast.ComparisonOperator) (*Registry, error) {
	all := make([]*ast.ComparisonOperator, 0, len(r.operators)+len(ops))
	all = append(all, r.operators...)
	all = append(all, ops...)
	return NewRegistry(all...)
}

// Lookup resolves a primary or alias symbol.
func (r *Registry) Lookup(symbol string) (*ast.ComparisonOperator, bool) {
	op, ok := r.bySymbol[symbol]
	return op, ok
}

// Has reports whether symbol is registered.
func (r *Registry) Has(symbol string) bool {
	_, ok := r.bySymbol[symbol]
	return ok
}

// Operators returns the registered operators in registration order.
func (r *Registry) Operators() []*ast.ComparisonOperator {
	return slices.Clone(r.operators)
}

// Symbols returns every registered symbol, sorted.
func (r *Registry) Symbols() []string {
	syms := make([]string, 0, len(r.bySymbol))
	for sym := range r.bySymbol {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}

// Len returns the number of distinct operators.
func (r *Registry) Len() int {
	return len(r.operators)
}
