package ast

import (
	"fmt"
	"slices"
)

// Visitor interprets an AST into a result of type R. Implement it to build
// SQL predicates, in-memory filters and similar.
type Visitor[R any] interface {
	VisitComparison(*ComparisonNode) (R, error)
	VisitLogical(*LogicalNode) (R, error)
}

// Accept dispatches node to the visitor method for its variant.
// Visitors recurse into LogicalNode children themselves, usually by calling
// Accept on each child in order.
func Accept[R any](node Node, v Visitor[R]) (R, error) {
	switch n := node.(type) {
	case *ComparisonNode:
		return v.VisitComparison(n)
	case *LogicalNode:
		return v.VisitLogical(n)
	default:
		var zero R
		return zero, fmt.Errorf("unsupported node type %T", node)
	}
}

// Match is a Visitor built from two functions, for callers that prefer a
// switch-style traversal over declaring a visitor type.
type Match[R any] struct {
	Comparison func(*ComparisonNode) (R, error)
	Logical    func(*LogicalNode) (R, error)
}

// VisitComparison calls m.Comparison.
func (m Match[R]) VisitComparison(n *ComparisonNode) (R, error) { return m.Comparison(n) }

// VisitLogical calls m.Logical.
func (m Match[R]) VisitLogical(n *LogicalNode) (R, error) { return m.Logical(n) }

// Walk traverses the tree in pre-order, children left to right, descending
// into nested sub-queries. If fn returns false the children of that node
// are skipped.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}

	switch n := node.(type) {
	case *LogicalNode:
		for _, child := range n.children {
			Walk(child, fn)
		}
	case *ComparisonNode:
		if n.nested != nil {
			Walk(n.nested, fn)
		}
	}
}

// Selectors returns the distinct selectors in the order they first appear.
func Selectors(node Node) []string {
	var out []string
	Walk(node, func(n Node) bool {
		if c, ok := n.(*ComparisonNode); ok && !slices.Contains(out, c.selector) {
			out = append(out, c.selector)
		}
		return true
	})
	return out
}

// Equal reports whether two trees have the same shape, selectors, operators
// and arguments. Positions are ignored.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case *ComparisonNode:
		y, ok := b.(*ComparisonNode)
		if !ok {
			return false
		}
		if x.selector != y.selector || !x.operator.Equal(y.operator) || !slices.Equal(x.arguments, y.arguments) {
			return false
		}
		if x.nested == nil || y.nested == nil {
			return x.nested == nil && y.nested == nil
		}
		return Equal(x.nested, y.nested)
	case *LogicalNode:
		y, ok := b.(*LogicalNode)
		if !ok || x.operator != y.operator || len(x.children) != len(y.children) {
			return false
		}
		for i := range x.children {
			if !Equal(x.children[i], y.children[i]) {
				return false
			}
		}
		return true
	default:
		return a == nil && b == nil
	}
}
