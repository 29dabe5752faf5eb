// Package ast defines the RSQL operator model and the abstract syntax tree.
//
// # Operators
//
// A ComparisonOperator has one or more symbols matching SymbolPattern and an
// OperatorType, a closed variant of Valued(Arity), Nullary and Nested:
//
//	between := ast.MustComparisonOperator(ast.Valued(ast.ExactArity(2)), "=between=")
//	isEmpty, err := ast.NewComparisonOperator(ast.Nullary(), "=empty=")
//
// Operators are immutable and compare equal by primary symbol only.
//
// # Nodes
//
// A parsed query is a tree of *ComparisonNode and *LogicalNode values.
// Trees are immutable once built; accessors return copies.
//
// # Traversal
//
// Consumers interpret a tree with a Visitor and Accept:
//
//	type printer struct{}
//
//	func (printer) VisitComparison(n *ast.ComparisonNode) (string, error) {
//	    return n.Selector(), nil
//	}
//
//	func (p printer) VisitLogical(n *ast.LogicalNode) (string, error) {
//	    ...
//	}
//
//	s, err := ast.Accept[string](root, printer{})
//
// or with Match when a throwaway visitor is enough. Walk visits every node
// in pre-order, children in query order.
package ast
