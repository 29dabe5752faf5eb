// Package rsql parses RSQL filter expressions into an immutable AST.
//
// RSQL is a query language for filtering REST resources, a superset of FIQL:
//
//	name=="Kill Bill";year=gt=2003
//	genre=in=(sci-fi,action),director=null=
//
// The packages below rsql form a pipeline:
//
//	lexer     text to tokens
//	parser    tokens to a provisional tree, then to an AST
//	nodes     operator resolution, unescaping and arity checks
//	ast       the node types, operators and the Visitor contract
//	operators the default comparison operators and the Registry
//
// Consumers interpret a tree through ast.Visitor, see the sqlfilter and
// predicate packages for two complete visitors.
package rsql

import (
	"mercator-hq/rsql/pkg/rsql/ast"
	"mercator-hq/rsql/pkg/rsql/operators"
	"mercator-hq/rsql/pkg/rsql/parser"
)

var defaultParser = parser.NewParser()

// Parse parses query with the default operators and limits.
func Parse(query string) (ast.Node, error) {
	return defaultParser.Parse(query)
}

// MustParse is like Parse but panics on error. It is intended for tests and
// package level filters.
func MustParse(query string) ast.Node {
	node, err := Parse(query)
	if err != nil {
		panic(err)
	}
	return node
}

// NewParser returns a parser that knows the default operators plus custom.
// A custom operator reusing a default symbol replaces the default for that
// symbol.
func NewParser(custom ...*ast.ComparisonOperator) (*parser.Parser, error) {
	reg, err := operators.Default().With(custom...)
	if err != nil {
		return nil, err
	}
	return parser.New(reg), nil
}
