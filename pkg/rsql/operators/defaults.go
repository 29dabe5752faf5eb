// Package operators provides the default RSQL comparison operators and the
// immutable Registry a parser resolves operator symbols against.
package operators

import "mercator-hq/rsql/pkg/rsql/ast"

// Default comparison operators.
var (
	Equal              = ast.MustComparisonOperator(ast.Unary, "==")
	NotEqual           = ast.MustComparisonOperator(ast.Unary, "!=")
	GreaterThan        = ast.MustComparisonOperator(ast.Unary, "=gt=", ">")
	GreaterThanOrEqual = ast.MustComparisonOperator(ast.Unary, "=ge=", ">=")
	LessThan           = ast.MustComparisonOperator(ast.Unary, "=lt=", "<")
	LessThanOrEqual    = ast.MustComparisonOperator(ast.Unary, "=le=", "<=")
	In                 = ast.MustComparisonOperator(ast.Multiary, "=in=")
	NotIn              = ast.MustComparisonOperator(ast.Multiary, "=out=")
	IsNull             = ast.MustComparisonOperator(ast.Nullary(), "=null=")
	NotNull            = ast.MustComparisonOperator(ast.Nullary(), "=notnull=")
)

// Defaults returns the ten default operators in a fresh slice.
func Defaults() []*ast.ComparisonOperator {
	return []*ast.ComparisonOperator{
		Equal, NotEqual,
		GreaterThan, GreaterThanOrEqual,
		LessThan, LessThanOrEqual,
		In, NotIn,
		IsNull, NotNull,
	}
}

var defaultRegistry = mustRegistry(Defaults()...)

// Default returns the registry of the default operators.
func Default() *Registry {
	return defaultRegistry
}
