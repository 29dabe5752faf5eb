// Package nodes validates raw comparisons and builds the final AST.
//
// The Factory is where every semantic rule is enforced: operator symbols are
// resolved against a Registry, quoted arguments are unescaped and argument
// counts are checked against the operator's arity. The grammar parser stays
// purely syntactic, so registering a new operator never touches it.
package nodes

import (
	"strings"

	"mercator-hq/rsql/pkg/rsql/ast"
	rsqlerrors "mercator-hq/rsql/pkg/rsql/errors"
	"mercator-hq/rsql/pkg/rsql/operators"
	"mercator-hq/rsql/pkg/rsql/token"
)

// Argument is a literal argument as written in the query.
type Argument struct {
	Value string // raw text, escapes still present when quoted
	Quote byte   // '\'' or '"' for quoted literals, 0 otherwise
	Pos   token.Position
}

// Literal returns an unquoted argument.
func Literal(value string) Argument {
	return Argument{Value: value}
}

// Quoted reports whether the argument was quoted.
func (a Argument) Quoted() bool {
	return a.Quote != 0
}

// Unescaped returns the argument value with escape sequences resolved.
func (a Argument) Unescaped() string {
	if !a.Quoted() {
		return a.Value
	}
	return Unescape(a.Value)
}

// Comparison is a comparison as recognised by the grammar, before any
// semantic validation.
type Comparison struct {
	Selector  string
	Symbol    string
	Arguments []Argument
	Pos       token.Position // selector position
	SymbolPos token.Position // operator position, used for operator errors
}

func (c Comparison) symbolPos() token.Position {
	if c.SymbolPos.IsValid() {
		return c.SymbolPos
	}
	return c.Pos
}

// Factory creates AST nodes for one operator registry. It is immutable and
// safe for concurrent use.
type Factory struct {
	registry *operators.Registry
}

// NewFactory returns a factory resolving symbols against registry, or the
// default operators if registry is nil.
func NewFactory(registry *operators.Registry) *Factory {
	if registry == nil {
		registry = operators.Default()
	}
	return &Factory{registry: registry}
}

// Registry returns the operator registry.
func (f *Factory) Registry() *operators.Registry {
	return f.registry
}

// CreateComparison resolves the operator, unescapes the arguments and checks
// the argument count against the operator's arity.
func (f *Factory) CreateComparison(c Comparison) (*ast.ComparisonNode, error) {
	op, err := f.resolve(c)
	if err != nil {
		return nil, err
	}
	if op.Type().Kind() == ast.KindNested {
		return nil, rsqlerrors.New(rsqlerrors.ErrorTypeSemantic, c.symbolPos(),
			"operator %s expects a nested query in parentheses", op.Symbol())
	}

	values := make([]string, len(c.Arguments))
	for i, arg := range c.Arguments {
		values[i] = arg.Unescaped()
	}

	if arityErr := op.CheckArgumentCount(len(values)); arityErr != nil {
		arityErr.Position = c.symbolPos()
		return nil, arityErr
	}

	return ast.NewComparisonNode(c.Selector, op, values, c.Pos)
}

// CreateNested creates a comparison whose operator takes a sub-query.
func (f *Factory) CreateNested(c Comparison, nested ast.Node) (*ast.ComparisonNode, error) {
	op, err := f.resolve(c)
	if err != nil {
		return nil, err
	}
	if op.Type().Kind() != ast.KindNested {
		return nil, rsqlerrors.New(rsqlerrors.ErrorTypeSemantic, c.symbolPos(),
			"operator %s does not accept a nested query", op.Symbol())
	}
	return ast.NewNestedComparisonNode(c.Selector, op, nested, c.Pos)
}

// CreateLogical combines children, which must number at least two.
func (f *Factory) CreateLogical(op ast.LogicalOperator, children []ast.Node) (*ast.LogicalNode, error) {
	var pos token.Position
	if len(children) > 0 && children[0] != nil {
		pos = children[0].Position()
	}
	return ast.NewLogicalNode(op, children, pos)
}

// Resolve looks up symbol. An unknown symbol is a semantic error at pos
// suggesting the closest registered symbol.
func (f *Factory) Resolve(symbol string, pos token.Position) (*ast.ComparisonOperator, *rsqlerrors.Error) {
	op, ok := f.registry.Lookup(symbol)
	if !ok {
		err := rsqlerrors.New(rsqlerrors.ErrorTypeSemantic, pos, "unknown operator '%s'", symbol)
		err.Operator = symbol
		return nil, err.WithSuggestion(rsqlerrors.SuggestOperator(symbol, f.registry.Symbols()))
	}
	return op, nil
}

func (f *Factory) resolve(c Comparison) (*ast.ComparisonOperator, error) {
	op, rerr := f.Resolve(c.Symbol, c.symbolPos())
	if rerr != nil {
		return nil, rerr
	}
	return op, nil
}

// Unescape removes backslash escapes: a backslash followed by any character
// yields that character. A trailing lone backslash is kept.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))
	escaped := false
	for _, r := range s {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		sb.WriteRune(r)
	}
	if escaped {
		sb.WriteByte('\\')
	}
	return sb.String()
}
