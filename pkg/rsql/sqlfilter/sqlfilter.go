// Package sqlfilter renders RSQL trees as parameterised SQL WHERE clauses.
//
//	node, _ := rsql.Parse(`name=="Kill*";year=ge=2000`)
//	where, err := sqlfilter.New(sqlfilter.ColumnMap{"name": "title", "year": "year"}).Build(node)
//	// where.SQL  = `("title" LIKE ? ESCAPE '\' AND "year" >= ?)`
//	// where.Args = ["Kill%", 2000]
//
// Argument values are never written into the SQL text. The order of Args
// follows the order of the arguments in the query.
//
// When the ColumnMapper is also an ElementMapper, ==, !=, =in= and =out=
// compare against every element of a list: genre==drama matches a document
// whose genre is "drama" or ["drama", "war"].
package sqlfilter

import (
	"strconv"
	"strings"

	"mercator-hq/rsql/pkg/rsql/ast"
	rsqlerrors "mercator-hq/rsql/pkg/rsql/errors"
	"mercator-hq/rsql/pkg/rsql/operators"
)

// Clause is a rendered condition and its bind values.
type Clause struct {
	SQL  string
	Args []any
}

// Renderer renders one comparison given its mapped column. Registered
// renderers take precedence over the built-in ones.
type Renderer func(column string, node *ast.ComparisonNode, convert Converter) (Clause, error)

// Converter turns an argument string into a bind value.
type Converter func(arg string) any

// InferType binds integers and floats as numbers, true and false as
// booleans and everything else as text, so comparisons work against JSON
// values.
func InferType(arg string) any {
	switch arg {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(arg, 64); err == nil {
		return f
	}
	return arg
}

// AsText binds every argument as text.
func AsText(arg string) any {
	return arg
}

// Builder renders trees to SQL. A Builder is immutable once created and
// safe for concurrent use.
type Builder struct {
	columns   ColumnMapper
	renderers map[string]Renderer
	convert   Converter
	wildcards bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithRenderer registers r for op, which is how custom operators get SQL.
func WithRenderer(op *ast.ComparisonOperator, r Renderer) Option {
	return func(b *Builder) {
		b.renderers[op.Key()] = r
	}
}

// WithConverter sets how arguments become bind values. The default is InferType.
func WithConverter(c Converter) Option {
	return func(b *Builder) {
		b.convert = c
	}
}

// WithoutWildcards treats '*' in == and != arguments literally.
func WithoutWildcards() Option {
	return func(b *Builder) {
		b.wildcards = false
	}
}

// New creates a builder resolving selectors through columns.
func New(columns ColumnMapper, opts ...Option) *Builder {
	b := &Builder{
		columns:   columns,
		renderers: make(map[string]Renderer),
		convert:   InferType,
		wildcards: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build renders node. A nil node renders as the always-true clause "1 = 1".
func (b *Builder) Build(node ast.Node) (Clause, error) {
	if node == nil {
		return Clause{SQL: "1 = 1"}, nil
	}
	return ast.Accept[Clause](node, b)
}

// VisitLogical implements ast.Visitor.
func (b *Builder) VisitLogical(n *ast.LogicalNode) (Clause, error) {
	sep := " AND "
	if n.Operator() == ast.Or {
		sep = " OR "
	}

	var sb strings.Builder
	var args []any
	sb.WriteByte('(')
	for i, child := range n.Children() {
		c, err := ast.Accept[Clause](child, b)
		if err != nil {
			return Clause{}, err
		}
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(c.SQL)
		args = append(args, c.Args...)
	}
	sb.WriteByte(')')
	return Clause{SQL: sb.String(), Args: args}, nil
}

// VisitComparison implements ast.Visitor.
func (b *Builder) VisitComparison(n *ast.ComparisonNode) (Clause, error) {
	col, err := b.columns.Column(n.Selector())
	if err != nil {
		if rerr, ok := err.(*rsqlerrors.Error); ok && !rerr.Position.IsValid() {
			rerr.Position = n.Position()
		}
		return Clause{}, err
	}

	op := n.Operator()
	if r, ok := b.renderers[op.Key()]; ok {
		return r(col, n, b.convert)
	}

	if em, ok := b.columns.(ElementMapper); ok {
		if table, ok := em.Elements(n.Selector()); ok {
			if c, ok := b.elementComparison(table, n); ok {
				return c, nil
			}
		}
	}

	switch op.Key() {
	case operators.Equal.Key():
		return b.equality(col, n.Argument(0), "=", "LIKE"), nil
	case operators.NotEqual.Key():
		return b.equality(col, n.Argument(0), "<>", "NOT LIKE"), nil
	case operators.GreaterThan.Key():
		return b.binary(col, ">", n.Argument(0)), nil
	case operators.GreaterThanOrEqual.Key():
		return b.binary(col, ">=", n.Argument(0)), nil
	case operators.LessThan.Key():
		return b.binary(col, "<", n.Argument(0)), nil
	case operators.LessThanOrEqual.Key():
		return b.binary(col, "<=", n.Argument(0)), nil
	case operators.In.Key():
		return b.list(col, "IN", n.Arguments()), nil
	case operators.NotIn.Key():
		return b.list(col, "NOT IN", n.Arguments()), nil
	case operators.IsNull.Key():
		return Clause{SQL: col + " IS NULL"}, nil
	case operators.NotNull.Key():
		return Clause{SQL: col + " IS NOT NULL"}, nil
	}

	return Clause{}, rsqlerrors.New(rsqlerrors.ErrorTypeSemantic, n.Position(),
		"operator %s has no SQL rendering", op.Symbol())
}

// elementComparison renders the list-aware operators as an EXISTS over
// table. Object members have text keys and are skipped, so only list
// elements and scalars are compared.
func (b *Builder) elementComparison(table string, n *ast.ComparisonNode) (Clause, bool) {
	var c Clause
	negate := false
	switch n.Operator().Key() {
	case operators.Equal.Key():
		c = b.equality("value", n.Argument(0), "=", "LIKE")
	case operators.NotEqual.Key():
		c, negate = b.equality("value", n.Argument(0), "=", "LIKE"), true
	case operators.In.Key():
		c = b.list("value", "IN", n.Arguments())
	case operators.NotIn.Key():
		c, negate = b.list("value", "IN", n.Arguments()), true
	default:
		return Clause{}, false
	}

	sql := "EXISTS (SELECT 1 FROM " + table + " WHERE typeof(key) <> 'text' AND " + c.SQL + ")"
	if negate {
		sql = "NOT " + sql
	}
	return Clause{SQL: sql, Args: c.Args}, true
}

func (b *Builder) binary(col, sqlOp, arg string) Clause {
	return Clause{SQL: col + " " + sqlOp + " ?", Args: []any{b.convert(arg)}}
}

func (b *Builder) equality(col, arg, sqlOp, likeOp string) Clause {
	if b.wildcards && strings.Contains(arg, "*") {
		return Clause{SQL: col + " " + likeOp + ` ? ESCAPE '\'`, Args: []any{LikePattern(arg)}}
	}
	return b.binary(col, sqlOp, arg)
}

func (b *Builder) list(col, sqlOp string, args []string) Clause {
	values := make([]any, len(args))
	for i, arg := range args {
		values[i] = b.convert(arg)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	return Clause{SQL: col + " " + sqlOp + " (" + placeholders + ")", Args: values}
}

// LikePattern converts an RSQL wildcard pattern to a LIKE pattern using '\'
// as the escape character: '*' becomes '%', literal '%', '_' and '\' are escaped.
func LikePattern(arg string) string {
	var sb strings.Builder
	sb.Grow(len(arg))
	for _, r := range arg {
		switch r {
		case '*':
			sb.WriteByte('%')
		case '%', '_', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// ElementMatch returns a Renderer for nested operators over JSON arrays. The
// comparison matches when any element of the array satisfies the sub-query,
// whose selectors address fields of the element:
//
//	tags=any=(name==go;weight=gt=3)
//
// renders as EXISTS (SELECT 1 FROM json_each(<tags>) AS elem WHERE ...).
func ElementMatch(opts ...Option) Renderer {
	return func(column string, node *ast.ComparisonNode, _ Converter) (Clause, error) {
		if node.Nested() == nil {
			return Clause{}, rsqlerrors.New(rsqlerrors.ErrorTypeSemantic, node.Position(),
				"operator %s requires a nested query", node.Operator().Symbol())
		}
		inner, err := New(elementColumns{}, opts...).Build(node.Nested())
		if err != nil {
			return Clause{}, err
		}
		return Clause{
			SQL:  "EXISTS (SELECT 1 FROM json_each(" + column + ") AS elem WHERE " + inner.SQL + ")",
			Args: inner.Args,
		}, nil
	}
}
