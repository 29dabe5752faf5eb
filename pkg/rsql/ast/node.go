package ast

import (
	"slices"
	"strings"
	"unicode"

	rsqlerrors "mercator-hq/rsql/pkg/rsql/errors"
	"mercator-hq/rsql/pkg/rsql/token"
)

var noPos token.Position

// Node is an element of a parsed RSQL query: *ComparisonNode or *LogicalNode.
// Nodes are immutable and own their children.
type Node interface {
	// Position returns where the node starts in the query text.
	Position() token.Position

	// String returns the node in canonical RSQL form.
	String() string

	node()
}

// ComparisonNode is a single constraint: selector, operator and arguments.
// For nested operators Nested holds the sub-query and there are no arguments.
type ComparisonNode struct {
	selector  string
	operator  *ComparisonOperator
	arguments []string
	nested    Node
	pos       token.Position
}

// NewComparisonNode creates a comparison with literal arguments. The argument
// count must satisfy the operator type.
func NewComparisonNode(selector string, op *ComparisonOperator, arguments []string, pos token.Position) (*ComparisonNode, error) {
	if selector == "" {
		return nil, rsqlerrors.New(rsqlerrors.ErrorTypeSemantic, pos, "selector must not be empty")
	}
	if op == nil {
		return nil, rsqlerrors.New(rsqlerrors.ErrorTypeSemantic, pos, "operator must not be nil")
	}
	if err := op.CheckArgumentCount(len(arguments)); err != nil {
		err.Position = pos
		return nil, err
	}

	return &ComparisonNode{
		selector:  selector,
		operator:  op,
		arguments: slices.Clone(arguments),
		pos:       pos,
	}, nil
}

// NewNestedComparisonNode creates a comparison whose operator takes a sub-query.
func NewNestedComparisonNode(selector string, op *ComparisonOperator, nested Node, pos token.Position) (*ComparisonNode, error) {
	if selector == "" {
		return nil, rsqlerrors.New(rsqlerrors.ErrorTypeSemantic, pos, "selector must not be empty")
	}
	if op == nil || op.Type().Kind() != KindNested {
		return nil, rsqlerrors.New(rsqlerrors.ErrorTypeSemantic, pos, "operator %v does not accept a nested query", op)
	}
	if nested == nil {
		return nil, rsqlerrors.New(rsqlerrors.ErrorTypeSemantic, pos, "operator %s requires a nested query", op.Symbol())
	}

	return &ComparisonNode{
		selector: selector,
		operator: op,
		nested:   nested,
		pos:      pos,
	}, nil
}

// Selector returns the field name on the left-hand side.
func (n *ComparisonNode) Selector() string { return n.selector }

// Operator returns the comparison operator.
func (n *ComparisonNode) Operator() *ComparisonOperator { return n.operator }

// Arguments returns a copy of the unescaped argument values.
func (n *ComparisonNode) Arguments() []string { return slices.Clone(n.arguments) }

// NumArguments returns the number of arguments.
func (n *ComparisonNode) NumArguments() int { return len(n.arguments) }

// Argument returns the i-th argument.
func (n *ComparisonNode) Argument(i int) string { return n.arguments[i] }

// Nested returns the sub-query of a nested operator, or nil.
func (n *ComparisonNode) Nested() Node { return n.nested }

// Position returns the position of the selector.
func (n *ComparisonNode) Position() token.Position { return n.pos }

func (n *ComparisonNode) String() string {
	var sb strings.Builder
	sb.WriteString(n.selector)
	sb.WriteString(n.operator.Symbol())

	switch {
	case n.nested != nil:
		sb.WriteString("(")
		sb.WriteString(n.nested.String())
		sb.WriteString(")")
	case len(n.arguments) == 1 && !n.operator.IsMultiValue():
		sb.WriteString(Quote(n.arguments[0]))
	case len(n.arguments) > 0:
		sb.WriteString("(")
		for i, arg := range n.arguments {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(Quote(arg))
		}
		sb.WriteString(")")
	}
	return sb.String()
}

func (*ComparisonNode) node() {}

// LogicalNode combines two or more child nodes with AND or OR.
// Children keep the left-to-right order of the query text.
type LogicalNode struct {
	operator LogicalOperator
	children []Node
	pos      token.Position
}

// NewLogicalNode creates a logical node over at least two children.
func NewLogicalNode(op LogicalOperator, children []Node, pos token.Position) (*LogicalNode, error) {
	if !op.IsValid() {
		return nil, rsqlerrors.New(rsqlerrors.ErrorTypeSemantic, pos, "invalid logical operator %v", op)
	}
	if len(children) < 2 {
		return nil, rsqlerrors.New(rsqlerrors.ErrorTypeSemantic, pos,
			"%s node requires at least 2 children, got %d", op, len(children))
	}
	for i, child := range children {
		if child == nil {
			return nil, rsqlerrors.New(rsqlerrors.ErrorTypeSemantic, pos, "%s node child %d is nil", op, i)
		}
	}

	return &LogicalNode{
		operator: op,
		children: slices.Clone(children),
		pos:      pos,
	}, nil
}

// Operator returns AND or OR.
func (n *LogicalNode) Operator() LogicalOperator { return n.operator }

// Children returns a copy of the child list.
func (n *LogicalNode) Children() []Node { return slices.Clone(n.children) }

// Len returns the number of children.
func (n *LogicalNode) Len() int { return len(n.children) }

// Child returns the i-th child.
func (n *LogicalNode) Child(i int) Node { return n.children[i] }

// Position returns the position of the first child.
func (n *LogicalNode) Position() token.Position { return n.pos }

// String joins the children with the canonical symbol. Logical children are
// parenthesised so the rendering parses back to the same tree.
func (n *LogicalNode) String() string {
	parts := make([]string, len(n.children))
	for i, child := range n.children {
		if _, ok := child.(*LogicalNode); ok {
			parts[i] = "(" + child.String() + ")"
		} else {
			parts[i] = child.String()
		}
	}
	return strings.Join(parts, n.operator.Symbol())
}

func (*LogicalNode) node() {}

// Quote returns arg unchanged when it can be written as an unquoted argument,
// otherwise double quoted with '"' and '\' escaped.
func Quote(arg string) string {
	if arg != "" && !needsQuoting(arg) {
		return arg
	}
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range arg {
		if r == '"' || r == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('"')
	return sb.String()
}

func needsQuoting(s string) bool {
	if s == "and" || s == "or" {
		return true
	}
	return strings.ContainsFunc(s, func(r rune) bool {
		return token.IsReserved(r) || unicode.IsSpace(r)
	})
}
