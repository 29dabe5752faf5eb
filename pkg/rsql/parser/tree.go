package parser

import (
	"mercator-hq/rsql/pkg/rsql/ast"
	"mercator-hq/rsql/pkg/rsql/nodes"
	"mercator-hq/rsql/pkg/rsql/token"
)

// rawNode is the provisional parse tree produced by the grammar. It keeps
// operator symbols and argument text as written; the builder turns it into
// an AST through the node factory.
type rawNode interface {
	position() token.Position
}

type rawComparison struct {
	selector token.Token
	operator token.Token
	args     []token.Token
	nested   rawNode // set for operators registered as nested
}

func (c *rawComparison) position() token.Position { return c.selector.Pos }

type rawLogical struct {
	op       ast.LogicalOperator
	children []rawNode
}

func (l *rawLogical) position() token.Position { return l.children[0].position() }

// builder constructs AST nodes from the provisional tree.
type builder struct {
	factory *nodes.Factory
}

func (b *builder) build(n rawNode) (ast.Node, error) {
	switch n := n.(type) {
	case *rawComparison:
		return b.buildComparison(n)
	case *rawLogical:
		children := make([]ast.Node, 0, len(n.children))
		for _, child := range n.children {
			node, err := b.build(child)
			if err != nil {
				return nil, err
			}
			children = append(children, node)
		}
		return b.factory.CreateLogical(n.op, children)
	}
	panic("unreachable")
}

func (b *builder) buildComparison(c *rawComparison) (ast.Node, error) {
	cmp := nodes.Comparison{
		Selector:  c.selector.Value,
		Symbol:    c.operator.Value,
		Pos:       c.selector.Pos,
		SymbolPos: c.operator.Pos,
	}

	if c.nested != nil {
		nested, err := b.build(c.nested)
		if err != nil {
			return nil, err
		}
		return b.factory.CreateNested(cmp, nested)
	}

	cmp.Arguments = make([]nodes.Argument, len(c.args))
	for i, arg := range c.args {
		cmp.Arguments[i] = nodes.Argument{Value: arg.Value, Quote: arg.Quote, Pos: arg.Pos}
	}
	return b.factory.CreateComparison(cmp)
}
