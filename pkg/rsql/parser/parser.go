package parser

import (
	"mercator-hq/rsql/pkg/rsql/ast"
	rsqlerrors "mercator-hq/rsql/pkg/rsql/errors"
	"mercator-hq/rsql/pkg/rsql/lexer"
	"mercator-hq/rsql/pkg/rsql/nodes"
	"mercator-hq/rsql/pkg/rsql/operators"
	"mercator-hq/rsql/pkg/rsql/token"
)

const (
	// DefaultMaxLength is the default maximum query length in bytes.
	DefaultMaxLength = 64 * 1024

	// DefaultMaxDepth is the default maximum parenthesis nesting depth.
	DefaultMaxDepth = 64
)

// Parser parses RSQL queries into ASTs.
//
// A Parser is immutable: the With methods return modified copies, so a
// configured parser can be shared by any number of goroutines.
type Parser struct {
	factory   *nodes.Factory
	maxLength int // Maximum query length in bytes, 0 for no limit
	maxDepth  int // Maximum parenthesis nesting, 0 for no limit
}

// NewParser creates a parser with the default operators and limits.
func NewParser() *Parser {
	return New(nil)
}

// New creates a parser resolving operators against registry, or the default
// operators if registry is nil.
func New(registry *operators.Registry) *Parser {
	return &Parser{
		factory:   nodes.NewFactory(registry),
		maxLength: DefaultMaxLength,
		maxDepth:  DefaultMaxDepth,
	}
}

// WithRegistry returns a copy of the parser using registry.
func (p *Parser) WithRegistry(registry *operators.Registry) *Parser {
	c := *p
	c.factory = nodes.NewFactory(registry)
	return &c
}

// WithMaxLength returns a copy of the parser with a query length limit.
func (p *Parser) WithMaxLength(n int) *Parser {
	c := *p
	c.maxLength = n
	return &c
}

// WithMaxDepth returns a copy of the parser with a nesting depth limit.
func (p *Parser) WithMaxDepth(n int) *Parser {
	c := *p
	c.maxDepth = n
	return &c
}

// Registry returns the operators the parser resolves symbols against.
func (p *Parser) Registry() *operators.Registry {
	return p.factory.Registry()
}

// Parse parses query and returns the root of its AST. On failure it returns
// a *errors.Error and no tree.
func (p *Parser) Parse(query string) (ast.Node, error) {
	if p.maxLength > 0 && len(query) > p.maxLength {
		return nil, rsqlerrors.New(rsqlerrors.ErrorTypeSyntax, token.Position{Line: 1, Column: 1},
			"query length %d exceeds maximum %d bytes", len(query), p.maxLength)
	}

	raw, err := p.parseRaw(query)
	if err != nil {
		return nil, err
	}

	b := &builder{factory: p.factory}
	node, err := b.build(raw)
	if err != nil {
		if rerr, ok := err.(*rsqlerrors.Error); ok {
			return nil, rerr.WithQuery(query)
		}
		return nil, err
	}
	return node, nil
}

// parseRaw runs the grammar and returns the provisional tree.
func (p *Parser) parseRaw(query string) (raw rawNode, err error) {
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(*rsqlerrors.Error)
			if !ok {
				panic(r)
			}
			err = perr.WithQuery(query)
		}
	}()

	s := &state{parser: p, lex: lexer.New(query)}
	s.next()

	if s.tok.Kind == token.EOF {
		panic(rsqlerrors.New(rsqlerrors.ErrorTypeSyntax, token.Position{Offset: 0, Line: 1, Column: 1}, "empty query"))
	}

	raw = s.parseOr()

	switch s.tok.Kind {
	case token.EOF:
	case token.RParen:
		s.errorf("unmatched ')'")
	default:
		s.errorf("unexpected %s, expected ';', ',' or end of input", s.tok)
	}
	return raw, nil
}

// state holds the parser's internal state for a single query.
// Errors are raised with panic and recovered in parseRaw.
type state struct {
	parser *Parser
	lex    *lexer.Lexer
	tok    token.Token // one token look-ahead
	depth  int
}

func (s *state) next() {
	tok, err := s.lex.Next()
	if err != nil {
		panic(err)
	}
	s.tok = tok
}

func (s *state) errorf(format string, args ...any) {
	panic(rsqlerrors.New(rsqlerrors.ErrorTypeSyntax, s.tok.Pos, format, args...))
}

// expect consumes a token of kind k or fails with what.
func (s *state) expect(k token.Kind, what string) {
	if s.tok.Kind != k {
		s.errorf("expected %s, found %s", what, s.tok)
	}
	s.next()
}

func (s *state) enter() {
	s.depth++
	if limit := s.parser.maxDepth; limit > 0 && s.depth > limit {
		s.errorf("nesting depth exceeds maximum %d", limit)
	}
}

func (s *state) leave() {
	s.depth--
}

// orExpr := andExpr (OR andExpr)*
func (s *state) parseOr() rawNode {
	first := s.parseAnd()
	if !s.isOr() {
		return first
	}

	children := []rawNode{first}
	for s.isOr() {
		s.next()
		children = append(children, s.parseAnd())
	}
	return &rawLogical{op: ast.Or, children: children}
}

func (s *state) isOr() bool {
	return s.tok.Kind == token.Comma || s.tok.Kind == token.Or
}

// andExpr := constraint (AND constraint)*
func (s *state) parseAnd() rawNode {
	first := s.parseConstraint()
	if s.tok.Kind != token.And {
		return first
	}

	children := []rawNode{first}
	for s.tok.Kind == token.And {
		s.next()
		children = append(children, s.parseConstraint())
	}
	return &rawLogical{op: ast.And, children: children}
}

// constraint := comparison | '(' orExpr ')'
func (s *state) parseConstraint() rawNode {
	switch s.tok.Kind {
	case token.LParen:
		open := s.tok
		s.enter()
		s.next()
		group := s.parseOr()
		if s.tok.Kind != token.RParen {
			s.errorf("expected ')' to close '(' at %s, found %s", open.Pos, s.tok)
		}
		s.next()
		s.leave()
		return group
	case token.Unreserved:
		return s.parseComparison()
	case token.Quoted:
		s.errorf("selector must not be quoted, found %s", s.tok)
	case token.EOF:
		s.errorf("unexpected end of input, expected selector or '('")
	default:
		s.errorf("expected selector or '(', found %s", s.tok)
	}
	return nil
}

// comparison := selector operatorSymbol argument?
func (s *state) parseComparison() rawNode {
	c := &rawComparison{selector: s.tok}
	s.next()

	if s.tok.Kind != token.Operator {
		s.errorf("expected comparison operator after selector %q, found %s", c.selector.Value, s.tok)
	}
	c.operator = s.tok

	// The operator decides how its argument parses, so an unknown symbol
	// fails here rather than as a syntax error inside the argument.
	op, rerr := s.parser.factory.Resolve(c.operator.Value, c.operator.Pos)
	if rerr != nil {
		panic(rerr)
	}
	s.next()

	if op.Type().Kind() == ast.KindNested {
		if s.tok.Kind != token.LParen {
			s.errorf("operator %s expects a nested query in parentheses, found %s", op.Symbol(), s.tok)
		}
		s.enter()
		s.next()
		c.nested = s.parseOr()
		s.expect(token.RParen, "')' to close nested query")
		s.leave()
		return c
	}

	c.args = s.parseArguments()
	return c
}

// argument := singleArg | '(' singleArg (',' singleArg)* ')'
//
// The argument is optional in the grammar, arity is checked by the factory.
func (s *state) parseArguments() []token.Token {
	switch {
	case s.tok.Kind.IsLiteral():
		arg := s.tok
		s.next()
		return []token.Token{arg}
	case s.tok.Kind != token.LParen:
		return nil
	}

	s.next() // '('
	var args []token.Token
	for {
		if !s.tok.Kind.IsLiteral() {
			s.errorf("expected argument, found %s", s.tok)
		}
		args = append(args, s.tok)
		s.next()

		switch s.tok.Kind {
		case token.Comma:
			s.next()
		case token.RParen:
			s.next()
			return args
		default:
			s.errorf("expected ',' or ')' in argument list, found %s", s.tok)
		}
	}
}
