// Package parser implements the RSQL grammar.
//
// # Grammar
//
//	query      := orExpr EOF
//	orExpr     := andExpr (OR andExpr)*
//	andExpr    := constraint (AND constraint)*
//	constraint := comparison | '(' orExpr ')'
//	comparison := selector operatorSymbol argument?
//	argument   := singleArg | '(' singleArg (',' singleArg)* ')'
//
// AND is ';' or the keyword "and", OR is ',' or the keyword "or". AND binds
// tighter than OR and parentheses override precedence, so
//
//	a==1,b==2;c==3     parses as  OR(a==1, AND(b==2, c==3))
//	(a==1,b==2);c==3   parses as  AND(OR(a==1, b==2), c==3)
//
// Single arguments may be unquoted or quoted with ' or ", with backslash
// escapes inside quotes. Multi-valued operators take a parenthesised list:
//
//	genre=in=(sci-fi,"action & adventure")
//
// # Pipeline
//
// Parse lexes the query, runs the grammar into a provisional tree, then
// builds the AST through a nodes.Factory. The grammar never validates arity,
// so custom operators only need to be registered:
//
//	reg, _ := operators.Default().With(
//	    ast.MustComparisonOperator(ast.Valued(ast.ExactArity(2)), "=between="),
//	)
//	p := parser.New(reg)
//	node, err := p.Parse("age=between=(18,30)")
//
// Operators registered with ast.Nested() take a parenthesised sub-query
// instead of arguments:
//
//	tags=any=(name==go;weight=gt=3)
//
// Any failure returns a *errors.Error describing the first problem found;
// no partial tree is ever returned.
package parser
