// Package errors provides the error types reported while defining operators
// and parsing RSQL queries.
//
// Every failure is a *Error carrying an ErrorType, a message and, for query
// errors, the token.Position of the offending input.
//
// # Error Types
//
// ErrorTypeConstruction: invalid operator symbols or arity, raised when an
// operator set is configured, before any parsing.
//
// ErrorTypeLexical: unterminated quotes, illegal characters, malformed
// operator-like input.
//
// ErrorTypeSyntax: unexpected tokens, unmatched parentheses, premature end
// of input.
//
// ErrorTypeSemantic: unknown operator symbols and invalid node shapes.
//
// ErrorTypeArity: argument count outside an operator's arity. Arity errors
// also match ErrSemantic.
//
// # Matching
//
//	node, err := p.Parse(query)
//	if errors.Is(err, rsqlerrors.ErrSyntax) {
//	    ...
//	}
//
// # Error Format
//
//	[syntax] expected ')' but found end of input
//	  --> 1:11
//	  |
//	  1 | (a==1;b==2
//	    |           ^
//
// Unknown operators get a Levenshtein based suggestion:
//
//	[semantic] unknown operator '=gtt='
//	  --> 1:5
//	  = suggestion: Did you mean '=gt='?
package errors
