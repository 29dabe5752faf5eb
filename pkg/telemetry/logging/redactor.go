package logging

import (
	"log/slog"
	"strings"

	"mercator-hq/rsql/pkg/rsql/lexer"
	"mercator-hq/rsql/pkg/rsql/token"
)

// Mask replaces redacted values.
const Mask = "***"

// Redactor masks sensitive values in log fields. RSQL queries keep their
// selectors and operators but lose their argument literals:
//
//	name=="John Smith";age=gt=30  ->  name==***;age=gt=***
type Redactor struct {
	queryKeys     []string
	sensitiveKeys []string
}

// NewRedactor creates a Redactor for the default query and secret keys.
func NewRedactor() *Redactor {
	return &Redactor{
		queryKeys: []string{"query", "filter"},
		sensitiveKeys: []string{
			"password", "passwd", "pwd",
			"secret", "token", "api_key", "apikey",
			"auth", "authorization", "dsn",
		},
	}
}

// ReplaceAttr implements slog.HandlerOptions.ReplaceAttr.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindString {
		if r.isSensitiveKey(a.Key) {
			return slog.String(a.Key, Mask)
		}
		return a
	}

	switch {
	case r.isQueryKey(a.Key):
		return slog.String(a.Key, RedactQuery(a.Value.String()))
	case r.isSensitiveKey(a.Key):
		return slog.String(a.Key, Mask)
	}
	return a
}

// RedactArgs redacts variadic log arguments in key, value form.
func (r *Redactor) RedactArgs(args ...any) []any {
	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 1; i < len(redacted); i += 2 {
		key, ok := redacted[i-1].(string)
		if !ok {
			continue
		}
		if s, ok := redacted[i].(string); ok && r.isQueryKey(key) {
			redacted[i] = RedactQuery(s)
		} else if r.isSensitiveKey(key) {
			redacted[i] = Mask
		}
	}
	return redacted
}

func (r *Redactor) isQueryKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, k := range r.queryKeys {
		if lowerKey == k {
			return true
		}
	}
	return false
}

func (r *Redactor) isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sensitive := range r.sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}

// RedactQuery masks every argument literal of an RSQL query. Queries that
// do not lex are masked completely, their literals cannot be located.
func RedactQuery(query string) string {
	toks, err := lexer.Tokenize(query)
	if err != nil {
		return Mask
	}

	var sb strings.Builder
	sb.Grow(len(query))

	last := 0
	afterOp := false // the previous token was an operator
	inList := false  // inside an argument list
	for i, tok := range toks {
		if tok.Kind == token.EOF {
			break
		}
		start, end := tok.Pos.Offset, tokenEnd(tok)
		sb.WriteString(query[last:start])

		// A literal followed by an operator is a selector, e.g. inside the
		// sub-query of a nested operator.
		selector := toks[i+1].Kind == token.Operator

		switch {
		case tok.Kind.IsLiteral() && !selector && (afterOp || inList):
			sb.WriteString(Mask)
		case tok.Kind == token.LParen && afterOp:
			inList = true
			sb.WriteString(query[start:end])
		default:
			if tok.Kind == token.RParen {
				inList = false
			}
			sb.WriteString(query[start:end])
		}

		afterOp = tok.Kind == token.Operator
		last = end
	}
	sb.WriteString(query[last:])
	return sb.String()
}

// tokenEnd returns the byte offset just after tok in the source.
func tokenEnd(tok token.Token) int {
	if tok.Kind == token.Quoted {
		return tok.Pos.Offset + len(tok.Value) + 2
	}
	return tok.Pos.Offset + len(tok.Value)
}
