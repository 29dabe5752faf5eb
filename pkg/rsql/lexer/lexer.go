// Package lexer converts RSQL text into tokens.
//
// The lexer knows the fixed lexical shape of operator symbols but not which
// operators are registered; unknown symbols are reported later, by the node
// factory. A comma is always emitted as token.Comma, the parser decides
// whether it separates arguments or joins constraints with OR.
package lexer

import (
	"unicode"
	"unicode/utf8"

	rsqlerrors "mercator-hq/rsql/pkg/rsql/errors"
	"mercator-hq/rsql/pkg/rsql/token"
)

const (
	eof        = -1
	badEncoded = -2 // invalid UTF-8 sequence
)

// Lexer holds the scanning state for a single query. It is not safe for
// concurrent use; create one per query.
type Lexer struct {
	src string

	ch       rune // current character
	offset   int  // byte offset of ch
	rdOffset int  // byte offset after ch
	line     int
	col      int
}

// New returns a lexer positioned at the start of src.
func New(src string) *Lexer {
	l := &Lexer{src: src, line: 1}
	l.next()
	return l
}

// Tokenize scans src completely. The last token is always token.EOF.
func Tokenize(src string) ([]token.Token, error) {
	l := New(src)
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks, nil
		}
	}
}

// next reads the next character into l.ch and advances the position.
func (l *Lexer) next() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.rdOffset >= len(l.src) {
		l.offset = len(l.src)
		if l.ch != eof {
			l.col++
		}
		l.ch = eof
		return
	}

	l.offset = l.rdOffset
	l.col++
	r, w := rune(l.src[l.rdOffset]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRuneInString(l.src[l.rdOffset:])
		if r == utf8.RuneError && w == 1 {
			r = badEncoded
		}
	}
	l.rdOffset += w
	l.ch = r
}

func (l *Lexer) pos() token.Position {
	return token.Position{Offset: l.offset, Line: l.line, Column: l.col}
}

func (l *Lexer) errorf(pos token.Position, format string, args ...any) *rsqlerrors.Error {
	return rsqlerrors.New(rsqlerrors.ErrorTypeLexical, pos, format, args...).WithQuery(l.src)
}

// skipWhitespace skips whitespace and reports whether any was skipped.
func (l *Lexer) skipWhitespace() bool {
	skipped := false
	for l.ch >= 0 && unicode.IsSpace(l.ch) {
		l.next()
		skipped = true
	}
	return skipped
}

// Next returns the next token. After token.EOF it keeps returning token.EOF.
func (l *Lexer) Next() (token.Token, error) {
	spaceBefore := l.skipWhitespace()
	pos := l.pos()

	switch ch := l.ch; ch {
	case eof:
		return token.Token{Kind: token.EOF, Pos: pos}, nil
	case '(':
		l.next()
		return token.Token{Kind: token.LParen, Value: "(", Pos: pos}, nil
	case ')':
		l.next()
		return token.Token{Kind: token.RParen, Value: ")", Pos: pos}, nil
	case ';':
		l.next()
		return token.Token{Kind: token.And, Value: ";", Pos: pos}, nil
	case ',':
		l.next()
		return token.Token{Kind: token.Comma, Value: ",", Pos: pos}, nil
	case '\'', '"':
		return l.scanQuoted(pos)
	case '=':
		return l.scanFIQLOperator(pos)
	case '<', '>':
		l.next()
		if l.ch == '=' {
			l.next()
		}
		return token.Token{Kind: token.Operator, Value: l.src[pos.Offset:l.offset], Pos: pos}, nil
	case '!':
		l.next()
		if l.ch != '=' {
			return token.Token{}, l.errorf(pos, "unexpected '!', did you mean '!='?")
		}
		l.next()
		return token.Token{Kind: token.Operator, Value: "!=", Pos: pos}, nil
	}

	if !isUnreserved(l.ch) {
		return token.Token{}, l.illegal(pos)
	}

	value := l.scanUnreserved()
	if !isUnreserved(l.ch) && !isBoundary(l.ch) {
		return token.Token{}, l.illegal(l.pos())
	}

	if spaceBefore && l.ch >= 0 && unicode.IsSpace(l.ch) {
		switch value {
		case "and":
			return token.Token{Kind: token.And, Value: value, Pos: pos}, nil
		case "or":
			return token.Token{Kind: token.Or, Value: value, Pos: pos}, nil
		}
	}
	return token.Token{Kind: token.Unreserved, Value: value, Pos: pos}, nil
}

// scanFIQLOperator scans =[a-zA-Z]*= starting at the first '='.
func (l *Lexer) scanFIQLOperator(pos token.Position) (token.Token, error) {
	l.next() // opening '='
	for isASCIILetter(l.ch) {
		l.next()
	}
	if l.ch != '=' {
		return token.Token{}, l.errorf(pos, "malformed operator %q, expected a closing '='",
			l.src[pos.Offset:l.offset])
	}
	l.next()
	return token.Token{Kind: token.Operator, Value: l.src[pos.Offset:l.offset], Pos: pos}, nil
}

// scanQuoted scans a quoted string. The token value is the raw content
// between the quotes with escape sequences left in place.
func (l *Lexer) scanQuoted(pos token.Position) (token.Token, error) {
	quote := byte(l.ch)
	l.next() // opening quote
	start := l.offset

	for {
		switch l.ch {
		case eof:
			return token.Token{}, l.errorf(pos, "unterminated quoted string")
		case badEncoded:
			return token.Token{}, l.illegal(l.pos())
		case '\\':
			l.next()
			if l.ch == eof {
				return token.Token{}, l.errorf(pos, "unterminated quoted string")
			}
		case rune(quote):
			value := l.src[start:l.offset]
			l.next() // closing quote
			return token.Token{Kind: token.Quoted, Value: value, Quote: quote, Pos: pos}, nil
		}
		l.next()
	}
}

func (l *Lexer) scanUnreserved() string {
	start := l.offset
	for isUnreserved(l.ch) {
		l.next()
	}
	return l.src[start:l.offset]
}

func (l *Lexer) illegal(pos token.Position) *rsqlerrors.Error {
	switch l.ch {
	case 0:
		return l.errorf(pos, "illegal character NUL")
	case badEncoded:
		return l.errorf(pos, "illegal UTF-8 encoding")
	default:
		return l.errorf(pos, "illegal character %q", l.ch)
	}
}

func isUnreserved(ch rune) bool {
	return ch > 0 && !token.IsReserved(ch) && !unicode.IsSpace(ch) && ch != '~'
}

// isBoundary reports whether ch may follow an unreserved string.
func isBoundary(ch rune) bool {
	return ch == eof || (ch > 0 && ch != '~' && (token.IsReserved(ch) || unicode.IsSpace(ch)))
}

func isASCIILetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z'
}
