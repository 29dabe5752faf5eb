// Package token defines the lexical tokens of RSQL and their source positions.
package token

import "fmt"

// Kind is the category of a lexical token.
type Kind int

const (
	EOF        Kind = iota
	Unreserved      // selector or unquoted argument
	Quoted          // single or double quoted argument, escapes still present
	Operator        // comparison operator symbol, e.g. =gt= or >=
	LParen          // (
	RParen          // )
	And             // ; or the keyword "and"
	Comma           // , (OR between constraints, separator inside argument lists)
	Or              // the keyword "or"
)

var kindNames = [...]string{
	EOF:        "end of input",
	Unreserved: "unreserved string",
	Quoted:     "quoted string",
	Operator:   "comparison operator",
	LParen:     "'('",
	RParen:     "')'",
	And:        "';'",
	Comma:      "','",
	Or:         "'or'",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsLiteral reports whether tokens of this kind can be used as an argument value.
func (k Kind) IsLiteral() bool {
	return k == Unreserved || k == Quoted
}

// Position is a location in the query text.
type Position struct {
	Offset int `json:"offset"` // byte offset, 0-based
	Line   int `json:"line"`   // line number, 1-based
	Column int `json:"column"` // column in runes, 1-based
}

// IsValid reports whether the position has line information.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// String returns "line:column", or "-" for an unknown position.
func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a single lexical token.
type Token struct {
	Kind  Kind
	Value string // raw text; for Quoted tokens the content between the quotes
	Quote byte   // quote character for Quoted tokens, 0 otherwise
	Pos   Position
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return t.Kind.String()
	case Quoted:
		return fmt.Sprintf("%c%s%c", t.Quote, t.Value, t.Quote)
	default:
		return fmt.Sprintf("%q", t.Value)
	}
}

// IsReserved reports whether r cannot appear in an unquoted string.
func IsReserved(r rune) bool {
	switch r {
	case '"', '\'', '(', ')', ';', ',', '=', '<', '>', '!', '~':
		return true
	}
	return false
}
