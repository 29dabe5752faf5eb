package ast

import (
	"regexp"
	"slices"
	"strings"

	rsqlerrors "mercator-hq/rsql/pkg/rsql/errors"
)

// SymbolPattern is the lexical shape every comparison operator symbol must have.
const SymbolPattern = `=[a-zA-Z]*=|[><]=?|!=`

var symbolRegexp = regexp.MustCompile(`^(?:` + SymbolPattern + `)$`)

// IsValidSymbol reports whether s can be used as a comparison operator symbol.
func IsValidSymbol(s string) bool {
	return symbolRegexp.MatchString(s)
}

// TypeKind discriminates the shapes of OperatorType.
type TypeKind int

const (
	kindInvalid TypeKind = iota
	KindValued           // one or more literal arguments, checked against an Arity
	KindNullary          // no arguments
	KindNested           // a parenthesised sub-query instead of literal arguments
)

func (k TypeKind) String() string {
	switch k {
	case KindValued:
		return "valued"
	case KindNullary:
		return "nullary"
	case KindNested:
		return "nested"
	default:
		return "invalid"
	}
}

// OperatorType describes what a comparison operator accepts on its right-hand side.
// The zero value is invalid and rejected by NewComparisonOperator.
type OperatorType struct {
	kind  TypeKind
	arity Arity
}

// Valued returns the type of an operator taking literal arguments within arity.
func Valued(arity Arity) OperatorType {
	return OperatorType{kind: KindValued, arity: arity}
}

// Nullary returns the type of an operator taking no arguments.
func Nullary() OperatorType {
	return OperatorType{kind: KindNullary}
}

// Nested returns the type of an operator whose argument is a sub-query.
func Nested() OperatorType {
	return OperatorType{kind: KindNested}
}

// Common operator types.
var (
	Unary    = Valued(ExactArity(1))
	Multiary = Valued(AtLeast(1))
)

// Kind returns the shape of the type.
func (t OperatorType) Kind() TypeKind { return t.kind }

// Arity returns the argument arity. ok is false for nullary and nested types.
func (t OperatorType) Arity() (arity Arity, ok bool) {
	if t.kind != KindValued {
		return Arity{}, false
	}
	return t.arity, true
}

// IsMultiValue reports whether the type accepts more than one argument.
func (t OperatorType) IsMultiValue() bool {
	return t.kind == KindValued && t.arity.max > 1
}

func (t OperatorType) String() string {
	if t.kind == KindValued {
		return t.kind.String() + t.arity.String()
	}
	return t.kind.String()
}

// ComparisonOperator is an immutable comparison operator such as == or =in=.
//
// The first symbol is the primary representation, any others are aliases.
// Two operators are equal when their primary symbols are equal, aliases
// and types are not part of the identity.
type ComparisonOperator struct {
	symbols []string
	typ     OperatorType
}

// NewComparisonOperator creates an operator of the given type. It fails with
// a construction error if symbols is empty, a symbol does not match
// SymbolPattern, or typ is the zero OperatorType.
func NewComparisonOperator(typ OperatorType, symbols ...string) (*ComparisonOperator, error) {
	if len(symbols) == 0 {
		return nil, rsqlerrors.Construction("symbols must not be empty")
	}
	for _, sym := range symbols {
		if !IsValidSymbol(sym) {
			return nil, rsqlerrors.Construction("symbol %q must match: %s", sym, SymbolPattern)
		}
	}
	if typ.kind == kindInvalid {
		return nil, rsqlerrors.Construction("operator %s: type must not be empty", symbols[0])
	}

	return &ComparisonOperator{
		symbols: slices.Clone(symbols),
		typ:     typ,
	}, nil
}

// MustComparisonOperator is like NewComparisonOperator but panics on error.
// It is intended for package level operator definitions.
func MustComparisonOperator(typ OperatorType, symbols ...string) *ComparisonOperator {
	op, err := NewComparisonOperator(typ, symbols...)
	if err != nil {
		panic(err)
	}
	return op
}

// Symbol returns the primary representation of the operator.
func (o *ComparisonOperator) Symbol() string {
	return o.symbols[0]
}

// Symbols returns all representations of the operator, primary first.
// The returned slice is a copy.
func (o *ComparisonOperator) Symbols() []string {
	return slices.Clone(o.symbols)
}

// Type returns the operator type.
func (o *ComparisonOperator) Type() OperatorType {
	return o.typ
}

// Arity returns the operator's arity. ok is false for nullary and nested operators.
func (o *ComparisonOperator) Arity() (arity Arity, ok bool) {
	return o.typ.Arity()
}

// IsMultiValue reports whether the operator accepts more than one argument.
func (o *ComparisonOperator) IsMultiValue() bool {
	return o.typ.IsMultiValue()
}

// Equal reports whether both operators have the same primary symbol.
func (o *ComparisonOperator) Equal(other *ComparisonOperator) bool {
	if o == nil || other == nil {
		return o == other
	}
	return o.Symbol() == other.Symbol()
}

// Key returns the identity of the operator for use as a map key.
func (o *ComparisonOperator) Key() string {
	return o.Symbol()
}

// CheckArgumentCount validates n literal arguments against the operator type.
// The returned error has no position; callers attach one.
func (o *ComparisonOperator) CheckArgumentCount(n int) *rsqlerrors.Error {
	switch o.typ.kind {
	case KindNullary:
		if n != 0 {
			return rsqlerrors.Arity(o.Symbol(), rsqlerrors.ArityRange{}, n, noPos)
		}
	case KindNested:
		if n != 0 {
			return rsqlerrors.New(rsqlerrors.ErrorTypeSemantic, noPos,
				"operator %s expects a nested query, got %d literal argument(s)", o.Symbol(), n)
		}
	default:
		if !o.typ.arity.Accepts(n) {
			return rsqlerrors.Arity(o.Symbol(), o.typ.arity.Range(), n, noPos)
		}
	}
	return nil
}

func (o *ComparisonOperator) String() string {
	return o.Symbol()
}

// Describe returns the symbols and type, e.g. "=gt= (>) valued[1..1]".
func (o *ComparisonOperator) Describe() string {
	var sb strings.Builder
	sb.WriteString(o.Symbol())
	if len(o.symbols) > 1 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(o.symbols[1:], ", "))
		sb.WriteString(")")
	}
	sb.WriteString(" ")
	sb.WriteString(o.typ.String())
	return sb.String()
}
