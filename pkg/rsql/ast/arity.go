package ast

import (
	"fmt"

	rsqlerrors "mercator-hq/rsql/pkg/rsql/errors"
)

// Unbounded is the Max of an arity without an upper limit.
const Unbounded = rsqlerrors.Unbounded

// Arity is the number of arguments a comparison operator accepts.
// The zero value accepts exactly zero arguments.
type Arity struct {
	min int
	max int
}

// NewArity returns an arity accepting between min and max arguments inclusive.
func NewArity(min, max int) (Arity, error) {
	if min < 0 {
		return Arity{}, rsqlerrors.Construction("arity min must not be negative, got %d", min)
	}
	if max < min {
		return Arity{}, rsqlerrors.Construction("arity max (%d) must not be less than min (%d)", max, min)
	}
	return Arity{min: min, max: max}, nil
}

// ExactArity returns an arity accepting exactly n arguments. It panics if n is negative.
func ExactArity(n int) Arity {
	return mustArity(n, n)
}

// AtLeast returns an arity accepting n or more arguments. It panics if n is negative.
func AtLeast(n int) Arity {
	return mustArity(n, Unbounded)
}

func mustArity(min, max int) Arity {
	a, err := NewArity(min, max)
	if err != nil {
		panic(err)
	}
	return a
}

// Min returns the minimum number of arguments.
func (a Arity) Min() int { return a.min }

// Max returns the maximum number of arguments, or Unbounded.
func (a Arity) Max() int { return a.max }

// IsUnbounded reports whether the arity has no upper limit.
func (a Arity) IsUnbounded() bool { return a.max == Unbounded }

// Accepts reports whether n arguments satisfy the arity.
func (a Arity) Accepts(n int) bool {
	return n >= a.min && n <= a.max
}

// Range converts the arity to the form reported by arity errors.
func (a Arity) Range() rsqlerrors.ArityRange {
	return rsqlerrors.ArityRange{Min: a.min, Max: a.max}
}

func (a Arity) String() string {
	if a.IsUnbounded() {
		return fmt.Sprintf("[%d..*]", a.min)
	}
	return fmt.Sprintf("[%d..%d]", a.min, a.max)
}
