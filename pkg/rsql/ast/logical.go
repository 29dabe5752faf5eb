package ast

import "fmt"

// LogicalOperator joins constraints. AND binds tighter than OR.
type LogicalOperator int

const (
	And LogicalOperator = iota + 1
	Or
)

// Symbol returns the canonical symbol: ";" for AND, "," for OR.
func (o LogicalOperator) Symbol() string {
	switch o {
	case And:
		return ";"
	case Or:
		return ","
	}
	return ""
}

// Keyword returns the alternative keyword form: "and" or "or".
func (o LogicalOperator) Keyword() string {
	switch o {
	case And:
		return "and"
	case Or:
		return "or"
	}
	return ""
}

// Precedence returns the binding strength; higher binds tighter.
func (o LogicalOperator) Precedence() int {
	switch o {
	case And:
		return 2
	case Or:
		return 1
	}
	return 0
}

// IsValid reports whether o is And or Or.
func (o LogicalOperator) IsValid() bool {
	return o == And || o == Or
}

func (o LogicalOperator) String() string {
	switch o {
	case And:
		return "AND"
	case Or:
		return "OR"
	}
	return fmt.Sprintf("LogicalOperator(%d)", int(o))
}
