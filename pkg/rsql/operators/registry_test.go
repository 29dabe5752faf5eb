package operators

import (
	"errors"
	"slices"
	"testing"

	"mercator-hq/rsql/pkg/rsql/ast"
	rsqlerrors "mercator-hq/rsql/pkg/rsql/errors"
)

func TestDefault(t *testing.T) {
	reg := Default()

	if reg.Len() != 10 {
		t.Errorf("Len() = %d, want 10", reg.Len())
	}

	tests := []struct {
		symbol string
		want   *ast.ComparisonOperator
	}{
		{"==", Equal},
		{"!=", NotEqual},
		{"=gt=", GreaterThan},
		{">", GreaterThan},
		{"=ge=", GreaterThanOrEqual},
		{">=", GreaterThanOrEqual},
		{"=lt=", LessThan},
		{"<", LessThan},
		{"=le=", LessThanOrEqual},
		{"<=", LessThanOrEqual},
		{"=in=", In},
		{"=out=", NotIn},
		{"=null=", IsNull},
		{"=notnull=", NotNull},
	}
	for _, tt := range tests {
		got, ok := reg.Lookup(tt.symbol)
		if !ok {
			t.Errorf("Lookup(%q) not found", tt.symbol)
			continue
		}
		if got != tt.want {
			t.Errorf("Lookup(%q) = %s, want %s", tt.symbol, got, tt.want)
		}
	}

	if reg.Has("=like=") {
		t.Error("Has(=like=) = true for the default registry")
	}
}

func TestDefaults_Arity(t *testing.T) {
	for _, op := range []*ast.ComparisonOperator{Equal, NotEqual, GreaterThan, GreaterThanOrEqual, LessThan, LessThanOrEqual} {
		if a, ok := op.Arity(); !ok || a.Min() != 1 || a.Max() != 1 {
			t.Errorf("%s arity = %v, want [1..1]", op, a)
		}
	}
	for _, op := range []*ast.ComparisonOperator{In, NotIn} {
		if !op.IsMultiValue() {
			t.Errorf("%s.IsMultiValue() = false, want true", op)
		}
	}
	for _, op := range []*ast.ComparisonOperator{IsNull, NotNull} {
		if op.Type().Kind() != ast.KindNullary {
			t.Errorf("%s kind = %s, want nullary", op, op.Type().Kind())
		}
	}
}

func TestDefaults_ReturnsFreshSlice(t *testing.T) {
	ops := Defaults()
	ops[0] = nil
	if Defaults()[0] != Equal {
		t.Error("Defaults() shares its backing array")
	}
}

func TestRegistry_With(t *testing.T) {
	between := ast.MustComparisonOperator(ast.Valued(ast.ExactArity(2)), "=between=", "=bt=")

	reg, err := Default().With(between)
	if err != nil {
		t.Fatalf("With() failed: %v", err)
	}

	if reg.Len() != 11 {
		t.Errorf("Len() = %d, want 11", reg.Len())
	}
	if got, _ := reg.Lookup("=bt="); got != between {
		t.Errorf("Lookup(=bt=) = %v, want %v", got, between)
	}
	if Default().Has("=between=") {
		t.Error("With() modified the receiver")
	}
}

func TestRegistry_LaterOperatorWins(t *testing.T) {
	// Replaces the > alias only, GreaterThan keeps =gt=.
	strict := ast.MustComparisonOperator(ast.Multiary, ">")

	reg, err := Default().With(strict)
	if err != nil {
		t.Fatalf("With() failed: %v", err)
	}

	if got, _ := reg.Lookup(">"); got != strict {
		t.Errorf("Lookup(>) = %v, want the later operator", got)
	}
	if got, _ := reg.Lookup("=gt="); got != GreaterThan {
		t.Errorf("Lookup(=gt=) = %v, want GreaterThan", got)
	}
	if reg.Len() != 11 {
		t.Errorf("Len() = %d, want 11", reg.Len())
	}

	// Replaces every symbol of NotIn, which drops it from Operators.
	out := ast.MustComparisonOperator(ast.Valued(ast.AtLeast(2)), "=out=")
	reg, err = Default().With(out)
	if err != nil {
		t.Fatalf("With() failed: %v", err)
	}
	if slices.Contains(reg.Operators(), NotIn) {
		t.Error("Operators() still contains the replaced operator")
	}
	if reg.Len() != 10 {
		t.Errorf("Len() = %d, want 10", reg.Len())
	}
}

func TestNewRegistry_NilOperator(t *testing.T) {
	_, err := NewRegistry(Equal, nil)
	if !errors.Is(err, rsqlerrors.ErrConstruction) {
		t.Errorf("NewRegistry(nil) error = %v, want construction error", err)
	}
}

func TestRegistry_Symbols(t *testing.T) {
	reg, err := NewRegistry(GreaterThan, Equal)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"==", "=gt=", ">"}
	if got := reg.Symbols(); !slices.Equal(got, want) {
		t.Errorf("Symbols() = %v, want %v", got, want)
	}

	ops := reg.Operators()
	if len(ops) != 2 || ops[0] != GreaterThan || ops[1] != Equal {
		t.Errorf("Operators() = %v, want registration order", ops)
	}
}
