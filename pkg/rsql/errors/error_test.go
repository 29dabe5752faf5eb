package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"mercator-hq/rsql/pkg/rsql/token"
)

func TestError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		target error
		want   bool
	}{
		{"same type", New(ErrorTypeSyntax, token.Position{}, "x"), ErrSyntax, true},
		{"other type", New(ErrorTypeSyntax, token.Position{}, "x"), ErrLexical, false},
		{"arity is arity", Arity("==", ArityRange{1, 1}, 2, token.Position{}), ErrArity, true},
		{"arity is semantic", Arity("==", ArityRange{1, 1}, 2, token.Position{}), ErrSemantic, true},
		{"semantic is not arity", New(ErrorTypeSemantic, token.Position{}, "x"), ErrArity, false},
		{"construction", Construction("bad"), ErrConstruction, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stderrors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err.Type, tt.target, got, tt.want)
			}
		})
	}
}

func TestError_IsWrapped(t *testing.T) {
	err := fmt.Errorf("parse filter: %w", New(ErrorTypeLexical, token.Position{Line: 1, Column: 3}, "illegal character"))
	if !stderrors.Is(err, ErrLexical) {
		t.Error("wrapped error does not match ErrLexical")
	}

	var rerr *Error
	if !stderrors.As(err, &rerr) {
		t.Fatal("errors.As failed")
	}
	if rerr.Position.Column != 3 {
		t.Errorf("Column = %d, want 3", rerr.Position.Column)
	}
}

func TestError_Error(t *testing.T) {
	err := New(ErrorTypeSemantic, token.Position{Offset: 4, Line: 1, Column: 5}, "unknown operator '=gte='").
		WithQuery("age=gte=18").
		WithSuggestion("Did you mean '=gt='?")

	msg := err.Error()
	for _, want := range []string{
		"[semantic] unknown operator '=gte='",
		"--> 1:5",
		"1 | age=gte=18",
		"    ^",
		"= suggestion: Did you mean '=gt='?",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() missing %q in:\n%s", want, msg)
		}
	}
}

func TestError_ErrorWithoutPosition(t *testing.T) {
	err := Construction("symbols must not be empty")
	if got, want := err.Error(), "[construction] symbols must not be empty"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got, want := err.Short(), "symbols must not be empty"; got != want {
		t.Errorf("Short() = %q, want %q", got, want)
	}
}

func TestArity(t *testing.T) {
	err := Arity("=between=", ArityRange{Min: 2, Max: 2}, 3, token.Position{Line: 1, Column: 4})

	if err.Type != ErrorTypeArity {
		t.Errorf("Type = %q, want %q", err.Type, ErrorTypeArity)
	}
	if err.Operator != "=between=" {
		t.Errorf("Operator = %q, want %q", err.Operator, "=between=")
	}
	if err.Expected == nil || *err.Expected != (ArityRange{Min: 2, Max: 2}) {
		t.Errorf("Expected = %v, want 2", err.Expected)
	}
	if err.Actual != 3 {
		t.Errorf("Actual = %d, want 3", err.Actual)
	}
	if want := "operator =between= expects 2 argument(s), got 3"; err.Message != want {
		t.Errorf("Message = %q, want %q", err.Message, want)
	}
}

func TestArityRange_String(t *testing.T) {
	tests := []struct {
		r    ArityRange
		want string
	}{
		{ArityRange{0, 0}, "0"},
		{ArityRange{1, 1}, "1"},
		{ArityRange{1, 3}, "1 to 3"},
		{ArityRange{1, Unbounded}, "at least 1"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("ArityRange%v.String() = %q, want %q", tt.r, got, tt.want)
		}
	}
}

func TestErrorList(t *testing.T) {
	el := NewErrorList()
	if el.ToError() != nil {
		t.Error("empty list ToError() != nil")
	}

	el.Add(New(ErrorTypeSyntax, token.Position{Line: 1, Column: 1}, "empty query"))
	el.Add(Arity("==", ArityRange{1, 1}, 0, token.Position{Line: 1, Column: 2}))

	if el.Count() != 2 {
		t.Errorf("Count() = %d, want 2", el.Count())
	}
	if got := len(el.ByType(ErrorTypeArity)); got != 1 {
		t.Errorf("len(ByType(arity)) = %d, want 1", got)
	}
	if !strings.HasPrefix(el.Error(), "Found 2 error(s)") {
		t.Errorf("Error() = %q, want prefix %q", el.Error(), "Found 2 error(s)")
	}
}

func TestExcerpt(t *testing.T) {
	query := "a==1;\nb=foo=2"
	got := Excerpt(query, token.Position{Offset: 7, Line: 2, Column: 2})
	want := "  1 | a==1;\n  2 | b=foo=2\n    |  ^\n"
	if got != want {
		t.Errorf("Excerpt() =\n%s\nwant\n%s", got, want)
	}

	if got := Excerpt("", token.Position{Line: 1, Column: 1}); got != "" {
		t.Errorf("Excerpt(empty) = %q, want empty", got)
	}
	if got := Excerpt("a==1", token.Position{}); got != "" {
		t.Errorf("Excerpt(no position) = %q, want empty", got)
	}
}

func TestSuggestOperator(t *testing.T) {
	known := []string{"==", "=ge=", "=gt=", "=in=", "=out="}

	tests := []struct {
		unknown string
		want    string
	}{
		{"=gte=", "Did you mean '=ge='?"},
		{"=ou=", "Did you mean '=out='?"},
		{"=between=", "Valid operators: ==, =ge=, =gt=, =in=, =out="},
	}
	for _, tt := range tests {
		if got := SuggestOperator(tt.unknown, known); got != tt.want {
			t.Errorf("SuggestOperator(%q) = %q, want %q", tt.unknown, got, tt.want)
		}
	}

	if got := SuggestOperator("=x=", nil); got != "" {
		t.Errorf("SuggestOperator with no operators = %q, want empty", got)
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"=gt=", "=ge=", 1},
	}
	for _, tt := range tests {
		if got := levenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
