package predicate

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mercator-hq/rsql/pkg/rsql"
	"mercator-hq/rsql/pkg/rsql/ast"
	rsqlerrors "mercator-hq/rsql/pkg/rsql/errors"
	"mercator-hq/rsql/pkg/rsql/operators"
	"mercator-hq/rsql/pkg/rsql/parser"
)

const moviesJSON = `[
	{"id": 1, "title": "Alien", "year": 1979, "genre": ["sci-fi", "horror"], "director": {"name": "Ridley Scott"}, "released": "1979-05-25"},
	{"id": 2, "title": "Kill Bill", "year": 2003, "genre": ["action"], "director": {"name": "Quentin Tarantino"}, "released": "2003-10-10"},
	{"id": 3, "title": "Unknown", "year": 2020, "genre": [], "director": null, "released": "2020-01-01", "draft": true},
	{"id": 4, "title": "Kill Bill: Vol. 2", "year": 2004.5, "genre": ["action", "drama"], "director": {"name": "Quentin Tarantino"}}
]`

func movies(t *testing.T) []Record {
	t.Helper()
	var records []Record
	if err := json.Unmarshal([]byte(moviesJSON), &records); err != nil {
		t.Fatalf("decode fixtures: %v", err)
	}
	return records
}

func ids(records []Record) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		out = append(out, r["id"].(float64))
	}
	return out
}

func TestCompile(t *testing.T) {
	tests := []struct {
		query string
		want  []float64
	}{
		{"title==Alien", []float64{1}},
		{"title!=Alien", []float64{2, 3, 4}},
		{"title==Kill*", []float64{2, 4}},
		{"title==*Vol*", []float64{4}},
		{"year=gt=2003", []float64{3, 4}},
		{"year>=2003;year<2020", []float64{2, 4}},
		{"year==2003", []float64{2}},
		{"year=le=1979.0", []float64{1}},
		{"released=lt=2000-01-01", []float64{1}},
		{"genre==action", []float64{2, 4}},
		{"genre=in=(horror,drama)", []float64{1, 4}},
		{"genre=out=(action)", []float64{1, 3}},
		{"director=null=", []float64{3}},
		{"director=notnull=", []float64{1, 2, 4}},
		{"released=null=", []float64{4}},
		{`director.name=="Quentin Tarantino"`, []float64{2, 4}},
		{"draft==true", []float64{3}},
		{"draft!=true", []float64{1, 2, 4}},
		{"title==Alien,year=gt=2003;genre==drama", []float64{1, 4}},
		{"(title==Alien,year=gt=2003);director=notnull=", []float64{1, 4}},
		{"missing==x", []float64{}},
		{"year=gt=abc", []float64{}},
	}
	records := movies(t)
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p, err := Compile(rsql.MustParse(tt.query))
			if err != nil {
				t.Fatalf("Compile(%q) failed: %v", tt.query, err)
			}
			if diff := cmp.Diff(tt.want, ids(Filter(records, p))); diff != "" {
				t.Errorf("Filter(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestCompile_Nil(t *testing.T) {
	p, err := Compile(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !p(Record{}) {
		t.Error("nil tree does not match")
	}
}

func TestCompile_Nested(t *testing.T) {
	anyOf := ast.MustComparisonOperator(ast.Nested(), "=any=")
	reg, err := operators.Default().With(anyOf)
	if err != nil {
		t.Fatal(err)
	}
	node, err := parser.New(reg).Parse("cast=any=(name==Uma*;age=lt=35)")
	if err != nil {
		t.Fatal(err)
	}

	p, err := Compile(node)
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}

	records := []Record{
		{"cast": []any{Record{"name": "Uma Thurman", "age": 33.0}, Record{"name": "Lucy Liu", "age": 34.0}}},
		{"cast": []any{Record{"name": "Uma Thurman", "age": 40.0}, Record{"name": "Lucy Liu", "age": 30.0}}},
		{"cast": Record{"name": "Uma Thurman", "age": 20.0}},
		{"cast": "Uma Thurman"},
		{},
	}
	want := []bool{true, false, true, false, false}
	for i, r := range records {
		if got := p(r); got != want[i] {
			t.Errorf("record %d: match = %v, want %v", i, got, want[i])
		}
	}
}

func TestCompile_CustomOperator(t *testing.T) {
	between := ast.MustComparisonOperator(ast.Valued(ast.ExactArity(2)), "=between=")
	reg, err := operators.Default().With(between)
	if err != nil {
		t.Fatal(err)
	}
	node, err := parser.New(reg).Parse("year=between=(1990,2010)")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Compile(node); !errors.Is(err, rsqlerrors.ErrSemantic) {
		t.Errorf("Compile() without evaluation error = %v, want semantic error", err)
	}

	p, err := Compile(node, WithOperator(between, func(v any, found bool, args []string) bool {
		lo, _ := compare(v, args[0])
		hi, _ := compare(v, args[1])
		return found && lo >= 0 && hi <= 0
	}))
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	if diff := cmp.Diff([]float64{2, 4}, ids(Filter(movies(t), p))); diff != "" {
		t.Errorf("Filter mismatch (-want +got):\n%s", diff)
	}
}

func TestLookup(t *testing.T) {
	r := Record{"a": Record{"b": Record{"c": 1.0}}, "n": nil}

	if v, ok := Lookup(r, "a.b.c"); !ok || v != 1.0 {
		t.Errorf("Lookup(a.b.c) = %v, %v, want 1, true", v, ok)
	}
	if v, ok := Lookup(r, "n"); !ok || v != nil {
		t.Errorf("Lookup(n) = %v, %v, want nil, true", v, ok)
	}
	for _, sel := range []string{"x", "a.x", "a.b.c.d", "n.x"} {
		if _, ok := Lookup(r, sel); ok {
			t.Errorf("Lookup(%q) found a value", sel)
		}
	}
}

func TestMatchWildcard(t *testing.T) {
	tests := []struct {
		pattern, s string
		want       bool
	}{
		{"*", "", true},
		{"*", "anything", true},
		{"a*", "abc", true},
		{"*c", "abc", true},
		{"a*c", "abc", true},
		{"a*c", "ac", true},
		{"a*a", "a", false},
		{"*b*", "abc", true},
		{"*x*", "abc", false},
		{"a/*", "a/b/c", true},
		{"[a]*", "[a]b", true},
	}
	for _, tt := range tests {
		if got := matchWildcard(tt.pattern, tt.s); got != tt.want {
			t.Errorf("matchWildcard(%q, %q) = %v, want %v", tt.pattern, tt.s, got, tt.want)
		}
	}
}
