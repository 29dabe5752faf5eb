package sqlfilter

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mercator-hq/rsql/pkg/rsql"
	"mercator-hq/rsql/pkg/rsql/ast"
	rsqlerrors "mercator-hq/rsql/pkg/rsql/errors"
	"mercator-hq/rsql/pkg/rsql/operators"
	"mercator-hq/rsql/pkg/rsql/parser"
)

var columns = ColumnMap{
	"name":     "title",
	"year":     "year",
	"genre":    "genre",
	"director": "director",
	"rating":   "rating",
}

func TestBuilder_Build(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantSQL  string
		wantArgs []any
	}{
		{"equal", "name==Alien", `"title" = ?`, []any{"Alien"}},
		{"not equal", "name!=Alien", `"title" <> ?`, []any{"Alien"}},
		{"numbers", "year=gt=2000", `"year" > ?`, []any{int64(2000)}},
		{"alias", "year<=2000", `"year" <= ?`, []any{int64(2000)}},
		{"float", "rating>=7.5", `"rating" >= ?`, []any{7.5}},
		{"ge lt", "year=ge=1;year=lt=2", `("year" >= ? AND "year" < ?)`, []any{int64(1), int64(2)}},
		{"wildcard", "name==Kill*", `"title" LIKE ? ESCAPE '\'`, []any{"Kill%"}},
		{"negated wildcard", "name!=*_x*", `"title" NOT LIKE ? ESCAPE '\'`, []any{`%\_x%`}},
		{"in keeps order", "genre=in=(drama,action,comedy)", `"genre" IN (?, ?, ?)`, []any{"drama", "action", "comedy"}},
		{"out", "genre=out=(horror)", `"genre" NOT IN (?)`, []any{"horror"}},
		{"null", "director=null=", `"director" IS NULL`, nil},
		{"not null", "director=notnull=", `"director" IS NOT NULL`, nil},
		{"bool", "name==true", `"title" = ?`, []any{true}},
		{
			"precedence",
			"name==a,year==1;genre==b",
			`("title" = ? OR ("year" = ? AND "genre" = ?))`,
			[]any{"a", int64(1), "b"},
		},
		{
			"quoted argument is bound",
			`name=="'; DROP TABLE movies; --"`,
			`"title" = ?`,
			[]any{"'; DROP TABLE movies; --"},
		},
	}
	b := New(columns)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Build(rsql.MustParse(tt.query))
			if err != nil {
				t.Fatalf("Build(%q) failed: %v", tt.query, err)
			}
			if got.SQL != tt.wantSQL {
				t.Errorf("SQL = %q, want %q", got.SQL, tt.wantSQL)
			}
			if diff := cmp.Diff(tt.wantArgs, got.Args); diff != "" {
				t.Errorf("Args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuilder_Build_Nil(t *testing.T) {
	got, err := New(columns).Build(nil)
	if err != nil || got.SQL != "1 = 1" {
		t.Errorf("Build(nil) = %v, %v, want 1 = 1", got, err)
	}
}

func TestBuilder_UnknownSelector(t *testing.T) {
	_, err := New(columns).Build(rsql.MustParse("a==1;titel==x"))

	var rerr *rsqlerrors.Error
	if !errors.As(err, &rerr) || rerr.Type != rsqlerrors.ErrorTypeSemantic {
		t.Fatalf("Build() error = %v, want semantic error", err)
	}
	if rerr.Position.Column != 1 {
		t.Errorf("error column = %d, want 1", rerr.Position.Column)
	}
}

func TestBuilder_UnknownSelectorSuggestion(t *testing.T) {
	_, err := New(columns).Build(rsql.MustParse("yaer==1"))

	var rerr *rsqlerrors.Error
	if !errors.As(err, &rerr) {
		t.Fatalf("Build() error = %v, want *errors.Error", err)
	}
	if rerr.Suggestion != "Did you mean 'year'?" {
		t.Errorf("Suggestion = %q, want %q", rerr.Suggestion, "Did you mean 'year'?")
	}
}

func TestBuilder_Options(t *testing.T) {
	node := rsql.MustParse("name==A*;year==2000")

	got, err := New(columns, WithoutWildcards(), WithConverter(AsText)).Build(node)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if want := `("title" = ? AND "year" = ?)`; got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if diff := cmp.Diff([]any{"A*", "2000"}, got.Args); diff != "" {
		t.Errorf("Args mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilder_CustomOperator(t *testing.T) {
	between := ast.MustComparisonOperator(ast.Valued(ast.ExactArity(2)), "=between=")
	reg, err := operators.Default().With(between)
	if err != nil {
		t.Fatal(err)
	}
	node, err := parser.New(reg).Parse("year=between=(1990,2000)")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := New(columns).Build(node); !errors.Is(err, rsqlerrors.ErrSemantic) {
		t.Errorf("Build() without renderer error = %v, want semantic error", err)
	}

	b := New(columns, WithRenderer(between, func(col string, n *ast.ComparisonNode, convert Converter) (Clause, error) {
		return Clause{
			SQL:  col + " BETWEEN ? AND ?",
			Args: []any{convert(n.Argument(0)), convert(n.Argument(1))},
		}, nil
	}))
	got, err := b.Build(node)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if want := `"year" BETWEEN ? AND ?`; got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if diff := cmp.Diff([]any{int64(1990), int64(2000)}, got.Args); diff != "" {
		t.Errorf("Args mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONColumn(t *testing.T) {
	m := JSONColumn{Doc: "data", Fields: map[string]string{"id": "id"}}

	tests := []struct {
		selector string
		want     string
		wantErr  bool
	}{
		{"id", `"id"`, false},
		{"title", `json_extract("data", '$."title"')`, false},
		{"author.last-name", `json_extract("data", '$."author"."last-name"')`, false},
		{"a..b", "", true},
		{"x'); DROP", "", true},
		{"1st", "", true},
	}
	for _, tt := range tests {
		got, err := m.Column(tt.selector)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Column(%q) = %q, want error", tt.selector, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Column(%q) failed: %v", tt.selector, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Column(%q) = %q, want %q", tt.selector, got, tt.want)
		}
	}
}

func TestJSONColumn_ListAware(t *testing.T) {
	b := New(JSONColumn{Doc: "data", Fields: map[string]string{"id": "id"}})
	elems := func(sel string) string {
		return `SELECT 1 FROM json_each("data", '$."` + sel + `"') WHERE typeof(key) <> 'text' AND `
	}

	tests := []struct {
		name     string
		query    string
		wantSQL  string
		wantArgs []any
	}{
		{"equal", "genre==drama", "EXISTS (" + elems("genre") + "value = ?)", []any{"drama"}},
		{"not equal", "genre!=drama", "NOT EXISTS (" + elems("genre") + "value = ?)", []any{"drama"}},
		{"wildcard", "genre==sci*", "EXISTS (" + elems("genre") + `value LIKE ? ESCAPE '\')`, []any{"sci%"}},
		{"in", "genre=in=(drama,war)", "EXISTS (" + elems("genre") + "value IN (?, ?))", []any{"drama", "war"}},
		{"out", "genre=out=(horror)", "NOT EXISTS (" + elems("genre") + "value IN (?))", []any{"horror"}},
		{"ordering is scalar", "year=gt=2000", `json_extract("data", '$."year"') > ?`, []any{int64(2000)}},
		{"null is scalar", "genre=null=", `json_extract("data", '$."genre"') IS NULL`, nil},
		{"real column", "id==abc", `"id" = ?`, []any{"abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Build(rsql.MustParse(tt.query))
			if err != nil {
				t.Fatalf("Build() failed: %v", err)
			}
			if got.SQL != tt.wantSQL {
				t.Errorf("SQL = %q, want %q", got.SQL, tt.wantSQL)
			}
			if diff := cmp.Diff(tt.wantArgs, got.Args); diff != "" {
				t.Errorf("Args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestElementMatch(t *testing.T) {
	anyOf := ast.MustComparisonOperator(ast.Nested(), "=any=")
	reg, err := operators.Default().With(anyOf)
	if err != nil {
		t.Fatal(err)
	}
	node, err := parser.New(reg).Parse("tags=any=(name==go;weight=gt=3),year==1")
	if err != nil {
		t.Fatal(err)
	}

	b := New(JSONColumn{Doc: "data"}, WithRenderer(anyOf, ElementMatch()))
	got, err := b.Build(node)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	want := `(EXISTS (SELECT 1 FROM json_each(json_extract("data", '$."tags"')) AS elem WHERE ` +
		`(EXISTS (SELECT 1 FROM json_each(elem.value, '$."name"') WHERE typeof(key) <> 'text' AND value = ?) ` +
		`AND json_extract(elem.value, '$."weight"') > ?)) ` +
		`OR EXISTS (SELECT 1 FROM json_each("data", '$."year"') WHERE typeof(key) <> 'text' AND value = ?))`
	if got.SQL != want {
		t.Errorf("SQL =\n%s\nwant\n%s", got.SQL, want)
	}
	if diff := cmp.Diff([]any{"go", int64(3), int64(1)}, got.Args); diff != "" {
		t.Errorf("Args mismatch (-want +got):\n%s", diff)
	}
}

func TestLikePattern(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"abc", "abc"},
		{"*abc*", "%abc%"},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`a\b*`, `a\\b%`},
	}
	for _, tt := range tests {
		if got := LikePattern(tt.in); got != tt.want {
			t.Errorf("LikePattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuoteIdentifier(t *testing.T) {
	if got := QuoteIdentifier(`we"ird`); got != `"we""ird"` {
		t.Errorf("QuoteIdentifier() = %q, want %q", got, `"we""ird"`)
	}
	if !strings.HasPrefix(QuoteIdentifier("x"), `"`) {
		t.Error("QuoteIdentifier() does not quote")
	}
}
