package logging

import (
	"log/slog"
	"testing"
)

func TestRedactQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"single", "name==John", "name==***"},
		{"quoted", `name=="John Smith"`, "name==***"},
		{"and or", "a==1;b!=2,c=gt=3", "a==***;b!=***,c=gt=***"},
		{"list", "genre=in=(sci-fi, 'action')", "genre=in=(***, ***)"},
		{"nullary", "director=null=;a==1", "director=null=;a==***"},
		{"keywords", "a==1 and b==2", "a==*** and b==***"},
		{"groups", "(a==1,b==2);c==3", "(a==***,b==***);c==***"},
		{"nested", "tags=any=(name==go;w=in=(1,2));x==y", "tags=any=(name==***;w=in=(***,***));x==***"},
		{"unlexable", `name=="unterminated`, Mask},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RedactQuery(tt.query); got != tt.want {
				t.Errorf("RedactQuery(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestRedactor_RedactArgs(t *testing.T) {
	r := NewRedactor()
	got := r.RedactArgs("filter", "a==secret", "api_key", "sk-123", "count", 3, "name", "visible")

	want := []any{"filter", "a==***", "api_key", Mask, "count", 3, "name", "visible"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("RedactArgs()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRedactor_ReplaceAttr(t *testing.T) {
	r := NewRedactor()

	if got := r.ReplaceAttr(nil, slog.String("query", "a==1")); got.Value.String() != "a==***" {
		t.Errorf("ReplaceAttr(query) = %v, want a==***", got.Value)
	}
	if got := r.ReplaceAttr(nil, slog.Int("token_count", 5)); got.Value.String() != Mask {
		t.Errorf("ReplaceAttr(token_count) = %v, want masked", got.Value)
	}
	if got := r.ReplaceAttr(nil, slog.String("msg", "a==1")); got.Value.String() != "a==1" {
		t.Errorf("ReplaceAttr(msg) = %v, want unchanged", got.Value)
	}
}
