package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testTable() *Table {
	t := &Table{Headers: []string{"symbol", "type"}}
	t.Append("==", "valued[1..1]")
	t.Append("=in=", "valued[1..*]")
	return t
}

func TestTextFormatter(t *testing.T) {
	tests := []struct {
		name string
		data any
		want string
	}{
		{"value", "hello", "hello\n"},
		{"table", testTable(), "SYMBOL  TYPE\n==      valued[1..1]\n=in=    valued[1..*]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := (&TextFormatter{}).Format(tt.data)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, string(got)); diff != "" {
				t.Errorf("Format() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).FormatTo(&buf, testTable()); err != nil {
		t.Fatal(err)
	}

	var got []map[string]string
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("FormatTo() produced invalid JSON: %v", err)
	}
	want := []map[string]string{
		{"symbol": "==", "type": "valued[1..1]"},
		{"symbol": "=in=", "type": "valued[1..*]"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FormatTo() mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVFormatter(t *testing.T) {
	got, err := (&CSVFormatter{}).Format(testTable())
	if err != nil {
		t.Fatal(err)
	}
	if want := "symbol,type\n==,valued[1..1]\n=in=,valued[1..*]\n"; string(got) != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}

	if _, err := (&CSVFormatter{}).Format(map[string]int{"a": 1}); err == nil {
		t.Error("Format(map) error = nil, want error")
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   string
	}{
		{FormatText, "*cli.TextFormatter"},
		{FormatJSON, "*cli.JSONFormatter"},
		{FormatCSV, "*cli.CSVFormatter"},
		{"unknown", "*cli.TextFormatter"},
	}
	for _, tt := range tests {
		if got := fmt.Sprintf("%T", NewFormatter(tt.format)); got != tt.want {
			t.Errorf("NewFormatter(%q) type = %v, want %v", tt.format, got, tt.want)
		}
	}
}

func TestParseOutputFormat(t *testing.T) {
	for _, s := range []string{"text", "JSON", "csv"} {
		if _, err := ParseOutputFormat(s); err != nil {
			t.Errorf("ParseOutputFormat(%q) error = %v", s, err)
		}
	}
	if _, err := ParseOutputFormat("xml"); err == nil {
		t.Error("ParseOutputFormat(xml) error = nil, want error")
	}
}
