package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mercator-hq/rsql/pkg/cli"
	"mercator-hq/rsql/pkg/store"
)

const moviesJSON = `[
  {"title": "Kill Bill", "year": 2003, "genre": ["action", "crime"], "director": {"name": "Tarantino"}},
  {"title": "Pulp Fiction", "year": 1994, "genre": ["crime"], "director": {"name": "Tarantino"}},
  {"title": "Alien", "year": 1979, "genre": ["sci-fi", "horror"], "director": {"name": "Scott"}},
  {"title": "Arrival", "year": 2016, "genre": ["sci-fi"], "director": {"name": "Villeneuve"}}
]`

func TestStoreCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "data", "rsql.db")
	movies := writeFile(t, "movies.json", moviesJSON)

	out, err := execute(t, "", "import", "--db", db, "-q", "--batch-size", "3", "movies", movies)
	if err != nil {
		t.Fatalf("import error = %v", err)
	}
	if want := "imported 4 records into movies\n"; out != want {
		t.Errorf("import output = %q, want %q", out, want)
	}

	out, err = execute(t, "", "query", "--db", db, "--count", "movies", "director.name==Tarantino")
	if err != nil {
		t.Fatalf("query --count error = %v", err)
	}
	if out != "2\n" {
		t.Errorf("count = %q, want %q", out, "2\n")
	}

	out, err = execute(t, "", "query", "--db", db, "--count", "movies", "genre==crime")
	if err != nil {
		t.Fatalf("query --count error = %v", err)
	}
	if out != "2\n" {
		t.Errorf("list element count = %q, want %q", out, "2\n")
	}

	out, err = execute(t, "", "query", "--db", db, "-o", "json", "movies", "genre==sci-fi;year=gt=2000")
	if err != nil {
		t.Fatalf("query error = %v", err)
	}
	var records []store.Record
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(records) != 1 || records[0].Data["title"] != "Arrival" {
		t.Errorf("records = %+v, want Arrival", records)
	}

	out, err = execute(t, "", "query", "--db", db, "movies")
	if err != nil {
		t.Fatalf("query error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 || !strings.HasPrefix(lines[0], "ID") {
		t.Errorf("query table =\n%s\nwant a header and 4 rows", out)
	}

	out, err = execute(t, "", "delete", "--db", db, "movies", "year=lt=1990")
	if err != nil {
		t.Fatalf("delete error = %v", err)
	}
	if want := "deleted 1 records from movies\n"; out != want {
		t.Errorf("delete output = %q, want %q", out, want)
	}

	out, err = execute(t, "", "collections", "--db", db, "-o", "csv")
	if err != nil {
		t.Fatalf("collections error = %v", err)
	}
	lines = strings.Split(strings.TrimSpace(out), "\n")
	if diff := cmp.Diff("name,records,oldest,newest", lines[0]); diff != "" {
		t.Errorf("csv header mismatch (-want +got):\n%s", diff)
	}
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "movies,3,") {
		t.Errorf("collections =\n%s", out)
	}
}

func TestStoreCommandErrors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "rsql.db")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"invalid query", []string{"query", "--db", db, "movies", "year=gt="}, cli.ExitInvalidQuery},
		{"invalid collection", []string{"query", "--db", db, "bad name", "a==1"}, cli.ExitFailure},
		{"delete requires query", []string{"delete", "--db", db, "movies"}, cli.ExitFailure},
		{"zero batch size", []string{"import", "--db", db, "--batch-size", "0", "movies"}, cli.ExitFailure},
		{"unknown output", []string{"query", "--db", db, "-o", "xml", "movies"}, cli.ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "[]", tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if code := cli.ExitCode(err); code != tt.code {
				t.Errorf("ExitCode(%v) = %d, want %d", err, code, tt.code)
			}
		})
	}
}

func TestImportFromStdin(t *testing.T) {
	db := filepath.Join(t.TempDir(), "rsql.db")
	ndjson := "{\"level\":\"warn\"}\n{\"level\":\"info\"}\n{\"level\":\"error\"}\n"

	if _, err := execute(t, ndjson, "import", "--db", db, "-q", "events"); err != nil {
		t.Fatalf("import error = %v", err)
	}
	out, err := execute(t, "", "query", "--db", db, "--count", "events", "level=in=(warn,error)")
	if err != nil {
		t.Fatalf("query error = %v", err)
	}
	if out != "2\n" {
		t.Errorf("count = %q, want %q", out, "2\n")
	}
}

func TestPruneCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "rsql.db")
	movies := writeFile(t, "movies.json", moviesJSON)
	cfg := writeFile(t, "rsql.yaml", fmt.Sprintf(`
storage:
  path: %q
retention:
  rules:
    - name: old-movies
      collection: movies
      filter: year=lt=2000
`, db))

	if _, err := execute(t, "", "import", "-c", cfg, "-q", "movies", movies); err != nil {
		t.Fatalf("import error = %v", err)
	}

	out, err := execute(t, "", "prune", "-c", cfg, "--dry-run", "-o", "csv")
	if err != nil {
		t.Fatalf("prune --dry-run error = %v", err)
	}
	if want := "rule,matching,error\nold-movies,2,\n"; out != want {
		t.Errorf("dry run = %q, want %q", out, want)
	}

	out, err = execute(t, "", "prune", "-c", cfg, "-o", "csv")
	if err != nil {
		t.Fatalf("prune error = %v", err)
	}
	if want := "rule,deleted,error\nold-movies,2,\n"; out != want {
		t.Errorf("prune = %q, want %q", out, want)
	}

	out, err = execute(t, "", "query", "-c", cfg, "--count", "movies")
	if err != nil {
		t.Fatalf("query error = %v", err)
	}
	if out != "2\n" {
		t.Errorf("remaining = %q, want %q", out, "2\n")
	}
}
