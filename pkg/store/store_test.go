package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/rsql/pkg/config"
	"mercator-hq/rsql/pkg/rsql/ast"
	"mercator-hq/rsql/pkg/rsql/operators"
	"mercator-hq/rsql/pkg/rsql/parser"
	"mercator-hq/rsql/pkg/rsql/predicate"
	"mercator-hq/rsql/pkg/telemetry/metrics"
)

var anyOp = ast.MustComparisonOperator(ast.Nested(), "=any=")

func testConfig(path string) *config.StorageConfig {
	cfg := config.Default().Storage
	cfg.Path = path
	return &cfg
}

// fakeClock returns increasing timestamps one minute apart.
func fakeClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	reg, err := operators.Default().With(anyOp)
	if err != nil {
		t.Fatal(err)
	}
	opts = append([]Option{
		WithRegistry(reg),
		WithClock(fakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))),
	}, opts...)

	s, err := Open(testConfig(":memory:"), opts...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustParse(t *testing.T, query string) ast.Node {
	t.Helper()
	reg, _ := operators.Default().With(anyOp)
	node, err := parser.New(reg).Parse(query)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", query, err)
	}
	return node
}

func seedMovies(t *testing.T, s *Store) []*Record {
	t.Helper()
	records, err := s.InsertMany(context.Background(), "movies", []map[string]any{
		{"name": "Kill Bill", "year": 2003, "genre": "action", "director": map[string]any{"name": "Tarantino"}},
		{"name": "Pulp Fiction", "year": 1994, "genre": "crime", "director": map[string]any{"name": "Tarantino"}},
		{"name": "Alien", "year": 1979, "genre": "sci-fi", "cast": []any{map[string]any{"name": "Weaver"}}},
		{"name": "Arrival", "year": 2016, "genre": "sci-fi", "cast": []any{map[string]any{"name": "Adams"}, map[string]any{"name": "Renner"}}},
	})
	if err != nil {
		t.Fatalf("InsertMany() error = %v", err)
	}
	return records
}

func names(records []*Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i], _ = r.Data["name"].(string)
	}
	return out
}

func TestFind(t *testing.T) {
	s := newTestStore(t)
	seedMovies(t, s)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Kill Bill", "Pulp Fiction", "Alien", "Arrival"}},
		{"year=gt=2000", []string{"Kill Bill", "Arrival"}},
		{"genre==sci-fi;year<2000", []string{"Alien"}},
		{"genre==crime,year>=2016", []string{"Pulp Fiction", "Arrival"}},
		{"name==A*", []string{"Alien", "Arrival"}},
		{"name!=A*", []string{"Kill Bill", "Pulp Fiction"}},
		{"genre=in=(action,crime)", []string{"Kill Bill", "Pulp Fiction"}},
		{"genre=out=(action,crime)", []string{"Alien", "Arrival"}},
		{"director.name==Tarantino", []string{"Kill Bill", "Pulp Fiction"}},
		{"director=null=", []string{"Alien", "Arrival"}},
		{"cast=any=(name==Renner)", []string{"Arrival"}},
		{"cast=any=(name==*e*)", []string{"Alien", "Arrival"}},
		{"created_at=gt=2024-01-01T00:02:00.000000000Z", []string{"Alien", "Arrival"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var node ast.Node
			if tt.query != "" {
				node = mustParse(t, tt.query)
			}
			got, err := s.Find(context.Background(), "movies", node, 0)
			if err != nil {
				t.Fatalf("Find() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, names(got)); diff != "" {
				t.Errorf("Find(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestFindLimit(t *testing.T) {
	s := newTestStore(t)
	seedMovies(t, s)
	s.config.DefaultLimit = 2
	s.config.MaxLimit = 3

	tests := []struct {
		limit int
		want  int
	}{
		{1, 1},
		{0, 2},
		{3, 3},
		{10, 3},
	}

	for _, tt := range tests {
		got, err := s.Find(context.Background(), "movies", nil, tt.limit)
		if err != nil {
			t.Fatalf("Find() error = %v", err)
		}
		if len(got) != tt.want {
			t.Errorf("Find(limit=%d) returned %d records, want %d", tt.limit, len(got), tt.want)
		}
	}
}

func TestFindIsolatesCollections(t *testing.T) {
	s := newTestStore(t)
	seedMovies(t, s)
	if _, err := s.Insert(context.Background(), "books", map[string]any{"name": "Dune"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Find(context.Background(), "books", nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Dune"}, names(got)); diff != "" {
		t.Errorf("Find() mismatch (-want +got):\n%s", diff)
	}
}

func TestFindUnknownNestedRendering(t *testing.T) {
	// Without WithRegistry the store has no rendering for =any=.
	s, err := Open(testConfig(":memory:"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	node := mustParse(t, "cast=any=(name==x)")
	if _, err := s.Find(context.Background(), "movies", node, 0); err == nil {
		t.Fatal("Find() error = nil, want error")
	}

	reg, _ := operators.Default().With(anyOp)
	s.SetRegistry(reg)
	if _, err := s.Find(context.Background(), "movies", node, 0); err != nil {
		t.Errorf("Find() after SetRegistry error = %v", err)
	}
}

func TestInsertAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Insert(ctx, "movies", map[string]any{"name": "Heat", "year": 1995})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if rec.ID == "" {
		t.Error("Insert() returned empty ID")
	}

	got, err := s.Get(ctx, "movies", rec.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Data["name"] != "Heat" {
		t.Errorf("Get().Data[name] = %v, want %q", got.Data["name"], "Heat")
	}
	// JSON numbers decode as float64.
	if got.Data["year"] != float64(1995) {
		t.Errorf("Get().Data[year] = %v, want 1995", got.Data["year"])
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("Get().CreatedAt = %v, want %v", got.CreatedAt, rec.CreatedAt)
	}

	if _, err := s.Get(ctx, "movies", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestInsertValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"", "bad name", "semi;colon", "quote'"} {
		if _, err := s.Insert(ctx, name, map[string]any{}); !errors.Is(err, ErrInvalidCollection) {
			t.Errorf("Insert(%q) error = %v, want ErrInvalidCollection", name, err)
		}
	}

	_, err := s.InsertMany(ctx, "movies", []map[string]any{{"name": "ok"}, nil})
	if !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("InsertMany(nil doc) error = %v, want ErrInvalidDocument", err)
	}
	n, err := s.Count(ctx, "movies", nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("Count() after failed batch = %d, want 0", n)
	}
}

func TestDeleteAndCount(t *testing.T) {
	s := newTestStore(t)
	seedMovies(t, s)
	ctx := context.Background()

	n, err := s.Count(ctx, "movies", mustParse(t, "genre==sci-fi"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}

	deleted, err := s.Delete(ctx, "movies", mustParse(t, "genre==sci-fi"))
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("Delete() = %d, want 2", deleted)
	}

	n, err = s.Count(ctx, "movies", nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Count() after delete = %d, want 2", n)
	}
}

func TestCountAgreesWithPredicate(t *testing.T) {
	docs := []map[string]any{
		{"title": "Arrival", "genre": []any{"sci-fi", "drama"}, "year": 2016},
		{"title": "Alien", "genre": "sci-fi", "year": 1979},
		{"title": "Heat", "genre": []any{"crime"}, "year": 1995},
		{"title": "Untitled", "genre": nil},
		{"title": "Notes", "genre": map[string]any{"main": "sci-fi"}},
		{"title": "Draft"},
	}
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.InsertMany(ctx, "movies", docs); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		query string
		want  int64
	}{
		{"genre==sci-fi", 2},
		{"genre==dra*", 1},
		{"genre!=sci-fi", 4},
		{"genre=in=(crime,drama)", 2},
		{"genre=out=(crime,drama)", 4},
		{"genre==sci-fi;year=gt=2000", 1},
		{"genre=null=", 2},
		{"title==Heat,genre==crime", 1},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			node := mustParse(t, tt.query)
			n, err := s.Count(ctx, "movies", node)
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if n != tt.want {
				t.Errorf("Count() = %d, want %d", n, tt.want)
			}

			match, err := predicate.Compile(node)
			if err != nil {
				t.Fatal(err)
			}
			var matched int64
			for _, doc := range docs {
				if match(normalize(t, doc)) {
					matched++
				}
			}
			if matched != n {
				t.Errorf("predicate matched %d documents, store counted %d", matched, n)
			}
		})
	}
}

// normalize round-trips doc through JSON so numbers decode the way stored
// documents do.
func normalize(t *testing.T, doc map[string]any) map[string]any {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestCollections(t *testing.T) {
	s := newTestStore(t)
	seedMovies(t, s)
	if _, err := s.Insert(context.Background(), "books", map[string]any{"name": "Dune"}); err != nil {
		t.Fatal(err)
	}

	infos, err := s.Collections(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	counts := map[string]int64{}
	for _, info := range infos {
		got = append(got, info.Name)
		counts[info.Name] = info.Count
		if info.Newest.Before(info.Oldest) {
			t.Errorf("collection %s: newest %v before oldest %v", info.Name, info.Newest, info.Oldest)
		}
	}
	if diff := cmp.Diff([]string{"books", "movies"}, got); diff != "" {
		t.Errorf("Collections() mismatch (-want +got):\n%s", diff)
	}
	if counts["movies"] != 4 {
		t.Errorf("movies count = %d, want 4", counts["movies"])
	}
}

func TestStoreMetrics(t *testing.T) {
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true}, prometheus.NewRegistry())
	s := newTestStore(t, WithMetrics(collector))
	seedMovies(t, s)

	if _, err := s.Find(context.Background(), "movies", nil, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Find(context.Background(), "bad name", nil, 0); err == nil {
		t.Fatal("Find(bad name) error = nil")
	}

	n, err := testutil.GatherAndCount(collector.Registry(), "rsql_store_operations_total")
	if err != nil {
		t.Fatal(err)
	}
	if n < 2 {
		t.Errorf("store_operations_total series = %d, want at least 2", n)
	}
}

func TestOpenFile(t *testing.T) {
	for _, driver := range []string{"sqlite", "sqlite3"} {
		t.Run(driver, func(t *testing.T) {
			cfg := testConfig(filepath.Join(t.TempDir(), "rsql.db"))
			cfg.Driver = driver

			s, err := Open(cfg)
			if err != nil {
				if driver == "sqlite3" {
					t.Skipf("cgo sqlite3 driver unavailable: %v", err)
				}
				t.Fatalf("Open() error = %v", err)
			}
			defer s.Close()

			if err := s.Ping(context.Background()); err != nil {
				t.Fatalf("Ping() error = %v", err)
			}
			if _, err := s.Insert(context.Background(), "movies", map[string]any{"name": "Heat"}); err != nil {
				t.Fatalf("Insert() error = %v", err)
			}

			// Reopening verifies the schema version of an existing database.
			s.Close()
			s, err = Open(cfg)
			if err != nil {
				t.Fatalf("reopen error = %v", err)
			}
			defer s.Close()
			n, err := s.Count(context.Background(), "movies", nil)
			if err != nil {
				t.Fatal(err)
			}
			if n != 1 {
				t.Errorf("Count() after reopen = %d, want 1", n)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		driver, path string
		wal          bool
		want         string
	}{
		{"sqlite", "a.db", true, "a.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"},
		{"sqlite", ":memory:", true, ":memory:?_pragma=busy_timeout(5000)"},
		{"sqlite3", "a.db", true, "a.db?_busy_timeout=5000&_journal_mode=WAL"},
		{"sqlite3", "a.db", false, "a.db?_busy_timeout=5000"},
	}
	for _, tt := range tests {
		cfg := testConfig(tt.path)
		cfg.Driver = tt.driver
		cfg.WALMode = tt.wal
		if got := dsn(cfg); got != tt.want {
			t.Errorf("dsn(%s, %s) = %q, want %q", tt.driver, tt.path, got, tt.want)
		}
	}
}
