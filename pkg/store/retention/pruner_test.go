package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/rsql/pkg/config"
	"mercator-hq/rsql/pkg/rsql/ast"
	"mercator-hq/rsql/pkg/rsql/parser"
	"mercator-hq/rsql/pkg/store"
	"mercator-hq/rsql/pkg/telemetry/metrics"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// newStore returns a store holding one post per day for ten days, starting
// at epoch. Even days are drafts.
func newStore(t *testing.T) *store.Store {
	t.Helper()
	cfg := config.Default().Storage
	cfg.Path = ":memory:"

	day := -1
	s, err := store.Open(&cfg, store.WithClock(func() time.Time {
		day++
		return epoch.AddDate(0, 0, day)
	}))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	docs := make([]map[string]any, 10)
	for i := range docs {
		status := "published"
		if i%2 == 0 {
			status = "draft"
		}
		docs[i] = map[string]any{"n": i, "status": status}
	}
	if _, err := s.InsertMany(context.Background(), "posts", docs); err != nil {
		t.Fatal(err)
	}
	return s
}

func remaining(t *testing.T, s *store.Store) []float64 {
	t.Helper()
	records, err := s.Find(context.Background(), "posts", nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	var out []float64
	for _, r := range records {
		out = append(out, r.Data["n"].(float64))
	}
	return out
}

func TestPrune(t *testing.T) {
	// Day 10 after epoch: record n was created n days after epoch.
	now := epoch.AddDate(0, 0, 10)

	tests := []struct {
		name    string
		rules   []config.RetentionRule
		deleted []int64
		want    []float64
	}{
		{
			name:    "filter only",
			rules:   []config.RetentionRule{{Name: "drafts", Collection: "posts", Filter: "status==draft"}},
			deleted: []int64{5},
			want:    []float64{1, 3, 5, 7, 9},
		},
		{
			name:    "max age only",
			rules:   []config.RetentionRule{{Name: "old", Collection: "posts", MaxAge: 72 * time.Hour}},
			deleted: []int64{7},
			want:    []float64{7, 8, 9},
		},
		{
			name:    "filter and max age",
			rules:   []config.RetentionRule{{Name: "old-drafts", Collection: "posts", Filter: "status==draft", MaxAge: 72 * time.Hour}},
			deleted: []int64{4},
			want:    []float64{1, 3, 5, 7, 8, 9},
		},
		{
			name: "several rules",
			rules: []config.RetentionRule{
				{Name: "low", Collection: "posts", Filter: "n=lt=2"},
				{Name: "high", Collection: "posts", Filter: "n=ge=8"},
				{Name: "other", Collection: "comments", Filter: "n=ge=0"},
			},
			deleted: []int64{2, 2, 0},
			want:    []float64{2, 3, 4, 5, 6, 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			p, err := NewPruner(s, tt.rules, parser.NewParser(), WithClock(func() time.Time { return now }))
			if err != nil {
				t.Fatalf("NewPruner() error = %v", err)
			}

			results, err := p.Prune(context.Background())
			if err != nil {
				t.Fatalf("Prune() error = %v", err)
			}
			var deleted []int64
			for _, r := range results {
				deleted = append(deleted, r.Deleted)
			}
			if diff := cmp.Diff(tt.deleted, deleted); diff != "" {
				t.Errorf("deleted mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.want, remaining(t, s)); diff != "" {
				t.Errorf("remaining mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewPrunerErrors(t *testing.T) {
	tests := []struct {
		name string
		rule config.RetentionRule
	}{
		{"invalid filter", config.RetentionRule{Name: "bad", Collection: "posts", Filter: "status=="}},
		{"no condition", config.RetentionRule{Name: "all", Collection: "posts"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPruner(nil, []config.RetentionRule{tt.rule}, parser.NewParser()); err == nil {
				t.Error("NewPruner() error = nil, want error")
			}
		})
	}
}

type failingDeleter struct {
	fail string
}

func (f failingDeleter) Delete(_ context.Context, collection string, _ ast.Node) (int64, error) {
	if collection == f.fail {
		return 0, errors.New("disk full")
	}
	return 3, nil
}

func TestPruneContinuesAfterFailure(t *testing.T) {
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true}, prometheus.NewRegistry())
	rules := []config.RetentionRule{
		{Name: "a", Collection: "broken", Filter: "x==1"},
		{Name: "b", Collection: "posts", Filter: "x==1"},
	}
	p, err := NewPruner(failingDeleter{fail: "broken"}, rules, parser.NewParser(), WithMetrics(collector))
	if err != nil {
		t.Fatal(err)
	}

	results, err := p.Prune(context.Background())
	if err == nil {
		t.Fatal("Prune() error = nil, want error")
	}
	if results[0].Error == nil {
		t.Error("results[0].Error = nil, want error")
	}
	if results[1].Deleted != 3 {
		t.Errorf("results[1].Deleted = %d, want 3", results[1].Deleted)
	}

	// Only the successful rule is counted.
	n, err := testutil.GatherAndCount(collector.Registry(), "rsql_retention_pruned_records_total")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("retention_pruned_records_total series = %d, want 1", n)
	}
}
