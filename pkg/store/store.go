package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mercator-hq/rsql/pkg/config"
	"mercator-hq/rsql/pkg/rsql/ast"
	"mercator-hq/rsql/pkg/rsql/operators"
	"mercator-hq/rsql/pkg/rsql/sqlfilter"
	"mercator-hq/rsql/pkg/telemetry/metrics"
	"mercator-hq/rsql/pkg/telemetry/tracing"
)

// TimeFormat is the fixed-width UTC layout of created_at. Fixed width keeps
// lexical order equal to chronological order, so created_at can be
// compared as text in filters.
const TimeFormat = "2006-01-02T15:04:05.000000000Z"

// Reserved selectors that address record columns instead of the document.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
)

var collectionRegexp = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// Record is one stored document.
type Record struct {
	ID         string         `json:"id"`
	Collection string         `json:"collection"`
	CreatedAt  time.Time      `json:"created_at"`
	Data       map[string]any `json:"data"`
}

// CollectionInfo summarises a collection.
type CollectionInfo struct {
	Name   string    `json:"name"`
	Count  int64     `json:"count"`
	Oldest time.Time `json:"oldest"`
	Newest time.Time `json:"newest"`
}

// Store is a SQLite document store filtered with RSQL. Documents are JSON
// objects grouped into collections; selectors address document fields by
// dotted path, except id and created_at which address the record itself.
// A Store is safe for concurrent use.
type Store struct {
	db      *sql.DB
	config  *config.StorageConfig
	filters atomic.Pointer[sqlfilter.Builder]
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithMetrics records every operation on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Store) { s.metrics = c }
}

// WithTracer wraps every operation in a span.
func WithTracer(t *tracing.Tracer) Option {
	return func(s *Store) { s.tracer = t }
}

// WithRegistry renders the nested operators of registry as element
// matches over JSON arrays, e.g. cast=any=(name==Reno).
func WithRegistry(registry *operators.Registry) Option {
	return func(s *Store) { s.SetRegistry(registry) }
}

// WithClock replaces time.Now as the source of created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens (creating if needed) the database described by cfg.
func Open(cfg *config.StorageConfig, opts ...Option) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("storage config is nil")
	}

	s := &Store{
		config:  cfg,
		tracer:  tracing.Noop(),
		logger:  slog.Default().With("component", "store.sqlite"),
		now:     time.Now,
	}
	s.filters.Store(NewFilterBuilder(operators.Default()))
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open(cfg.Driver, dsn(cfg))
	if err != nil {
		return nil, storageError("open", err)
	}

	maxOpen, maxIdle := cfg.MaxOpenConns, cfg.MaxIdleConns
	if isMemory(cfg.Path) {
		// Every connection to :memory: is a separate database.
		maxOpen, maxIdle = 1, 1
		db.SetConnMaxLifetime(0)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	s.db = db

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("document store initialized",
		"driver", cfg.Driver,
		"path", cfg.Path,
		"wal_mode", cfg.WALMode,
		"max_open_conns", maxOpen,
	)

	return s, nil
}

// SetRegistry replaces the operators filters are rendered for. Operations
// in flight keep the previous rendering.
func (s *Store) SetRegistry(registry *operators.Registry) {
	s.filters.Store(NewFilterBuilder(registry))
}

// NewFilterBuilder returns the SQL renderer the store uses for registry.
// Selectors address the JSON document except id and created_at.
func NewFilterBuilder(registry *operators.Registry) *sqlfilter.Builder {
	opts := []sqlfilter.Option{}
	for _, op := range registry.Operators() {
		if op.Type().Kind() == ast.KindNested {
			opts = append(opts, sqlfilter.WithRenderer(op, sqlfilter.ElementMatch()))
		}
	}
	return sqlfilter.New(sqlfilter.JSONColumn{
		Doc:    "data",
		Fields: map[string]string{FieldID: "id", FieldCreatedAt: "created_at"},
	}, opts...)
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// dsn builds a data source name whose pragmas apply to every pooled
// connection. The two drivers spell connection pragmas differently.
func dsn(cfg *config.StorageConfig) string {
	path := cfg.Path
	var params []string
	busy := cfg.BusyTimeout.Milliseconds()
	switch cfg.Driver {
	case "sqlite3":
		params = append(params, fmt.Sprintf("_busy_timeout=%d", busy))
		if cfg.WALMode && !isMemory(cfg.Path) {
			params = append(params, "_journal_mode=WAL")
		}
	default:
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", busy))
		if cfg.WALMode && !isMemory(cfg.Path) {
			params = append(params, "_pragma=journal_mode(WAL)")
		}
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

// initialize creates the schema and verifies its version.
func (s *Store) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return storageError("create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return storageError("insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return storageError("get_schema_version", err)
	}
	if version != SchemaVersion {
		return storageError("schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Insert stores one document and returns the new record.
func (s *Store) Insert(ctx context.Context, collection string, data map[string]any) (*Record, error) {
	records, err := s.InsertMany(ctx, collection, []map[string]any{data})
	if err != nil {
		return nil, err
	}
	return records[0], nil
}

// InsertMany stores documents in one transaction. Either all are stored or
// none.
func (s *Store) InsertMany(ctx context.Context, collection string, docs []map[string]any) (records []*Record, err error) {
	ctx, done := s.observe(ctx, collection, "insert")
	defer func() { done(len(records), err) }()

	if err := validateCollection(collection); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageError("insert", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertRecord)
	if err != nil {
		return nil, storageError("insert", err)
	}
	defer stmt.Close()

	records = make([]*Record, 0, len(docs))
	for i, data := range docs {
		if data == nil {
			return nil, fmt.Errorf("document %d: %w", i, ErrInvalidDocument)
		}
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}

		rec := &Record{
			ID:         uuid.NewString(),
			Collection: collection,
			CreatedAt:  s.now().UTC(),
			Data:       data,
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, collection, string(encoded), rec.CreatedAt.Format(TimeFormat)); err != nil {
			return nil, storageError("insert", err)
		}
		records = append(records, rec)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageError("insert", err)
	}
	return records, nil
}

// Get returns one record by ID.
func (s *Store) Get(ctx context.Context, collection, id string) (*Record, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, selectRecords+` WHERE collection = ? AND id = ?`, collection, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageError("get", err)
	}
	return rec, nil
}

// Find returns the records of collection matching node, oldest first. A
// nil node matches every record. A limit of 0 uses the configured default;
// limits above the configured maximum are capped.
func (s *Store) Find(ctx context.Context, collection string, node ast.Node, limit int) (records []*Record, err error) {
	ctx, done := s.observe(ctx, collection, "find")
	defer func() { done(len(records), err) }()

	where, err := s.where(collection, node)
	if err != nil {
		return nil, err
	}

	query := selectRecords + ` WHERE ` + where.SQL + ` ORDER BY created_at, id LIMIT ?`
	args := append(where.Args, s.limit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("find", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, storageError("find", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("find", err)
	}
	return records, nil
}

// Count returns the number of records of collection matching node.
func (s *Store) Count(ctx context.Context, collection string, node ast.Node) (n int64, err error) {
	ctx, done := s.observe(ctx, collection, "count")
	defer func() { done(int(n), err) }()

	where, err := s.where(collection, node)
	if err != nil {
		return 0, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE `+where.SQL, where.Args...).Scan(&n); err != nil {
		return 0, storageError("count", err)
	}
	return n, nil
}

// Delete removes the records of collection matching node and returns how
// many were removed. A nil node removes the whole collection.
func (s *Store) Delete(ctx context.Context, collection string, node ast.Node) (n int64, err error) {
	ctx, done := s.observe(ctx, collection, "delete")
	defer func() { done(int(n), err) }()

	where, err := s.where(collection, node)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE `+where.SQL, where.Args...)
	if err != nil {
		return 0, storageError("delete", err)
	}
	n, err = res.RowsAffected()
	if err != nil {
		return 0, storageError("delete", err)
	}
	return n, nil
}

// Collections lists every non-empty collection.
func (s *Store) Collections(ctx context.Context) ([]CollectionInfo, error) {
	rows, err := s.db.QueryContext(ctx, listCollections)
	if err != nil {
		return nil, storageError("collections", err)
	}
	defer rows.Close()

	var infos []CollectionInfo
	for rows.Next() {
		var info CollectionInfo
		var oldest, newest string
		if err := rows.Scan(&info.Name, &info.Count, &oldest, &newest); err != nil {
			return nil, storageError("collections", err)
		}
		info.Oldest, _ = time.Parse(TimeFormat, oldest)
		info.Newest, _ = time.Parse(TimeFormat, newest)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// where renders the collection restriction and the filter.
func (s *Store) where(collection string, node ast.Node) (sqlfilter.Clause, error) {
	if err := validateCollection(collection); err != nil {
		return sqlfilter.Clause{}, err
	}
	filter, err := s.filters.Load().Build(node)
	if err != nil {
		return sqlfilter.Clause{}, err
	}
	return sqlfilter.Clause{
		SQL:  "collection = ? AND (" + filter.SQL + ")",
		Args: append([]any{collection}, filter.Args...),
	}, nil
}

func (s *Store) limit(limit int) int {
	switch {
	case limit <= 0:
		return s.config.DefaultLimit
	case limit > s.config.MaxLimit:
		return s.config.MaxLimit
	}
	return limit
}

// observe starts a span for one operation and returns a function that
// records its outcome.
func (s *Store) observe(ctx context.Context, collection, operation string) (context.Context, func(n int, err error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "rsql.store."+operation)
	tracing.SetStoreAttributes(span, collection, operation)

	return ctx, func(n int, err error) {
		duration := time.Since(start)
		tracing.SetRecordCount(span, n)
		tracing.SetParseErrorAttributes(span, err)
		span.End()

		if s.metrics != nil {
			s.metrics.RecordStoreOperation(collection, operation, err, duration)
			if err == nil {
				s.metrics.RecordRecordsMatched(collection, operation, n)
			}
		}
		if err != nil {
			s.logger.DebugContext(ctx, "store operation failed",
				"collection", collection,
				"operation", operation,
				"error", err,
			)
		}
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var data, created string
	if err := row.Scan(&rec.ID, &rec.Collection, &data, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &rec.Data); err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	t, err := time.Parse(TimeFormat, created)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	rec.CreatedAt = t
	return &rec, nil
}

func validateCollection(name string) error {
	if !collectionRegexp.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, name)
	}
	return nil
}
