package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/rsql/pkg/config"
	"mercator-hq/rsql/pkg/engine"
	"mercator-hq/rsql/pkg/rsql/ast"
	"mercator-hq/rsql/pkg/store"
	"mercator-hq/rsql/pkg/telemetry/health"
	"mercator-hq/rsql/pkg/telemetry/metrics"
	"mercator-hq/rsql/pkg/telemetry/tracing"
)

// Store is the document store the API serves.
type Store interface {
	InsertMany(ctx context.Context, collection string, docs []map[string]any) ([]*store.Record, error)
	Get(ctx context.Context, collection, id string) (*store.Record, error)
	Find(ctx context.Context, collection string, node ast.Node, limit int) ([]*store.Record, error)
	Count(ctx context.Context, collection string, node ast.Node) (int64, error)
	Delete(ctx context.Context, collection string, node ast.Node) (int64, error)
	Collections(ctx context.Context) ([]store.CollectionInfo, error)
}

// Server is the RSQL HTTP API server.
type Server struct {
	config     *config.Config
	engine     *engine.Engine
	store      Store
	metrics    *metrics.Collector
	tracer     *tracing.Tracer
	health     *health.Checker
	version    health.VersionInfo
	auth       *Authenticator
	limiter    *RateLimiter
	logger     *slog.Logger
	httpServer *http.Server

	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics instruments every route and serves /metrics.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

// WithTracer creates a span for every request.
func WithTracer(t *tracing.Tracer) Option {
	return func(s *Server) { s.tracer = t }
}

// WithHealth serves the liveness and readiness probes of c.
func WithHealth(c *health.Checker) Option {
	return func(s *Server) { s.health = c }
}

// WithVersion sets the build information served on /version.
func WithVersion(version, commit, buildTime string) Option {
	return func(s *Server) {
		s.version = health.VersionInfo{Version: version, Commit: commit, BuildTime: buildTime}
	}
}

// NewServer creates a server for eng and st.
func NewServer(cfg *config.Config, eng *engine.Engine, st Store, opts ...Option) *Server {
	s := &Server{
		config:  cfg,
		engine:  eng,
		store:   st,
		tracer:  tracing.Noop(),
		version: health.VersionInfo{Version: "dev"},
		auth:    NewAuthenticator(cfg.Server.Auth),
		limiter: NewRateLimiter(cfg.Server.RateLimit),
		logger:  slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.health == nil {
		s.health = health.New(cfg.Telemetry.Health.CheckTimeout)
	}
	return s
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "GET /v1/parse", "/v1/parse", s.handleParse)
	s.route(mux, "GET /v1/operators", "/v1/operators", s.handleOperators)
	s.route(mux, "GET /v1/collections", "/v1/collections", s.handleCollections)
	s.route(mux, "GET /v1/collections/{name}/records", "/v1/collections/{name}/records", s.handleFind)
	s.route(mux, "POST /v1/collections/{name}/records", "/v1/collections/{name}/records", s.handleInsert)
	s.route(mux, "DELETE /v1/collections/{name}/records", "/v1/collections/{name}/records", s.handleDelete)
	s.route(mux, "GET /v1/collections/{name}/records/{id}", "/v1/collections/{name}/records/{id}", s.handleGet)
	s.route(mux, "GET /v1/collections/{name}/count", "/v1/collections/{name}/count", s.handleCount)

	hc := s.config.Telemetry.Health
	mux.Handle(hc.LivenessPath, s.health.LivenessHandler())
	mux.Handle(hc.ReadinessPath, s.health.ReadinessHandler())
	mux.Handle("/version", health.VersionHandler(s.version.Version, s.version.Commit, s.version.BuildTime))

	if s.metrics != nil && s.config.Telemetry.Metrics.Enabled {
		mux.Handle("GET "+s.config.Telemetry.Metrics.Path, s.metrics.Handler())
	}

	return chain(mux,
		RequestIDMiddleware,
		RecoveryMiddleware,
		LoggingMiddleware,
		RateLimitMiddleware(s.limiter),
		BodyLimitMiddleware(s.config.Server.MaxBodyBytes),
	)
}

// route registers h under pattern. route is the low-cardinality label used
// for metrics and span names.
func (s *Server) route(mux *http.ServeMux, pattern, route string, h http.HandlerFunc) {
	var handler http.Handler = h
	handler = AuthMiddleware(s.auth)(handler)
	handler = MetricsMiddleware(s.metrics, route)(handler)
	handler = s.tracer.HTTPMiddleware(route, handler)
	mux.Handle(pattern, handler)
}

// Start serves on the configured address until ctx is cancelled or
// Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled or Shutdown is called. When
// TLS is enabled, ln is wrapped in a TLS listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	tlsConfig, err := newTLSConfig(s.config.Server.TLS, s.logger)
	if err != nil {
		ln.Close()
		return fmt.Errorf("failed to configure TLS: %w", err)
	}
	if tlsConfig != nil {
		ln = tls.NewListener(ln, tlsConfig)
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		ln.Close()
		return errors.New("server is already running")
	}
	s.isRunning = true
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting rsql server",
			"address", ln.Addr().String(),
			"tls", tlsConfig != nil,
			"auth", s.auth != nil,
		)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		return err
	}
}

// Shutdown gracefully stops the server, bounded by the configured
// shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		running := s.isRunning
		s.mu.Unlock()
		if !running {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("rsql server stopped")
	})

	return shutdownErr
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
