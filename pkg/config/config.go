package config

import "time"

// Config is the root configuration structure for the RSQL service.
// It contains the parser limits, custom operator definitions, document
// storage, retention rules, HTTP server and telemetry settings.
type Config struct {
	// Parser contains limits applied to every parsed query.
	Parser ParserConfig `yaml:"parser"`

	// Operators lists custom comparison operators registered on top of
	// the default RSQL/FIQL set. A later definition replaces an earlier
	// one sharing any of its symbols.
	Operators []OperatorConfig `yaml:"operators"`

	// Storage contains the SQLite document store configuration.
	Storage StorageConfig `yaml:"storage"`

	// Retention contains scheduled, filter-driven pruning rules.
	Retention RetentionConfig `yaml:"retention"`

	// Server contains HTTP API configuration.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains configuration for logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ParserConfig contains parser limits.
type ParserConfig struct {
	// MaxLength is the maximum accepted query length in bytes.
	// A negative value disables the limit.
	// Default: 65536
	MaxLength int `yaml:"max_length"`

	// MaxDepth is the maximum nesting depth of parenthesised groups and
	// nested operators. A negative value disables the limit.
	// Default: 64
	MaxDepth int `yaml:"max_depth"`

	// DisableDefaultOperators removes the built-in operator set so that
	// only the operators listed in Operators are recognised.
	// Default: false
	DisableDefaultOperators bool `yaml:"disable_default_operators"`
}

// OperatorConfig defines one comparison operator.
//
// Example:
//
//	operators:
//	  - symbols: ["=between="]
//	    type: valued
//	    min: 2
//	    max: 2
//	  - symbols: ["=any="]
//	    type: nested
type OperatorConfig struct {
	// Symbols lists the primary symbol followed by its aliases.
	Symbols []string `yaml:"symbols"`

	// Type is one of "valued", "nullary" or "nested".
	// Default: "valued"
	Type string `yaml:"type"`

	// Min is the minimum argument count of a valued operator.
	// Default: 1
	Min int `yaml:"min"`

	// Max is the maximum argument count of a valued operator.
	// -1 means unbounded; 0 means equal to Min.
	Max int `yaml:"max"`
}

// StorageConfig contains document store configuration.
type StorageConfig struct {
	// Driver selects the database/sql driver.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the file path for the SQLite database. ":memory:" keeps the
	// store in memory.
	// Default: "data/rsql.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// DefaultLimit is the number of records returned by a query that does
	// not specify a limit.
	// Default: 100
	DefaultLimit int `yaml:"default_limit"`

	// MaxLimit caps the limit a query may request.
	// Default: 10000
	MaxLimit int `yaml:"max_limit"`
}

// RetentionConfig contains retention configuration.
type RetentionConfig struct {
	// Enabled turns on the retention scheduler.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Schedule is a cron expression for scheduling pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	Schedule string `yaml:"schedule"`

	// Rules lists the pruning rules evaluated on every run.
	Rules []RetentionRule `yaml:"rules"`
}

// RetentionRule deletes the records of a collection that match Filter and
// are older than MaxAge. At least one of Filter and MaxAge must be set.
type RetentionRule struct {
	// Name identifies the rule in logs and metrics.
	Name string `yaml:"name"`

	// Collection is the collection the rule applies to.
	Collection string `yaml:"collection"`

	// Filter is an RSQL query selecting the records to delete.
	Filter string `yaml:"filter"`

	// MaxAge restricts deletion to records created more than MaxAge ago.
	MaxAge time.Duration `yaml:"max_age"`
}

// ServerConfig contains configuration for the HTTP API server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request when
	// keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes caps the size of a request body.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// TLS configures HTTPS.
	TLS TLSConfig `yaml:"tls"`

	// Auth restricts the API to clients presenting a known API key.
	Auth AuthConfig `yaml:"auth"`

	// RateLimit throttles each client address.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// TLSConfig contains HTTPS configuration for the API server.
type TLSConfig struct {
	// Enabled serves HTTPS instead of HTTP.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// CertFile is the path to the PEM-encoded certificate chain.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded private key.
	KeyFile string `yaml:"key_file"`

	// MinVersion is the minimum TLS version to accept.
	// Options: "1.2", "1.3"
	// Default: "1.3"
	MinVersion string `yaml:"min_version"`

	// ClientCAFile enables mutual TLS: clients must present a certificate
	// signed by one of these CAs.
	ClientCAFile string `yaml:"client_ca_file"`
}

// AuthConfig contains API key authentication configuration.
//
// Example:
//
//	auth:
//	  enabled: true
//	  read_only: true
//	  api_keys:
//	    - name: ingest
//	      key: ${INGEST_KEY}
type AuthConfig struct {
	// Enabled requires an API key on the /v1 routes.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ReadOnly leaves GET routes open and only protects routes that
	// modify records.
	// Default: false
	ReadOnly bool `yaml:"read_only"`

	// Header is the header carrying the key. "Authorization" expects the
	// Bearer scheme.
	// Default: "Authorization"
	Header string `yaml:"header"`

	// APIKeys lists the accepted keys.
	APIKeys []APIKeyConfig `yaml:"api_keys"`
}

// APIKeyConfig is one accepted API key.
type APIKeyConfig struct {
	// Name identifies the client in logs.
	Name string `yaml:"name"`

	// Key is the secret value. Values of the form ${VAR} are read from
	// the environment.
	Key string `yaml:"key"`

	// Disabled rejects the key without removing it.
	Disabled bool `yaml:"disabled"`
}

// RateLimitConfig contains per-client request throttling configuration.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained request rate of one client
	// address. Zero disables rate limiting.
	// Default: 0
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the number of requests a client may make at once.
	// Default: twice RequestsPerSecond, at least 1
	Burst int `yaml:"burst"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	Health  HealthConfig  `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactArguments masks argument literals of logged queries.
	// Default: false
	RedactArguments bool `yaml:"redact_arguments"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "rsql"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: ""
	Subsystem string `yaml:"subsystem"`

	// ParseDurationBuckets defines histogram buckets for parse duration (seconds).
	ParseDurationBuckets []float64 `yaml:"parse_duration_buckets"`

	// QueryDurationBuckets defines histogram buckets for store operation
	// duration (seconds).
	QueryDurationBuckets []float64 `yaml:"query_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy. Every strategy follows the
	// parent span's decision when there is one.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "rsql"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the OTLP connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// LivenessPath is the path for the liveness probe.
	// Default: "/health/live"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe.
	// Default: "/health/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout bounds a single readiness check.
	// Default: 2s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
