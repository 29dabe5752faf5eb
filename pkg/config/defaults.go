package config

import (
	"os"
	"strings"
	"time"
)

// Default values for configuration fields.
const (
	// Parser defaults
	DefaultParserMaxLength = 64 * 1024
	DefaultParserMaxDepth  = 64

	// Operator defaults
	DefaultOperatorType = OperatorTypeValued
	DefaultOperatorMin  = 1

	// Storage defaults
	DefaultStorageDriver       = "sqlite"
	DefaultStoragePath         = "data/rsql.db"
	DefaultStorageMaxOpenConns = 10
	DefaultStorageMaxIdleConns = 5
	DefaultStorageWALMode      = true
	DefaultStorageBusyTimeout  = 5 * time.Second
	DefaultStorageDefaultLimit = 100
	DefaultStorageMaxLimit     = 10000

	// Retention defaults
	DefaultRetentionSchedule = "0 3 * * *"

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxBodyBytes    = int64(1048576) // 1MB
	DefaultTLSMinVersion   = "1.3"
	DefaultAuthHeader      = "Authorization"

	// Telemetry defaults
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "json"
	DefaultMetricsEnabled      = true
	DefaultMetricsPath         = "/metrics"
	DefaultMetricsNamespace    = "rsql"
	DefaultTracingSampler      = "ratio"
	DefaultTracingSampleRatio  = 0.1
	DefaultTracingEndpoint     = "localhost:4317"
	DefaultTracingServiceName  = "rsql"
	DefaultTracingTimeout      = 10 * time.Second
	DefaultHealthLivenessPath  = "/health/live"
	DefaultHealthReadinessPath = "/health/ready"
	DefaultHealthCheckTimeout  = 2 * time.Second
)

// DefaultParseDurationBuckets are histogram buckets for parse duration in
// seconds. Parsing is CPU bound and typically completes in microseconds.
var DefaultParseDurationBuckets = []float64{
	0.00001, 0.000025, 0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.005, 0.01,
}

// DefaultQueryDurationBuckets are histogram buckets for store operation
// duration in seconds.
var DefaultQueryDurationBuckets = []float64{
	0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5,
}

// Default returns a configuration with every field set to its default.
// Boolean fields whose default is true are only set here, so files are
// decoded on top of Default rather than into a zero Config.
func Default() *Config {
	cfg := &Config{
		Storage: StorageConfig{WALMode: DefaultStorageWALMode},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in default values for any zero-valued configuration
// fields. Negative parser limits are kept and mean "no limit".
func ApplyDefaults(cfg *Config) {
	// Parser defaults
	if cfg.Parser.MaxLength == 0 {
		cfg.Parser.MaxLength = DefaultParserMaxLength
	}
	if cfg.Parser.MaxDepth == 0 {
		cfg.Parser.MaxDepth = DefaultParserMaxDepth
	}

	// Operator defaults - applied to each definition
	for i := range cfg.Operators {
		op := &cfg.Operators[i]
		if op.Type == "" {
			op.Type = DefaultOperatorType
		}
		if op.Type == OperatorTypeValued && op.Min == 0 {
			op.Min = DefaultOperatorMin
		}
	}

	// Storage defaults
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DefaultStorageDriver
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.Storage.MaxOpenConns == 0 {
		cfg.Storage.MaxOpenConns = DefaultStorageMaxOpenConns
	}
	if cfg.Storage.MaxIdleConns == 0 {
		cfg.Storage.MaxIdleConns = DefaultStorageMaxIdleConns
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = DefaultStorageBusyTimeout
	}
	if cfg.Storage.DefaultLimit == 0 {
		cfg.Storage.DefaultLimit = DefaultStorageDefaultLimit
	}
	if cfg.Storage.MaxLimit == 0 {
		cfg.Storage.MaxLimit = DefaultStorageMaxLimit
	}

	// Retention defaults
	if cfg.Retention.Schedule == "" {
		cfg.Retention.Schedule = DefaultRetentionSchedule
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.TLS.MinVersion == "" {
		cfg.Server.TLS.MinVersion = DefaultTLSMinVersion
	}
	if cfg.Server.Auth.Header == "" {
		cfg.Server.Auth.Header = DefaultAuthHeader
	}
	for i := range cfg.Server.Auth.APIKeys {
		cfg.Server.Auth.APIKeys[i].Key = expandEnv(cfg.Server.Auth.APIKeys[i].Key)
	}
	if rl := &cfg.Server.RateLimit; rl.RequestsPerSecond > 0 && rl.Burst == 0 {
		rl.Burst = max(int(2*rl.RequestsPerSecond), 1)
	}

	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLogLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLogFormat
	}

	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(t.Metrics.ParseDurationBuckets) == 0 {
		t.Metrics.ParseDurationBuckets = append([]float64(nil), DefaultParseDurationBuckets...)
	}
	if len(t.Metrics.QueryDurationBuckets) == 0 {
		t.Metrics.QueryDurationBuckets = append([]float64(nil), DefaultQueryDurationBuckets...)
	}

	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultTracingSampler
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if t.Tracing.Endpoint == "" {
		t.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingServiceName
	}
	if t.Tracing.Timeout == 0 {
		t.Tracing.Timeout = DefaultTracingTimeout
	}

	if t.Health.LivenessPath == "" {
		t.Health.LivenessPath = DefaultHealthLivenessPath
	}
	if t.Health.ReadinessPath == "" {
		t.Health.ReadinessPath = DefaultHealthReadinessPath
	}
	if t.Health.CheckTimeout == 0 {
		t.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}

// expandEnv resolves a value of the form ${VAR} from the environment.
// Other values are returned unchanged.
func expandEnv(v string) string {
	if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
		return os.Getenv(v[2 : len(v)-1])
	}
	return v
}
