package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML configuration on top of Default and applies defaults
// to anything the document leaves unset. Unknown fields are rejected.
// Parse does not validate.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention RSQL_SECTION_FIELD (e.g., RSQL_SERVER_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// DefaultWithEnvOverrides returns the default configuration with
// environment variable overrides applied, for running without a file.
func DefaultWithEnvOverrides() (*Config, error) {
	cfg := Default()
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed numeric, boolean and duration values are ignored.
func applyEnvOverrides(cfg *Config) {
	// Parser overrides
	envInt("RSQL_PARSER_MAX_LENGTH", &cfg.Parser.MaxLength)
	envInt("RSQL_PARSER_MAX_DEPTH", &cfg.Parser.MaxDepth)
	envBool("RSQL_PARSER_DISABLE_DEFAULT_OPERATORS", &cfg.Parser.DisableDefaultOperators)

	// Storage overrides
	envString("RSQL_STORAGE_DRIVER", &cfg.Storage.Driver)
	envString("RSQL_STORAGE_PATH", &cfg.Storage.Path)
	envInt("RSQL_STORAGE_MAX_OPEN_CONNS", &cfg.Storage.MaxOpenConns)
	envInt("RSQL_STORAGE_MAX_IDLE_CONNS", &cfg.Storage.MaxIdleConns)
	envBool("RSQL_STORAGE_WAL_MODE", &cfg.Storage.WALMode)
	envDuration("RSQL_STORAGE_BUSY_TIMEOUT", &cfg.Storage.BusyTimeout)
	envInt("RSQL_STORAGE_DEFAULT_LIMIT", &cfg.Storage.DefaultLimit)
	envInt("RSQL_STORAGE_MAX_LIMIT", &cfg.Storage.MaxLimit)

	// Retention overrides
	envBool("RSQL_RETENTION_ENABLED", &cfg.Retention.Enabled)
	envString("RSQL_RETENTION_SCHEDULE", &cfg.Retention.Schedule)

	// Server overrides
	envString("RSQL_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("RSQL_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("RSQL_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("RSQL_SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	envDuration("RSQL_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	if val := os.Getenv("RSQL_SERVER_MAX_BODY_BYTES"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Server.MaxBodyBytes = i
		}
	}

	envBool("RSQL_SERVER_TLS_ENABLED", &cfg.Server.TLS.Enabled)
	envString("RSQL_SERVER_TLS_CERT_FILE", &cfg.Server.TLS.CertFile)
	envString("RSQL_SERVER_TLS_KEY_FILE", &cfg.Server.TLS.KeyFile)
	envBool("RSQL_SERVER_AUTH_ENABLED", &cfg.Server.Auth.Enabled)
	if val := os.Getenv("RSQL_SERVER_RATE_LIMIT_REQUESTS_PER_SECOND"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Server.RateLimit.RequestsPerSecond = f
		}
	}
	envInt("RSQL_SERVER_RATE_LIMIT_BURST", &cfg.Server.RateLimit.Burst)

	// Telemetry overrides
	envString("RSQL_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("RSQL_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("RSQL_TELEMETRY_LOGGING_REDACT_ARGUMENTS", &cfg.Telemetry.Logging.RedactArguments)
	envBool("RSQL_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("RSQL_TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("RSQL_TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("RSQL_TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envString("RSQL_TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	if val := os.Getenv("RSQL_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
	envBool("RSQL_TELEMETRY_TRACING_INSECURE", &cfg.Telemetry.Tracing.Insecure)
}

func envString(name string, dst *string) {
	if val := os.Getenv(name); val != "" {
		*dst = val
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
