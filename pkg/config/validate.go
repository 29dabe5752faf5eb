package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateOperators(cfg)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	// Retention filters are parsed with the configured operators, which
	// is only meaningful once the operators themselves are valid.
	if len(errs) == 0 {
		errs = append(errs, validateRetention(cfg)...)
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateOperators(cfg *Config) []FieldError {
	var errs []FieldError

	for i, def := range cfg.Operators {
		field := fmt.Sprintf("operators[%d]", i)
		if _, err := def.Operator(); err != nil {
			errs = append(errs, FieldError{Field: field, Message: err.Error()})
		}
	}

	if cfg.Parser.DisableDefaultOperators && len(cfg.Operators) == 0 {
		errs = append(errs, FieldError{
			Field:   "parser.disable_default_operators",
			Message: "at least one operator must be defined when default operators are disabled",
		})
	}

	return errs
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	validDrivers := map[string]bool{"sqlite": true, "sqlite3": true}
	if !validDrivers[cfg.Driver] {
		errs = append(errs, FieldError{
			Field:   "storage.driver",
			Message: fmt.Sprintf("invalid driver %q: must be 'sqlite' or 'sqlite3'", cfg.Driver),
		})
	}
	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "storage.path",
			Message: "storage path is required",
		})
	}
	if cfg.MaxOpenConns < 1 {
		errs = append(errs, FieldError{
			Field:   "storage.max_open_conns",
			Message: "max open connections must be at least 1",
		})
	}
	if cfg.MaxIdleConns < 0 || cfg.MaxIdleConns > cfg.MaxOpenConns {
		errs = append(errs, FieldError{
			Field:   "storage.max_idle_conns",
			Message: "max idle connections must be between 0 and max_open_conns",
		})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.busy_timeout",
			Message: "busy timeout must not be negative",
		})
	}
	if cfg.DefaultLimit < 1 {
		errs = append(errs, FieldError{
			Field:   "storage.default_limit",
			Message: "default limit must be at least 1",
		})
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		errs = append(errs, FieldError{
			Field:   "storage.max_limit",
			Message: "max limit must not be less than default_limit",
		})
	}

	return errs
}

func validateRetention(cfg *Config) []FieldError {
	var errs []FieldError

	if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "retention.schedule",
			Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Retention.Schedule, err),
		})
	}

	p, err := NewParser(cfg)
	if err != nil {
		return append(errs, FieldError{Field: "operators", Message: err.Error()})
	}

	names := make(map[string]bool)
	for i, rule := range cfg.Retention.Rules {
		field := fmt.Sprintf("retention.rules[%d]", i)
		if rule.Name == "" {
			errs = append(errs, FieldError{Field: field + ".name", Message: "rule name is required"})
		} else if names[rule.Name] {
			errs = append(errs, FieldError{Field: field + ".name", Message: fmt.Sprintf("duplicate rule name %q", rule.Name)})
		}
		names[rule.Name] = true

		if rule.Collection == "" {
			errs = append(errs, FieldError{Field: field + ".collection", Message: "collection is required"})
		}
		if rule.Filter == "" && rule.MaxAge == 0 {
			errs = append(errs, FieldError{Field: field, Message: "rule needs a filter, a max_age, or both"})
		}
		if rule.MaxAge < 0 {
			errs = append(errs, FieldError{Field: field + ".max_age", Message: "max age must not be negative"})
		}
		if rule.Filter != "" {
			if _, err := p.Parse(rule.Filter); err != nil {
				errs = append(errs, FieldError{Field: field + ".filter", Message: shortError(err)})
			}
		}
	}

	return errs
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address %q: %v", cfg.ListenAddress, err),
		})
	}
	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 || cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server",
			Message: "timeouts must not be negative",
		})
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be positive",
		})
	}
	if cfg.MaxBodyBytes < 1 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must be at least 1",
		})
	}

	if tls := cfg.TLS; tls.Enabled {
		if tls.CertFile == "" || tls.KeyFile == "" {
			errs = append(errs, FieldError{
				Field:   "server.tls",
				Message: "cert_file and key_file are required when TLS is enabled",
			})
		}
		if tls.MinVersion != "1.2" && tls.MinVersion != "1.3" {
			errs = append(errs, FieldError{
				Field:   "server.tls.min_version",
				Message: fmt.Sprintf("unsupported TLS version %q (want 1.2 or 1.3)", tls.MinVersion),
			})
		}
	}

	if auth := cfg.Auth; auth.Enabled {
		active := 0
		names := make(map[string]bool)
		for i, k := range auth.APIKeys {
			field := fmt.Sprintf("server.auth.api_keys[%d]", i)
			if k.Name == "" {
				errs = append(errs, FieldError{Field: field + ".name", Message: "key name is required"})
			} else if names[k.Name] {
				errs = append(errs, FieldError{Field: field + ".name", Message: fmt.Sprintf("duplicate key name %q", k.Name)})
			}
			names[k.Name] = true
			if k.Key == "" {
				errs = append(errs, FieldError{Field: field + ".key", Message: "key must not be empty"})
			}
			if !k.Disabled {
				active++
			}
		}
		if active == 0 {
			errs = append(errs, FieldError{
				Field:   "server.auth.api_keys",
				Message: "at least one enabled API key is required when auth is enabled",
			})
		}
	}

	if rl := cfg.RateLimit; rl.RequestsPerSecond < 0 || rl.Burst < 0 {
		errs = append(errs, FieldError{
			Field:   "server.rate_limit",
			Message: "rate and burst must not be negative",
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text' or 'console'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	validSamplers := map[string]bool{"always": true, "never": true, "ratio": true}
	if !validSamplers[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never' or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}

	for _, p := range []struct{ field, path string }{
		{"telemetry.health.liveness_path", cfg.Health.LivenessPath},
		{"telemetry.health.readiness_path", cfg.Health.ReadinessPath},
	} {
		if !strings.HasPrefix(p.path, "/") {
			errs = append(errs, FieldError{Field: p.field, Message: "path must start with /"})
		}
	}
	if cfg.Health.CheckTimeout < 0 || cfg.Health.CheckTimeout > 60*time.Second {
		errs = append(errs, FieldError{
			Field:   "telemetry.health.check_timeout",
			Message: "check timeout must be between 0 and 60s",
		})
	}

	return errs
}
