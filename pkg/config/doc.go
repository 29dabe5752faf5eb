// Package config provides configuration management for the RSQL service.
//
// This package handles loading, validating, and watching configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("rsql.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("rsql.yaml")
//
// Environment variables follow the naming convention RSQL_SECTION_FIELD,
// e.g. RSQL_SERVER_LISTEN_ADDRESS or RSQL_TELEMETRY_LOGGING_LEVEL, and
// always take precedence over the file.
//
// # Operators
//
// Custom comparison operators are declared in the operators section and
// compiled with BuildRegistry. NewParser returns a parser that uses them
// together with the configured limits:
//
//	operators:
//	  - symbols: ["=between=", "=bt="]
//	    min: 2
//	    max: 2
//	  - symbols: ["=all="]
//	    max: -1
//	  - symbols: ["=any="]
//	    type: nested
//
// # Validation
//
// Validate collects every problem into a ValidationError. Retention rule
// filters are parsed with the configured operators, so a typo in a filter
// fails at load time instead of at the first scheduled run:
//
//	configuration validation failed with 2 errors:
//	  - storage.driver: invalid driver "pg": must be 'sqlite' or 'sqlite3'
//	  - retention.rules[0].filter: 1:7: unknown operator '=ol='
//
// # Hot Reload
//
// Watcher reloads the file when it changes and hands the new configuration
// to a callback; invalid files are logged and ignored.
package config
