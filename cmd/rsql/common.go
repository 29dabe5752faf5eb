package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/rsql/pkg/cli"
	"mercator-hq/rsql/pkg/config"
	"mercator-hq/rsql/pkg/rsql/operators"
	"mercator-hq/rsql/pkg/store"
	"mercator-hq/rsql/pkg/telemetry/logging"
)

// loadConfig loads --config, or the defaults when no file is given, and
// applies the --db override.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if cfgFile == "" {
		cfg, err = config.DefaultWithEnvOverrides()
	} else {
		cfg, err = config.LoadConfigWithEnvOverrides(cfgFile)
	}
	if err != nil {
		return nil, cli.NewConfigError("config", err.Error())
	}

	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	return cfg, nil
}

// setupLogging installs the configured logger as the slog default. Logs go
// to stderr. Commands other than serve only log warnings unless --verbose
// is set.
func setupLogging(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level := cfg.Telemetry.Logging.Level
	switch {
	case verbose:
		level = "debug"
	case cmd.Name() != serveCmd.Name():
		level = "warn"
	}

	logger, err := logging.New(logging.Config{
		Level:           level,
		Format:          cfg.Telemetry.Logging.Format,
		AddSource:       cfg.Telemetry.Logging.AddSource,
		RedactArguments: cfg.Telemetry.Logging.RedactArguments,
		Writer:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	logger.SetDefault()
	return nil
}

func newFormatter() (cli.Formatter, error) {
	format, err := cli.ParseOutputFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return cli.NewFormatter(format), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// readInput reads path, or standard input when path is empty or "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// queryArg returns args[i], or standard input with surrounding space
// removed when there is no such argument.
func queryArg(cmd *cobra.Command, args []string, i int) (string, error) {
	if len(args) > i {
		return args[i], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// decodeDocuments accepts a JSON array of objects or a stream of objects
// such as newline-delimited JSON.
func decodeDocuments(data []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var docs []map[string]any
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, fmt.Errorf("invalid JSON array: %w", err)
		}
		return docs, nil
	}

	var docs []map[string]any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	for {
		var doc map[string]any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", len(docs)+1, err)
		}
		docs = append(docs, doc)
	}
}

// openStore opens the configured store, creating its directory.
func openStore(cfg *config.Config, registry *operators.Registry, opts ...store.Option) (*store.Store, error) {
	if path := cfg.Storage.Path; path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	return store.Open(&cfg.Storage, append([]store.Option{store.WithRegistry(registry)}, opts...)...)
}
