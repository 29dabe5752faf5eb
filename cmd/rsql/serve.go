package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"mercator-hq/rsql/pkg/cli"
	"mercator-hq/rsql/pkg/config"
	"mercator-hq/rsql/pkg/engine"
	"mercator-hq/rsql/pkg/server"
	"mercator-hq/rsql/pkg/store"
	"mercator-hq/rsql/pkg/store/retention"
	"mercator-hq/rsql/pkg/telemetry/health"
	"mercator-hq/rsql/pkg/telemetry/metrics"
	"mercator-hq/rsql/pkg/telemetry/tracing"
)

// canaryQuery is parsed by the readiness probe.
const canaryQuery = "id=notnull="

var serveFlags struct {
	listenAddress string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the RSQL HTTP API",
	Long: `Start the HTTP API serving the document store.

Routes:
  GET    /v1/parse?filter=...                       parse and describe a query
  GET    /v1/operators                              list the active operators
  GET    /v1/collections                            list collections
  GET    /v1/collections/{name}/records?filter=...  query records
  POST   /v1/collections/{name}/records             insert a document or an array
  DELETE /v1/collections/{name}/records?filter=...  delete matching records
  GET    /v1/collections/{name}/records/{id}        fetch one record
  GET    /v1/collections/{name}/count?filter=...    count matching records

Health probes, /version and the Prometheus endpoint are served as
configured under telemetry. When --config names a file, changes to its
operators and parser limits are applied without a restart.`,
	Example: `  # Start with defaults (data/rsql.db, 127.0.0.1:8080)
  rsql serve

  # Start with a config file and a different address
  rsql serve --config /etc/rsql/rsql.yaml --listen 0.0.0.0:8080

  # Validate config without starting the server
  rsql serve --config rsql.yaml --dry-run`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting server")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", err.Error())
	}

	out := cmd.OutOrStdout()
	if serveFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, registry)

	// Tracing
	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(Version))
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	eng, err := engine.FromConfig(cfg, engine.WithMetrics(collector), engine.WithTracer(tracer))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Parser ready (%d operators)\n", eng.Registry().Len())

	st, err := openStore(cfg, eng.Registry(), store.WithMetrics(collector), store.WithTracer(tracer))
	if err != nil {
		return err
	}
	defer st.Close()
	fmt.Fprintf(out, "✓ Document store opened (%s)\n", cfg.Storage.Path)

	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
	checker.RegisterCheck("store", health.PingCheck(st))
	checker.RegisterCheck("parser", health.ParserCheck(eng.Validate, canaryQuery))

	if cfg.Retention.Enabled && len(cfg.Retention.Rules) > 0 {
		pruner, err := retention.NewPruner(st, cfg.Retention.Rules, eng.Parser(),
			retention.WithMetrics(collector), retention.WithTracer(tracer))
		if err != nil {
			return err
		}
		scheduler := retention.NewScheduler(pruner, cfg.Retention.Schedule)
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		defer scheduler.Stop()
		fmt.Fprintf(out, "✓ Retention scheduler started (%d rules, %s)\n", len(cfg.Retention.Rules), cfg.Retention.Schedule)
	}

	if cfgFile != "" {
		watcher, err := config.NewWatcher(cfgFile, 0, slog.Default())
		if err != nil {
			return err
		}
		defer watcher.Stop()
		go func() {
			err := watcher.Watch(ctx, func(next *config.Config) error {
				if err := eng.ReloadConfig(next); err != nil {
					return err
				}
				st.SetRegistry(eng.Registry())
				return nil
			})
			if err != nil {
				slog.Error("config watcher failed", "error", err)
			}
		}()
	}

	srv := server.NewServer(cfg, eng, st,
		server.WithMetrics(collector),
		server.WithTracer(tracer),
		server.WithHealth(checker),
		server.WithVersion(Version, GitCommit, BuildDate),
	)
	fmt.Fprintf(out, "✓ Listening on %s\n", cfg.Server.ListenAddress)

	if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
