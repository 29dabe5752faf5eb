package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mercator-hq/rsql/pkg/cli"
	"mercator-hq/rsql/pkg/config"
	"mercator-hq/rsql/pkg/rsql/ast"
	"mercator-hq/rsql/pkg/store"
	"mercator-hq/rsql/pkg/store/retention"
)

var pruneFlags struct {
	dryRun bool
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply the retention rules once",
	Long: `Run every configured retention rule once and print how many records each
rule deleted. With --dry-run the matching records are counted but kept.

Rules run even when retention.enabled is false; enabled only controls the
scheduler started by serve.`,
	Example: `  rsql prune --config rsql.yaml
  rsql prune --dry-run -o json`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func init() {
	pruneCmd.Flags().BoolVar(&pruneFlags.dryRun, "dry-run", false, "count matching records without deleting them")
	rootCmd.AddCommand(pruneCmd)
}

// countOnly reports the records a rule would delete.
type countOnly struct {
	store *store.Store
}

func (c countOnly) Delete(ctx context.Context, collection string, node ast.Node) (int64, error) {
	return c.store.Count(ctx, collection, node)
}

func runPrune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Retention.Rules) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no retention rules configured")
		return nil
	}
	p, err := config.NewParser(cfg)
	if err != nil {
		return err
	}
	f, err := newFormatter()
	if err != nil {
		return err
	}

	st, err := openStore(cfg, p.Registry())
	if err != nil {
		return err
	}
	defer st.Close()

	var deleter retention.Deleter = st
	if pruneFlags.dryRun {
		deleter = countOnly{store: st}
	}
	pruner, err := retention.NewPruner(deleter, cfg.Retention.Rules, p)
	if err != nil {
		return err
	}

	results, pruneErr := pruner.Prune(commandContext(cmd))

	header := "deleted"
	if pruneFlags.dryRun {
		header = "matching"
	}
	table := &cli.Table{Headers: []string{"rule", header, "error"}}
	for _, r := range results {
		msg := ""
		if r.Error != nil {
			msg = r.Error.Error()
		}
		table.Append(r.Rule, strconv.FormatInt(r.Deleted, 10), msg)
	}
	if err := f.FormatTo(cmd.OutOrStdout(), table); err != nil {
		return err
	}
	if pruneErr != nil {
		return cli.NewCommandError("prune", pruneErr)
	}
	return nil
}
