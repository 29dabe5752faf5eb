package main

import (
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/rsql/pkg/cli"
	"mercator-hq/rsql/pkg/config"
	"mercator-hq/rsql/pkg/rsql/ast"
)

var operatorsCmd = &cobra.Command{
	Use:   "operators",
	Short: "List the configured comparison operators",
	Args:  cobra.NoArgs,
	RunE:  runOperators,
}

func init() {
	rootCmd.AddCommand(operatorsCmd)
}

func runOperators(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registry, err := config.BuildRegistry(cfg)
	if err != nil {
		return err
	}
	f, err := newFormatter()
	if err != nil {
		return err
	}

	table := &cli.Table{Headers: []string{"symbols", "type", "arguments"}}
	for _, op := range registry.Operators() {
		arity := "-"
		if a, ok := op.Arity(); ok {
			arity = a.String()
		} else if op.Type().Kind() == ast.KindNested {
			arity = "query"
		}
		table.Append(strings.Join(op.Symbols(), " "), op.Type().Kind().String(), arity)
	}
	return f.FormatTo(cmd.OutOrStdout(), table)
}
