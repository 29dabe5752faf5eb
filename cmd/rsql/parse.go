package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/rsql/pkg/engine"
	"mercator-hq/rsql/pkg/rsql/ast"
	"mercator-hq/rsql/pkg/store"
)

var parseFlags struct {
	sql bool
}

var parseCmd = &cobra.Command{
	Use:   "parse [QUERY]",
	Short: "Parse a query and print its canonical form",
	Long: `Parse an RSQL query with the configured operators and limits and print
its canonical form and selectors. The query is read from standard input
when it is not given as an argument.

With --sql the query is also rendered as the WHERE clause the document
store runs for it.

Exit codes:
  0 - Query is valid
  1 - Command failed
  2 - Query is invalid`,
	Example: `  rsql parse 'name=="Kill Bill";year=gt=2003'
  rsql parse --sql 'genre=in=(sci-fi,action)'
  echo 'director.name==Nolan' | rsql parse -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseFlags.sql, "sql", false, "render the query as a SQL WHERE clause")
	rootCmd.AddCommand(parseCmd)
}

type parseOutput struct {
	Query     string          `json:"query"`
	Canonical string          `json:"canonical"`
	Selectors []string        `json:"selectors"`
	AST       json.RawMessage `json:"ast"`
	SQL       string          `json:"sql,omitempty"`
	Args      []any           `json:"args,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) error {
	query, err := queryArg(cmd, args, 0)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := engine.FromConfig(cfg)
	if err != nil {
		return err
	}

	node, err := eng.Parse(commandContext(cmd), query)
	if err != nil {
		return err
	}

	tree, err := json.Marshal(node)
	if err != nil {
		return err
	}
	result := parseOutput{
		Query:     query,
		Canonical: node.String(),
		Selectors: ast.Selectors(node),
		AST:       tree,
	}
	if parseFlags.sql {
		where, err := store.NewFilterBuilder(eng.Registry()).Build(node)
		if err != nil {
			return err
		}
		result.SQL = where.SQL
		result.Args = where.Args
	}

	if outputFormat == "json" {
		f, err := newFormatter()
		if err != nil {
			return err
		}
		return f.FormatTo(cmd.OutOrStdout(), result)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, result.Canonical)
	fmt.Fprintf(out, "selectors: %s\n", strings.Join(result.Selectors, ", "))
	if parseFlags.sql {
		fmt.Fprintf(out, "sql: %s\n", result.SQL)
		fmt.Fprintf(out, "args: %v\n", result.Args)
	}
	return nil
}
