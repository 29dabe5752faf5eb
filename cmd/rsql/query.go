package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mercator-hq/rsql/pkg/cli"
	"mercator-hq/rsql/pkg/config"
	"mercator-hq/rsql/pkg/engine"
	"mercator-hq/rsql/pkg/rsql/ast"
	"mercator-hq/rsql/pkg/store"
)

var queryFlags struct {
	limit int
	count bool
}

var queryCmd = &cobra.Command{
	Use:   "query COLLECTION [QUERY]",
	Short: "Query records in the document store",
	Long: `Print the records of COLLECTION matching QUERY, oldest first. Without a
query every record is returned, up to the limit.

Selectors address fields of the stored JSON documents with dots
(director.name). The selectors id and created_at address the record
metadata.`,
	Example: `  rsql query movies 'year=ge=2000;genre=in=(sci-fi,action)'
  rsql query movies --count 'director.name==Tarantino'
  rsql query movies -o json --limit 10`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runQuery,
}

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List the collections in the document store",
	Args:  cobra.NoArgs,
	RunE:  runCollections,
}

func init() {
	queryCmd.Flags().IntVar(&queryFlags.limit, "limit", 0, "maximum number of records (0 uses storage.default_limit)")
	queryCmd.Flags().BoolVar(&queryFlags.count, "count", false, "print only the number of matching records")
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(collectionsCmd)
}

// storeQuery parses the optional query argument at index i. A missing or
// empty query yields a nil node, which matches every record.
func storeQuery(cmd *cobra.Command, eng *engine.Engine, args []string, i int) (ast.Node, error) {
	if len(args) <= i || args[i] == "" {
		return nil, nil
	}
	return eng.Parse(commandContext(cmd), args[i])
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := engine.FromConfig(cfg)
	if err != nil {
		return err
	}
	f, err := newFormatter()
	if err != nil {
		return err
	}

	node, err := storeQuery(cmd, eng, args, 1)
	if err != nil {
		return err
	}

	st, err := openStore(cfg, eng.Registry())
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := commandContext(cmd)
	collection := args[0]

	if queryFlags.count {
		n, err := st.Count(ctx, collection, node)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	}

	records, err := st.Find(ctx, collection, node, queryFlags.limit)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		if records == nil {
			records = []*store.Record{}
		}
		return f.FormatTo(cmd.OutOrStdout(), records)
	}

	table := &cli.Table{Headers: []string{"id", "created_at", "data"}}
	for _, rec := range records {
		data, err := json.Marshal(rec.Data)
		if err != nil {
			return err
		}
		table.Append(rec.ID, rec.CreatedAt.Format(store.TimeFormat), string(data))
	}
	return f.FormatTo(cmd.OutOrStdout(), table)
}

func runCollections(cmd *cobra.Command, args []string) error {
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

	st, err := openStore(cfg, registry)
	if err != nil {
		return err
	}
	defer st.Close()

	infos, err := st.Collections(commandContext(cmd))
	if err != nil {
		return err
	}

	table := &cli.Table{Headers: []string{"name", "records", "oldest", "newest"}}
	for _, info := range infos {
		table.Append(info.Name, strconv.FormatInt(info.Count, 10),
			info.Oldest.Format(store.TimeFormat), info.Newest.Format(store.TimeFormat))
	}
	return f.FormatTo(cmd.OutOrStdout(), table)
}
