package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"mercator-hq/rsql/pkg/engine"
	"mercator-hq/rsql/pkg/rsql/predicate"
)

var filterCmd = &cobra.Command{
	Use:   "filter QUERY [FILE]",
	Short: "Filter JSON documents in memory",
	Long: `Print the documents of FILE that match QUERY. FILE holds a JSON array of
objects or newline-delimited JSON objects; standard input is read when it
is omitted.

Text output prints one matching document per line. JSON output prints an
array.`,
	Example: `  rsql filter 'year=lt=1990;genre==drama' movies.json
  cat events.ndjson | rsql filter 'level=in=(warn,error)'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFilter,
}

func init() {
	rootCmd.AddCommand(filterCmd)
}

func runFilter(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := engine.FromConfig(cfg)
	if err != nil {
		return err
	}

	node, err := eng.Parse(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	match, err := predicate.Compile(node)
	if err != nil {
		return err
	}

	var path string
	if len(args) > 1 {
		path = args[1]
	}
	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}
	docs, err := decodeDocuments(data)
	if err != nil {
		return err
	}

	matched := predicate.Filter(docs, match)

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		f, err := newFormatter()
		if err != nil {
			return err
		}
		if matched == nil {
			matched = []predicate.Record{}
		}
		return f.FormatTo(out, matched)
	}

	enc := json.NewEncoder(out)
	for _, doc := range matched {
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}
	return nil
}
