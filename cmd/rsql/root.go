package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/rsql/pkg/cli"
)

var (
	// Global flags
	cfgFile      string
	dbPath       string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "rsql",
	Short: "RSQL - parse and evaluate RSQL/FIQL filter expressions",
	Long: `rsql parses RSQL filter expressions such as

  name=="Kill Bill";year=gt=2003
  genre=in=(sci-fi,action),director=null=

and evaluates them against JSON documents, either in memory or in a SQLite
document store that can be served over HTTP.

Custom operators, parser limits, storage and telemetry are configured in a
YAML file passed with --config. Without one, defaults and RSQL_* environment
variables apply.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd)
	},
}

// Execute runs the root command and exits with the status of cli.ExitCode.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "override storage path")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json, csv")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
