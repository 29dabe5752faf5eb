package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/rsql/pkg/engine"
)

var deleteCmd = &cobra.Command{
	Use:   "delete COLLECTION QUERY",
	Short: "Delete the records matching a query",
	Long: `Delete the records of COLLECTION matching QUERY. A query is required; use
'id=notnull=' to empty a collection.`,
	Example: `  rsql delete movies 'year=lt=1950'`,
	Args:    cobra.ExactArgs(2),
	RunE:    runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := engine.FromConfig(cfg)
	if err != nil {
		return err
	}

	node, err := eng.Parse(commandContext(cmd), args[1])
	if err != nil {
		return err
	}

	st, err := openStore(cfg, eng.Registry())
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.Delete(commandContext(cmd), args[0], node)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d records from %s\n", n, args[0])
	return nil
}
