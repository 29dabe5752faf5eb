package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/rsql/pkg/cli"
	"mercator-hq/rsql/pkg/config"
)

var importFlags struct {
	batchSize int
	quiet     bool
}

var importCmd = &cobra.Command{
	Use:   "import COLLECTION [FILE]",
	Short: "Import JSON documents into the document store",
	Long: `Insert the documents of FILE into COLLECTION. FILE holds a JSON array of
objects or newline-delimited JSON objects; standard input is read when it
is omitted.

Documents are inserted in batches, each batch in one transaction. A failed
batch stops the import; earlier batches stay committed.`,
	Example: `  rsql import movies movies.json
  rsql import events --batch-size 5000 events.ndjson`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runImport,
}

func init() {
	importCmd.Flags().IntVar(&importFlags.batchSize, "batch-size", 500, "documents per transaction")
	importCmd.Flags().BoolVarP(&importFlags.quiet, "quiet", "q", false, "do not show progress")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if importFlags.batchSize <= 0 {
		return cli.NewConfigError("batch-size", "must be positive")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registry, err := config.BuildRegistry(cfg)
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

	st, err := openStore(cfg, registry)
	if err != nil {
		return err
	}
	defer st.Close()

	var progress cli.ProgressReporter = noProgress{}
	if !importFlags.quiet {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr())
	}

	ctx := commandContext(cmd)
	collection := args[0]
	total := int64(len(docs))
	progress.Start(total)

	var imported int64
	for start := 0; start < len(docs); start += importFlags.batchSize {
		end := min(start+importFlags.batchSize, len(docs))
		if _, err := st.InsertMany(ctx, collection, docs[start:end]); err != nil {
			progress.Error(err)
			return cli.NewCommandError("import", err)
		}
		imported += int64(end - start)
		progress.Update(imported)
	}
	progress.Finish()

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d records into %s\n", imported, collection)
	return nil
}

type noProgress struct{}

func (noProgress) Start(int64)  {}
func (noProgress) Update(int64) {}
func (noProgress) Finish()      {}
func (noProgress) Error(error)  {}
