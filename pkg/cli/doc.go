/*
Package cli provides command-line helpers shared by the rsql commands.

Output Formatting:

Command results are written as text, JSON or CSV. Tabular results use
Table, which every formatter understands:

	table := &cli.Table{Headers: []string{"symbol", "type"}}
	table.Append("==", "valued[1..1]")
	if err := cli.NewFormatter(cli.FormatCSV).FormatTo(os.Stdout, table); err != nil {
		return err
	}

Progress Reporting:

Long imports report progress on stderr:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(int64(len(docs)))
	progress.Update(n)
	progress.Finish()

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

Exit Codes:

ExitCode maps an error to the process exit status: 0 on success, 2 when
a query was rejected and 1 for every other failure.
*/
package cli
