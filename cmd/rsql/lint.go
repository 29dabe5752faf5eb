package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/rsql/pkg/engine"
	rsqlerrors "mercator-hq/rsql/pkg/rsql/errors"
)

var lintCmd = &cobra.Command{
	Use:   "lint [FILE...]",
	Short: "Check files of queries for errors",
	Long: `Check files containing one RSQL query per line. Blank lines and lines
starting with # are skipped. Standard input is read when no file is given.

Every invalid query is reported as

  file:line:column: [type] message

Exit codes:
  0 - All queries are valid
  1 - A file could not be read
  2 - At least one query is invalid`,
	Example: `  rsql lint saved-filters.txt
  rsql lint -o json filters/*.rsql`,
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)
}

// lintIssue is one invalid query.
type lintIssue struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Query   string `json:"query"`
}

func (i lintIssue) String() string {
	return fmt.Sprintf("%s:%d:%d: [%s] %s", i.File, i.Line, i.Column, i.Type, i.Message)
}

// lintFailure reports invalid queries. It unwraps to the parse errors so
// that the exit status marks them as invalid input.
type lintFailure struct {
	queries int
	errs    *rsqlerrors.ErrorList
}

func (f *lintFailure) Error() string {
	return fmt.Sprintf("%d of %d queries are invalid", f.errs.Count(), f.queries)
}

func (f *lintFailure) Unwrap() error {
	return f.errs
}

func runLint(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := engine.FromConfig(cfg)
	if err != nil {
		return err
	}

	files := args
	if len(files) == 0 {
		files = []string{"-"}
	}

	var issues []lintIssue
	errs := rsqlerrors.NewErrorList()
	queries := 0
	for _, file := range files {
		data, err := readInput(cmd, file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		name := file
		if name == "-" {
			name = "<stdin>"
		}
		n, found, err := lintQueries(eng, name, data, errs)
		if err != nil {
			return err
		}
		queries += n
		issues = append(issues, found...)
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		f, err := newFormatter()
		if err != nil {
			return err
		}
		if issues == nil {
			issues = []lintIssue{}
		}
		if err := f.FormatTo(out, issues); err != nil {
			return err
		}
	} else {
		for _, issue := range issues {
			fmt.Fprintln(out, issue)
		}
		if verbose {
			fmt.Fprintf(out, "%d queries checked, %d invalid\n", queries, len(issues))
		}
	}

	if errs.HasErrors() {
		return &lintFailure{queries: queries, errs: errs}
	}
	return nil
}

// lintQueries parses every query line of data. Errors that are not parse
// errors abort the run.
func lintQueries(eng *engine.Engine, file string, data []byte, errs *rsqlerrors.ErrorList) (int, []lintIssue, error) {
	var issues []lintIssue
	queries := 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		queries++

		err := eng.Validate(text)
		if err == nil {
			continue
		}
		var rerr *rsqlerrors.Error
		if !errors.As(err, &rerr) {
			return 0, nil, fmt.Errorf("%s:%d: %w", file, line, err)
		}
		errs.Add(rerr)
		issues = append(issues, lintIssue{
			File:    file,
			Line:    line,
			Column:  max(rerr.Position.Column, 1),
			Type:    string(rerr.Type),
			Message: rerr.Message,
			Query:   text,
		})
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return 0, nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return queries, issues, nil
}
