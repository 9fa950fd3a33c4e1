package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/jsmorph/pkg/batch"
	"github.com/Sumatoshi-tech/jsmorph/pkg/report"
	"github.com/Sumatoshi-tech/jsmorph/pkg/rewrite"
)

var (
	// ErrInvalidFormat indicates an unknown --format value.
	ErrInvalidFormat = errors.New("invalid output format")
	// ErrFilesFailed indicates at least one file of a batch run failed.
	ErrFilesFailed = errors.New("some files failed")
	// ErrChangesNeeded is returned by --check when a rewrite would change a file.
	ErrChangesNeeded = errors.New("files would be rewritten")
	// ErrFindings is returned by lint when a rule matched.
	ErrFindings = errors.New("rules matched")
)

var formats = []string{formatTable, formatJSON, formatCompact}

// outputFlags are shared by the commands that print matches or rewrites.
type outputFlags struct {
	format string
	color  bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "format", "f", formatTable, "output format: table, json or compact")
	cmd.Flags().BoolVar(&o.color, "color", !color.NoColor, "colorize diffs")
}

func (o *outputFlags) validate() error {
	if !slices.Contains(formats, o.format) {
		return fmt.Errorf("%w: %q (want one of %v)", ErrInvalidFormat, o.format, formats)
	}

	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(v)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

// writeMatches prints views in the requested format.
func writeMatches(w io.Writer, format string, views []report.MatchView) error {
	switch format {
	case formatJSON:
		return writeJSON(w, struct {
			Matches []report.MatchView `json:"matches"`
		}{Matches: views})
	case formatCompact:
		for _, view := range views {
			fmt.Fprintln(w, view.Compact())
		}

		return nil
	default:
		if len(views) == 0 {
			fmt.Fprintln(w, "No matches.")

			return nil
		}

		fmt.Fprintln(w, report.MatchTable(views))

		return nil
	}
}

// writeDiagnostics reports unsupported node kinds on stderr.
func writeDiagnostics(w io.Writer, diagnostics []rewrite.Diagnostic) {
	for _, d := range diagnostics {
		fmt.Fprintf(w, "warning: %s\n", d)
	}
}

// runFiles collects the files under paths and runs job over them.
func runFiles(ctx context.Context, a *app, paths []string, write bool, job batch.Job) (*batch.Result, error) {
	runner, err := a.runner(write)
	if err != nil {
		return nil, err
	}

	files, err := runner.Collect(paths)
	if err != nil {
		return nil, err
	}

	return runner.Run(ctx, files, job)
}

// batchMatches flattens the matches of every file of a batch run.
func batchMatches(result *batch.Result) []report.MatchView {
	var views []report.MatchView

	for _, file := range result.Files {
		views = append(views, file.Matches...)
	}

	return views
}

// reportFailures prints per-file errors and returns ErrFilesFailed if any.
func reportFailures(w io.Writer, result *batch.Result) error {
	for _, file := range result.Files {
		if file.Err != nil {
			fmt.Fprintf(w, "%s: %v\n", file.Path, file.Err)
		}
	}

	if result.Summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrFilesFailed, result.Summary.Failed, len(result.Files))
	}

	return nil
}

// writeBatchMatches prints the matches of a batch run, with totals in table
// format.
func writeBatchMatches(w io.Writer, format string, result *batch.Result) error {
	if format == formatJSON {
		return writeJSON(w, result)
	}

	err := writeMatches(w, format, batchMatches(result))
	if err != nil {
		return err
	}

	if format == formatTable {
		fmt.Fprintln(w, report.SummaryTable(result.Summary))
	}

	return nil
}

// writeBatchChanges prints what a rewriting batch run changed: diffs when
// requested or when nothing was written, else the list of written files.
func writeBatchChanges(w io.Writer, out *outputFlags, diff bool, result *batch.Result) error {
	if out.format == formatJSON {
		return writeJSON(w, result)
	}

	for _, file := range result.Files {
		if !file.Changed {
			continue
		}

		if diff || !file.Written {
			fmt.Fprint(w, report.UnifiedDiff(file.Path, string(file.Source), file.Output, report.DiffOptions{Color: out.color}))

			continue
		}

		inserted, deleted := report.DiffStat(string(file.Source), file.Output)
		fmt.Fprintf(w, "rewrote %s (+%d -%d)\n", file.Path, inserted, deleted)
	}

	if out.format == formatTable {
		fmt.Fprintln(w, report.SummaryTable(result.Summary))
	}

	return nil
}
