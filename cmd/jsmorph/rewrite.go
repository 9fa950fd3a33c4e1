package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/jsmorph/pkg/batch"
	"github.com/Sumatoshi-tech/jsmorph/pkg/observability"
	"github.com/Sumatoshi-tech/jsmorph/pkg/report"
)

const stdinName = "stdin.js"

// rewriteFlags are shared by rewrite and apply.
type rewriteFlags struct {
	outputFlags

	write bool
	diff  bool
	check bool
}

func (f *rewriteFlags) register(cmd *cobra.Command) {
	f.outputFlags.register(cmd)
	cmd.Flags().BoolVarP(&f.write, "write", "w", false, "write changes back to the files")
	cmd.Flags().BoolVarP(&f.diff, "diff", "d", false, "print a unified diff instead of the rewritten source")
	cmd.Flags().BoolVar(&f.check, "check", false, "fail if any file would change; nothing is written")
	cmd.MarkFlagsMutuallyExclusive("write", "check")
}

func rewriteCmd(flags *globalFlags) *cobra.Command {
	rf := &rewriteFlags{}

	cmd := &cobra.Command{
		Use:   "rewrite RULE [paths...]",
		Short: "Rewrite code matching a pattern",
		Long: `Rewrite replaces every outermost match of the pattern half of RULE
with its replacement half, filling wildcards with the code they matched.
Everything outside a match is left byte for byte.

Without paths the source is read from stdin and the result printed. With
paths, changed files are shown as diffs unless --write is given.`,
		Example: `  jsmorph rewrite 'a == null -> a === null' src/ --write
  echo 'f(1, 2)' | jsmorph rewrite 'f(a, b) -> f(b, a)'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := rf.validate()
			if err != nil {
				return err
			}

			a, err := newApp(flags, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()

			rule, err := a.engine.Compile(ctx, args[0])
			if err != nil {
				return err
			}

			paths := args[1:]

			if len(paths) == 0 {
				source, _, readErr := readSource("", cmd.InOrStdin())
				if readErr != nil {
					return readErr
				}

				result, rewriteErr := a.engine.RewriteRule(ctx, source, rule)
				if rewriteErr != nil {
					return rewriteErr
				}

				writeDiagnostics(cmd.ErrOrStderr(), result.Diagnostics)

				return writeRewritten(cmd, rf, string(source), result.Output)
			}

			result, err := runFiles(ctx, a, paths, rf.write, batch.RewriteJob(a.engine, rule))
			if err != nil {
				return err
			}

			return finishBatchRewrite(cmd, rf, result)
		},
	}

	rf.register(cmd)

	return cmd
}

// writeRewritten prints the result of rewriting stdin.
func writeRewritten(cmd *cobra.Command, rf *rewriteFlags, before, after string) error {
	w := cmd.OutOrStdout()

	switch {
	case rf.check:
		if before != after {
			return ErrChangesNeeded
		}

		return nil
	case rf.format == formatJSON:
		return writeJSON(w, struct {
			Output  string `json:"output"`
			Changed bool   `json:"changed"`
			Diff    string `json:"diff,omitempty"`
		}{
			Output:  after,
			Changed: before != after,
			Diff:    report.UnifiedDiff(stdinName, before, after, report.DiffOptions{}),
		})
	case rf.diff:
		fmt.Fprint(w, report.UnifiedDiff(stdinName, before, after, report.DiffOptions{Color: rf.color}))

		return nil
	default:
		fmt.Fprint(w, after)

		return nil
	}
}

// finishBatchRewrite reports a rewriting batch run and maps it to an exit
// error.
func finishBatchRewrite(cmd *cobra.Command, rf *rewriteFlags, result *batch.Result) error {
	if rf.check {
		for _, file := range result.Files {
			if file.Changed {
				fmt.Fprintln(cmd.OutOrStdout(), file.Path)
			}
		}
	} else {
		err := writeBatchChanges(cmd.OutOrStdout(), &rf.outputFlags, rf.diff, result)
		if err != nil {
			return err
		}
	}

	err := reportFailures(cmd.ErrOrStderr(), result)
	if err != nil {
		return err
	}

	if rf.check && result.Summary.Changed > 0 {
		return fmt.Errorf("%w: %d", ErrChangesNeeded, result.Summary.Changed)
	}

	return nil
}
