package main

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/jsmorph/pkg/batch"
	"github.com/Sumatoshi-tech/jsmorph/pkg/observability"
	"github.com/Sumatoshi-tech/jsmorph/pkg/report"
)

func searchCmd(flags *globalFlags) *cobra.Command {
	out := &outputFlags{}

	cmd := &cobra.Command{
		Use:   "search RULE [paths...]",
		Short: "Find code matching a pattern",
		Long: `Search reports every node matching the pattern half of RULE.

Paths may be files or directories; directories are walked for JavaScript
files. Without paths the source is read from stdin.`,
		Example: `  jsmorph search 'a == null' src/
  echo 'f(1, 2)' | jsmorph search 'f(a, b)' --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := out.validate()
			if err != nil {
				return err
			}

			a, err := newApp(flags, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()

			rule, err := a.engine.CompilePattern(ctx, args[0])
			if err != nil {
				return err
			}

			paths := args[1:]

			if len(paths) == 0 {
				source, _, readErr := readSource("", cmd.InOrStdin())
				if readErr != nil {
					return readErr
				}

				result, searchErr := a.engine.SearchRule(ctx, source, rule)
				if searchErr != nil {
					return searchErr
				}

				writeDiagnostics(cmd.ErrOrStderr(), result.Diagnostics)

				return writeMatches(cmd.OutOrStdout(), out.format, report.MatchViews("", source, result.Matches))
			}

			result, err := runFiles(ctx, a, paths, false, batch.SearchJob(a.engine, rule))
			if err != nil {
				return err
			}

			err = writeBatchMatches(cmd.OutOrStdout(), out.format, result)
			if err != nil {
				return err
			}

			return reportFailures(cmd.ErrOrStderr(), result)
		},
	}

	out.register(cmd)

	return cmd
}
