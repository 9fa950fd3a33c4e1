package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/jsmorph/pkg/batch"
	"github.com/Sumatoshi-tech/jsmorph/pkg/observability"
	"github.com/Sumatoshi-tech/jsmorph/pkg/report"
)

func lintCmd(flags *globalFlags) *cobra.Command {
	out := &outputFlags{}

	var rulesPath string

	cmd := &cobra.Command{
		Use:   "lint [paths...]",
		Short: "Report the matches of every rule of a rule set",
		Long: `Lint searches for the pattern of every rule in a rule-set file and
reports each match with the rule name. It exits non-zero when any rule
matched, so it can gate CI.`,
		Example: `  jsmorph lint --rules rules.yaml src/ --format compact`,
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

			rules, err := a.loadRules(ctx, rulesPath)
			if err != nil {
				return err
			}

			job := batch.FindJob(a.engine, rules)

			var views []report.MatchView

			if len(args) == 0 {
				source, _, readErr := readSource("", cmd.InOrStdin())
				if readErr != nil {
					return readErr
				}

				outcome, jobErr := job(ctx, "", source)
				if jobErr != nil {
					return jobErr
				}

				views = outcome.Matches

				err = writeMatches(cmd.OutOrStdout(), out.format, views)
				if err != nil {
					return err
				}
			} else {
				result, runErr := runFiles(ctx, a, args, false, job)
				if runErr != nil {
					return runErr
				}

				err = writeBatchMatches(cmd.OutOrStdout(), out.format, result)
				if err != nil {
					return err
				}

				err = reportFailures(cmd.ErrOrStderr(), result)
				if err != nil {
					return err
				}

				views = batchMatches(result)
			}

			if len(views) > 0 {
				return fmt.Errorf("%w: %d finding(s)", ErrFindings, len(views))
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&rulesPath, "rules", "r", "", "rule-set file (default rules.file from config)")
	out.register(cmd)

	return cmd
}
