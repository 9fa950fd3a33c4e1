package main

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/jsmorph/pkg/batch"
	"github.com/Sumatoshi-tech/jsmorph/pkg/observability"
)

func applyCmd(flags *globalFlags) *cobra.Command {
	rf := &rewriteFlags{}

	var rulesPath string

	cmd := &cobra.Command{
		Use:   "apply [paths...]",
		Short: "Apply every rewrite rule of a rule set",
		Long: `Apply runs the rewrite rules of a rule-set file in order, each on the
output of the previous one. Search-only rules are skipped.

The rule set comes from --rules, or rules.file in the configuration.`,
		Example: `  jsmorph apply --rules .jsmorph-rules.yaml src/ --write
  jsmorph apply --rules rules.yaml --check src/`,
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

			rules, err := a.loadRules(ctx, rulesPath)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				source, _, readErr := readSource("", cmd.InOrStdin())
				if readErr != nil {
					return readErr
				}

				result, applyErr := rules.Apply(ctx, a.engine, source)
				if applyErr != nil {
					return applyErr
				}

				writeDiagnostics(cmd.ErrOrStderr(), result.Diagnostics)

				if rf.format == formatJSON && !rf.check {
					return writeJSON(cmd.OutOrStdout(), result)
				}

				return writeRewritten(cmd, rf, string(source), result.Output)
			}

			result, err := runFiles(ctx, a, args, rf.write, batch.ApplyJob(a.engine, rules))
			if err != nil {
				return err
			}

			return finishBatchRewrite(cmd, rf, result)
		},
	}

	cmd.Flags().StringVarP(&rulesPath, "rules", "r", "", "rule-set file (default rules.file from config)")
	rf.register(cmd)

	return cmd
}
