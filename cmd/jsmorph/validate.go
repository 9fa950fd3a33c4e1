package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/jsmorph/pkg/observability"
	"github.com/Sumatoshi-tech/jsmorph/pkg/rewrite"
	"github.com/Sumatoshi-tech/jsmorph/pkg/ruleset"
)

// ErrInvalidRules is returned when any validated rule or rule set is invalid.
var ErrInvalidRules = errors.New("validation failed")

func validateCmd(flags *globalFlags) *cobra.Command {
	var rulesPaths []string

	cmd := &cobra.Command{
		Use:   "validate [RULE...]",
		Short: "Check rules and rule-set files",
		Long: `Validate parses each RULE argument and each --rules file, reporting
syntax errors and schema violations without touching any source.`,
		Example: `  jsmorph validate 'a == null -> a === null'
  jsmorph validate --rules rules.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(rulesPaths) == 0 {
				return cmd.Help()
			}

			a, err := newApp(flags, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			w := cmd.OutOrStdout()
			ok := color.New(color.FgGreen)
			bad := color.New(color.FgRed)
			failures := 0

			check := func(label string, err error) {
				if err != nil {
					failures++

					bad.Fprintf(w, "✗ %s: %v\n", label, err)

					return
				}

				ok.Fprintf(w, "✓ %s\n", label)
			}

			for _, text := range args {
				var compileErr error

				if rewrite.IsRewriteRule(text) {
					_, compileErr = a.engine.Compile(ctx, text)
				} else {
					_, compileErr = a.engine.CompilePattern(ctx, text)
				}

				check(sanitizeForTerminal(text), compileErr)
			}

			for _, path := range rulesPaths {
				check(path, validateRuleSet(cmd, a, path))
			}

			if failures > 0 {
				return fmt.Errorf("%w: %d invalid", ErrInvalidRules, failures)
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&rulesPaths, "rules", "r", nil, "rule-set file to validate (repeatable)")

	return cmd
}

func validateRuleSet(cmd *cobra.Command, a *app, path string) error {
	resolved, err := resolveUserFilePath(path)
	if err != nil {
		return err
	}

	rs, err := ruleset.Load(resolved)
	if err != nil {
		return err
	}

	_, err = rs.Compile(cmd.Context(), a.engine, a.logger)

	return err
}
