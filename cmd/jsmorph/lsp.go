package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/jsmorph/pkg/lsp"
	"github.com/Sumatoshi-tech/jsmorph/pkg/observability"
	"github.com/Sumatoshi-tech/jsmorph/pkg/ruleset"
)

func lspCmd(flags *globalFlags) *cobra.Command {
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start language server reporting rule matches (LSP)",
		Long: `Start a language server (LSP) on stdio for JavaScript documents.

Open documents are checked against a rule set: syntax errors and rule
matches are published as diagnostics, hovering a match shows its bindings,
and rewrite rules are offered as quick fixes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(flags, observability.ModeLSP)
			if err != nil {
				return err
			}
			defer a.close()

			rules, err := a.loadRules(cmd.Context(), rulesPath)
			if errors.Is(err, ErrNoRuleSet) {
				a.logger.Warn("lsp: no rule set configured, reporting syntax errors only")

				rules, err = &ruleset.Compiled{}, nil
			}

			if err != nil {
				return err
			}

			srv, err := lsp.NewServer(lsp.ServerDeps{Engine: a.engine, Rules: rules, Logger: a.logger})
			if err != nil {
				return err
			}

			return srv.Run()
		},
	}

	cmd.Flags().StringVarP(&rulesPath, "rules", "r", "", "rule-set file (default rules.file from config)")

	return cmd
}
