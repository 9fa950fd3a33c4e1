package main

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/jsmorph/pkg/mcp"
	"github.com/Sumatoshi-tech/jsmorph/pkg/observability"
)

func mcpCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server exposes jsmorph as tools that AI agents can discover and invoke:
  - jsmorph_search: find code matching a pattern
  - jsmorph_rewrite: rewrite code with a 'pattern -> replacement' rule
  - jsmorph_apply: apply a YAML rule set
  - jsmorph_parse: show the syntax tree patterns match against`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(flags, observability.ModeMCP)
			if err != nil {
				return err
			}
			defer a.close()

			red, err := observability.NewREDMetrics(a.providers.Meter)
			if err != nil {
				return err
			}

			stats, err := observability.NewRuleMetrics(a.providers.Meter)
			if err != nil {
				return err
			}

			srv, err := mcp.NewServer(mcp.ServerDeps{
				Logger:  a.logger,
				Engine:  a.engine,
				Metrics: red,
				Rules:   stats,
				Tracer:  a.providers.Tracer,
			})
			if err != nil {
				return err
			}

			return srv.Run(cmd.Context())
		},
	}

	return cmd
}
