// Package main provides the jsmorph CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/jsmorph/pkg/version"
)

// Output format names shared by the commands.
const (
	formatJSON    = "json"
	formatTable   = "table"
	formatCompact = "compact"
)

// globalFlags holds the persistent flags of the root command.
type globalFlags struct {
	config  string
	verbose bool
	quiet   bool
}

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "jsmorph",
		Short: "Structural search and rewrite for JavaScript",
		Long: `jsmorph finds and rewrites JavaScript code by syntax tree shape.

A rule has the form 'pattern -> replacement'. Single lowercase letters in a
rule are wildcards: each one matches any subtree, and a wildcard used twice
must match equal code.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.config, "config", "", "config file (default is ./.jsmorph.yaml or $HOME/.jsmorph.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(searchCmd(flags))
	rootCmd.AddCommand(rewriteCmd(flags))
	rootCmd.AddCommand(applyCmd(flags))
	rootCmd.AddCommand(lintCmd(flags))
	rootCmd.AddCommand(validateCmd(flags))
	rootCmd.AddCommand(parseCmd(flags))
	rootCmd.AddCommand(replCmd(flags))
	rootCmd.AddCommand(serverCmd(flags))
	rootCmd.AddCommand(mcpCmd(flags))
	rootCmd.AddCommand(lspCmd(flags))
	rootCmd.AddCommand(completionCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
