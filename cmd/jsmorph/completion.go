package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ErrUnsupportedShell is returned when an unsupported shell is specified.
var ErrUnsupportedShell = errors.New("unsupported shell")

func completionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [shell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for jsmorph.

Examples:
  jsmorph completion bash                  # Generate bash completion
  jsmorph completion zsh                   # Generate zsh completion
  jsmorph completion fish                  # Generate fish completion`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompletion(cmd, args[0])
		},
	}

	return cmd
}

func runCompletion(cmd *cobra.Command, shell string) error {
	rootCmd := cmd.Root()
	out := cmd.OutOrStdout()

	var err error

	switch shell {
	case "bash":
		err = rootCmd.GenBashCompletion(out)
	case "zsh":
		err = rootCmd.GenZshCompletion(out)
	case "fish":
		err = rootCmd.GenFishCompletion(out, true)
	case "powershell":
		err = rootCmd.GenPowerShellCompletion(out)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedShell, shell)
	}

	if err != nil {
		return fmt.Errorf("failed to generate %s completion: %w", shell, err)
	}

	return nil
}
