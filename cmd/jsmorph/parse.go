package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/jsmorph/pkg/estree/node"
	"github.com/Sumatoshi-tech/jsmorph/pkg/estree/printer"
	"github.com/Sumatoshi-tech/jsmorph/pkg/observability"
)

// ErrUnknownKind is returned when --kind names no node kind.
var ErrUnknownKind = errors.New("unknown node kind")

func parseCmd(flags *globalFlags) *cobra.Command {
	var (
		kind      string
		printTree bool
		kinds     bool
	)

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Print the syntax tree of JavaScript source",
		Long: `Parse prints the tree patterns are matched against, as JSON. With
--kind only the nodes of that kind are printed; with --print the tree is
printed back as JavaScript, the way replacements are rendered.`,
		Example: `  jsmorph parse app.js --kind CallExpression
  echo 'a+b*c' | jsmorph parse --print`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			if kinds {
				for _, k := range node.Kinds() {
					fmt.Fprintln(w, k)
				}

				return nil
			}

			err := checkKind(kind)
			if err != nil {
				return err
			}

			a, err := newApp(flags, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer a.close()

			path := ""
			if len(args) == 1 {
				path = args[0]
			}

			source, _, err := readSource(path, cmd.InOrStdin())
			if err != nil {
				return err
			}

			root, err := a.engine.Parser().Parse(cmd.Context(), source)
			if err != nil {
				return err
			}

			var found []*node.Node
			if kind != "" {
				found = root.Find(func(n *node.Node) bool { return n.Kind == node.Kind(kind) })
			}

			if printTree {
				if kind == "" {
					found = []*node.Node{root}
				}

				for _, n := range found {
					fmt.Fprintln(w, printer.Print(n))
				}

				return nil
			}

			if kind == "" {
				return writeJSON(w, root.ToMap())
			}

			nodes := make([]map[string]any, 0, len(found))
			for _, n := range found {
				nodes = append(nodes, n.ToMap())
			}

			return writeJSON(w, nodes)
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "only print nodes of this kind")
	cmd.Flags().BoolVarP(&printTree, "print", "p", false, "print the tree back as JavaScript")
	cmd.Flags().BoolVar(&kinds, "kinds", false, "list the node kinds patterns can match")

	return cmd
}

func checkKind(kind string) error {
	if kind == "" || node.Known(node.Kind(kind)) {
		return nil
	}

	if closest, ok := node.Closest(kind); ok {
		return fmt.Errorf("%w %q, did you mean %s?", ErrUnknownKind, kind, closest)
	}

	return fmt.Errorf("%w %q, see --kinds", ErrUnknownKind, kind)
}
