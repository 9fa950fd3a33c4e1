package rewrite

import (
	"maps"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/jsmorph/pkg/estree/node"
	"github.com/Sumatoshi-tech/jsmorph/pkg/estree/printer"
)

// IsWildcard reports whether n is a wildcard: an Identifier whose name is a
// single lowercase ASCII letter. Only rule trees carry wildcards.
func IsWildcard(n *node.Node) bool {
	if n == nil || n.Kind != node.Identifier || len(n.Token) != 1 {
		return false
	}

	return n.Token[0] >= 'a' && n.Token[0] <= 'z'
}

// Wildcards returns the distinct wildcard names of a rule tree in pre-order.
func Wildcards(n *node.Node) []string {
	var names []string

	seen := make(map[string]bool)

	n.VisitPreOrder(func(current *node.Node) {
		if IsWildcard(current) && !seen[current.Token] {
			seen[current.Token] = true
			names = append(names, current.Token)
		}
	})

	return names
}

// Bindings maps wildcard names to the program nodes they captured.
type Bindings map[string]*node.Node

// Names returns the bound names, sorted.
func (b Bindings) Names() []string {
	return slices.Sorted(maps.Keys(b))
}

// Text renders every binding as JavaScript.
func (b Bindings) Text() map[string]string {
	out := make(map[string]string, len(b))

	for name, bound := range b {
		out[name] = printer.Print(bound)
	}

	return out
}

// String renders the bindings as {a: 1, b: x}.
func (b Bindings) String() string {
	var sb strings.Builder

	sb.WriteString("{")

	for i, name := range b.Names() {
		if i > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(name)
		sb.WriteString(": ")
		sb.WriteString(printer.Print(b[name]))
	}

	sb.WriteString("}")

	return sb.String()
}
