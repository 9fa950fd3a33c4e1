package printer

import (
	"strings"

	"github.com/Sumatoshi-tech/jsmorph/pkg/estree/node"
)

// indentUnit is one nesting level.
const indentUnit = "    "

type state struct {
	out    *strings.Builder
	node   *node.Node
	parent *state
	field  string
	indent int
}

func (s *state) wrap(child *node.Node, field string) *state {
	return &state{
		out:    s.out,
		node:   child,
		parent: s,
		field:  field,
		indent: s.indent,
	}
}

func (s *state) write(text string) {
	s.out.WriteString(text)
}

func (s *state) line() {
	s.out.WriteString("\n")
}

func (s *state) lineAndPad() {
	s.line()
	s.out.WriteString(strings.Repeat(indentUnit, s.indent))
}

func (s *state) parentNode() *node.Node {
	if s.parent == nil {
		return nil
	}

	return s.parent.node
}
