// Package printer renders node trees back to JavaScript source.
package printer

import (
	"strings"

	"github.com/Sumatoshi-tech/jsmorph/pkg/estree/node"
)

// Print renders n as JavaScript. The output is canonical rather than
// faithful: spacing and parentheses are regenerated, while identifier names,
// literal text and opaque regions are reproduced verbatim.
func Print(n *node.Node) string {
	s := &state{
		out:  &strings.Builder{},
		node: n,
	}

	gen(s)

	return s.out.String()
}

// PrintIn renders n as it would appear in field of parent, adding
// parentheses when the surrounding syntax binds tighter.
func PrintIn(parent *node.Node, field string, n *node.Node) string {
	text := Print(n)

	if NeedsParens(parent, field, n) {
		return "(" + text + ")"
	}

	return text
}

func gen(s *state) {
	n := s.node
	if n == nil {
		return
	}

	switch n.Kind {
	case node.Program:
		for _, stmt := range n.List(node.FieldBody) {
			child(s, stmt, node.FieldBody)
			s.line()
		}
	case node.BlockStatement:
		genBlock(s, n.List(node.FieldBody))
	case node.EmptyStatement:
		s.write(";")
	case node.ExpressionStatement:
		child(s, n.Child(node.FieldExpression), node.FieldExpression)
		s.write(";")
	case node.ReturnStatement:
		s.write("return")

		if arg := n.Child(node.FieldArgument); arg != nil {
			s.write(" ")
			child(s, arg, node.FieldArgument)
		}

		s.write(";")
	case node.IfStatement:
		genIf(s, n)
	case node.ForStatement:
		genFor(s, n)
	case node.WhileStatement:
		s.write("while (")
		child(s, n.Child(node.FieldTest), node.FieldTest)
		s.write(") ")
		child(s, n.Child(node.FieldBody), node.FieldBody)
	case node.VariableDeclaration:
		genDeclaration(s, n)
	case node.VariableDeclarator:
		child(s, n.Child(node.FieldID), node.FieldID)

		if init := n.Child(node.FieldInit); init != nil {
			s.write(" = ")
			child(s, init, node.FieldInit)
		}
	case node.FunctionDeclaration, node.FunctionExpression:
		genFunction(s, n)
	case node.ArrowFunctionExpression:
		genArrow(s, n)
	default:
		genExpression(s, n)
	}
}

func genExpression(s *state, n *node.Node) {
	switch n.Kind {
	case node.Identifier, node.Literal, node.Opaque:
		s.write(n.Token)
	case node.ThisExpression:
		s.write("this")
	case node.ArrayExpression:
		genArray(s, n)
	case node.ObjectExpression:
		genObject(s, n)
	case node.Property:
		genProperty(s, n)
	case node.MemberExpression:
		child(s, n.Child(node.FieldObject), node.FieldObject)

		if n.Flag(node.PropComputed) {
			s.write("[")
			child(s, n.Child(node.FieldProperty), node.FieldProperty)
			s.write("]")
		} else {
			s.write(".")
			child(s, n.Child(node.FieldProperty), node.FieldProperty)
		}
	case node.CallExpression:
		child(s, n.Child(node.FieldCallee), node.FieldCallee)

		if n.Flag(node.PropOptional) {
			s.write("?.")
		}

		genArguments(s, n.List(node.FieldArguments))
	case node.NewExpression:
		s.write("new ")
		child(s, n.Child(node.FieldCallee), node.FieldCallee)
		genArguments(s, n.List(node.FieldArguments))
	case node.BinaryExpression, node.LogicalExpression, node.AssignmentExpression:
		child(s, n.Child(node.FieldLeft), node.FieldLeft)
		s.write(" " + n.Operator() + " ")
		child(s, n.Child(node.FieldRight), node.FieldRight)
	case node.UnaryExpression:
		op := n.Operator()
		s.write(op)

		if isWordOperator(op) {
			s.write(" ")
		}

		child(s, n.Child(node.FieldArgument), node.FieldArgument)
	case node.UpdateExpression:
		if n.Flag(node.PropPrefix) {
			s.write(n.Operator())
			child(s, n.Child(node.FieldArgument), node.FieldArgument)
		} else {
			child(s, n.Child(node.FieldArgument), node.FieldArgument)
			s.write(n.Operator())
		}
	case node.ConditionalExpression:
		child(s, n.Child(node.FieldTest), node.FieldTest)
		s.write(" ? ")
		child(s, n.Child(node.FieldConsequent), node.FieldConsequent)
		s.write(" : ")
		child(s, n.Child(node.FieldAlternate), node.FieldAlternate)
	case node.SequenceExpression:
		genList(s, n.List(node.FieldExpressions), node.FieldExpressions)
	}
}

// child prints c in field of the current node, parenthesized when required.
func child(s *state, c *node.Node, field string) {
	if c == nil {
		return
	}

	parens := NeedsParens(s.node, field, c)
	if parens {
		s.write("(")
	}

	gen(s.wrap(c, field))

	if parens {
		s.write(")")
	}
}

func genList(s *state, items []*node.Node, field string) {
	for i, item := range items {
		if i > 0 {
			s.write(", ")
		}

		child(s, item, field)
	}
}

func genArguments(s *state, args []*node.Node) {
	s.write("(")
	genList(s, args, node.FieldArguments)
	s.write(")")
}

func genBlock(s *state, body []*node.Node) {
	if len(body) == 0 {
		s.write("{}")

		return
	}

	s.write("{")

	s.indent++
	for _, stmt := range body {
		s.lineAndPad()
		child(s, stmt, node.FieldBody)
	}
	s.indent--

	s.lineAndPad()
	s.write("}")
}

func genIf(s *state, n *node.Node) {
	s.write("if (")
	child(s, n.Child(node.FieldTest), node.FieldTest)
	s.write(") ")
	child(s, n.Child(node.FieldConsequent), node.FieldConsequent)

	if alt := n.Child(node.FieldAlternate); alt != nil {
		s.write(" else ")
		child(s, alt, node.FieldAlternate)
	}
}

func genFor(s *state, n *node.Node) {
	s.write("for (")
	child(s, n.Child(node.FieldInit), node.FieldInit)
	s.write(";")

	if test := n.Child(node.FieldTest); test != nil {
		s.write(" ")
		child(s, test, node.FieldTest)
	}

	s.write(";")

	if update := n.Child(node.FieldUpdate); update != nil {
		s.write(" ")
		child(s, update, node.FieldUpdate)
	}

	s.write(") ")
	child(s, n.Child(node.FieldBody), node.FieldBody)
}

func genDeclaration(s *state, n *node.Node) {
	kind := n.Prop(node.PropKind)
	if kind == "" {
		kind = "var"
	}

	s.write(kind + " ")
	genList(s, n.List(node.FieldDeclarations), node.FieldDeclarations)

	parent := s.parentNode()
	if parent != nil && parent.Kind == node.ForStatement && s.field == node.FieldInit {
		return
	}

	s.write(";")
}

func genFunction(s *state, n *node.Node) {
	if n.Flag(node.PropAsync) {
		s.write("async ")
	}

	s.write("function")

	if n.Flag(node.PropGenerator) {
		s.write("*")
	}

	if id := n.Child(node.FieldID); id != nil {
		s.write(" ")
		child(s, id, node.FieldID)
	}

	genParams(s, n)
	s.write(" ")
	child(s, n.Child(node.FieldBody), node.FieldBody)
}

// genMethod prints a function value in method shorthand: name(params) {...}.
func genMethod(s *state, fn *node.Node) {
	fs := s.wrap(fn, node.FieldValue)
	genParams(fs, fn)
	fs.write(" ")
	child(fs, fn.Child(node.FieldBody), node.FieldBody)
}

func genArrow(s *state, n *node.Node) {
	if n.Flag(node.PropAsync) {
		s.write("async ")
	}

	params := n.List(node.FieldParams)
	if len(params) == 1 && params[0] != nil && params[0].Kind == node.Identifier &&
		len(n.List(node.FieldDefaults)) == 0 && n.Child(node.FieldRest) == nil {
		child(s, params[0], node.FieldParams)
	} else {
		genParams(s, n)
	}

	s.write(" => ")
	child(s, n.Child(node.FieldBody), node.FieldBody)
}

func genParams(s *state, fn *node.Node) {
	params := fn.List(node.FieldParams)
	defaults := fn.List(node.FieldDefaults)

	s.write("(")

	for i, param := range params {
		if i > 0 {
			s.write(", ")
		}

		child(s, param, node.FieldParams)

		if i < len(defaults) && defaults[i] != nil {
			s.write(" = ")
			child(s, defaults[i], node.FieldDefaults)
		}
	}

	if rest := fn.Child(node.FieldRest); rest != nil {
		if len(params) > 0 {
			s.write(", ")
		}

		s.write("...")
		child(s, rest, node.FieldRest)
	}

	s.write(")")
}

func genArray(s *state, n *node.Node) {
	elements := n.List(node.FieldElements)

	s.write("[")

	for i, elem := range elements {
		if i > 0 {
			s.write(", ")
		}

		child(s, elem, node.FieldElements)
	}

	// A trailing hole needs its own comma to survive.
	if len(elements) > 0 && elements[len(elements)-1] == nil {
		s.write(",")
	}

	s.write("]")
}

func genObject(s *state, n *node.Node) {
	props := n.List(node.FieldProperties)
	if len(props) == 0 {
		s.write("{}")

		return
	}

	s.write("{")
	genList(s, props, node.FieldProperties)
	s.write("}")
}

func genProperty(s *state, n *node.Node) {
	key := n.Child(node.FieldKey)
	value := n.Child(node.FieldValue)

	if n.Flag(node.PropShorthand) {
		child(s, value, node.FieldValue)

		return
	}

	switch kind := n.Prop(node.PropKind); kind {
	case "get", "set":
		s.write(kind + " ")
	}

	genKey(s, n, key)

	isAccessor := n.Prop(node.PropKind) == "get" || n.Prop(node.PropKind) == "set"
	if (n.Flag(node.PropMethod) || isAccessor) && value != nil && value.Kind == node.FunctionExpression {
		genMethod(s, value)

		return
	}

	s.write(": ")
	child(s, value, node.FieldValue)
}

func genKey(s *state, n, key *node.Node) {
	if n.Flag(node.PropComputed) {
		s.write("[")
		child(s, key, node.FieldKey)
		s.write("]")

		return
	}

	child(s, key, node.FieldKey)
}

func isWordOperator(op string) bool {
	switch op {
	case "typeof", "void", "delete":
		return true
	default:
		return false
	}
}
