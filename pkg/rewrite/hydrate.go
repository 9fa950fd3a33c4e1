package rewrite

import (
	"github.com/Sumatoshi-tech/jsmorph/pkg/estree/node"
)

// hydratorFunc fills the wildcards beneath a cloned template node in place
// and returns the node to splice where it stood.
type hydratorFunc func(h *hydrator, env Bindings, n *node.Node) *node.Node

// hydrator instantiates replacement templates.
type hydrator struct {
	diags *diagnostics
}

// hydrate returns a copy of template with every bound wildcard replaced by a
// clone of its binding. Neither template nor env is modified.
func (h *hydrator) hydrate(env Bindings, template *node.Node) *node.Node {
	return h.fill(env, template.Clone())
}

func (h *hydrator) fill(env Bindings, n *node.Node) *node.Node {
	if n == nil {
		return nil
	}

	if IsWildcard(n) {
		if bound, ok := env[n.Token]; ok {
			return bound.Clone()
		}

		return n
	}

	fill, ok := hydrators[n.Kind]
	if !ok {
		h.diags.unsupported(PhaseHydrate, n)

		return n
	}

	return fill(h, env, n)
}

//nolint:gochecknoglobals // read-only dispatch table.
var hydrators map[node.Kind]hydratorFunc

func init() {
	hydrators = map[node.Kind]hydratorFunc{
		node.Identifier:     leaf,
		node.Literal:        leaf,
		node.ThisExpression: leaf,
		node.EmptyStatement: leaf,
		node.Property:       fillProperty,
	}

	for _, kind := range []node.Kind{
		node.Program, node.BlockStatement, node.ExpressionStatement, node.ReturnStatement,
		node.IfStatement, node.ForStatement, node.WhileStatement, node.VariableDeclaration,
		node.VariableDeclarator, node.FunctionDeclaration, node.FunctionExpression,
		node.ArrowFunctionExpression, node.ArrayExpression, node.ObjectExpression,
		node.MemberExpression, node.CallExpression, node.NewExpression, node.BinaryExpression,
		node.LogicalExpression, node.AssignmentExpression, node.UnaryExpression,
		node.UpdateExpression, node.ConditionalExpression, node.SequenceExpression,
	} {
		hydrators[kind] = fillShape
	}
}

func leaf(_ *hydrator, _ Bindings, n *node.Node) *node.Node {
	return n
}

// fillShape walks every field of the node's shape.
func fillShape(h *hydrator, env Bindings, n *node.Node) *node.Node {
	shape, _ := node.ShapeOf(n.Kind)

	for _, field := range shape.Fields {
		if !field.List {
			if child, ok := n.Slots[field.Name]; ok {
				n.Slots[field.Name] = h.fill(env, child)
			}

			continue
		}

		list := n.Lists[field.Name]
		for i, child := range list {
			list[i] = h.fill(env, child)
		}
	}

	return n
}

// fillProperty keeps the property printable after substitution: a shorthand
// whose value changed is expanded and a key that is no longer a name is
// made computed.
func fillProperty(h *hydrator, env Bindings, n *node.Node) *node.Node {
	fillShape(h, env, n)

	key, value := n.Child(node.FieldKey), n.Child(node.FieldValue)

	if n.Flag(node.PropShorthand) && (value == nil || value.Kind != node.Identifier || key.Name() != value.Name()) {
		n.SetFlag(node.PropShorthand, false)
	}

	if key != nil && !n.Flag(node.PropComputed) && key.Kind != node.Identifier && key.Kind != node.Literal {
		n.SetFlag(node.PropComputed, true)
	}

	return n
}
