package rewrite

import (
	"github.com/Sumatoshi-tech/jsmorph/pkg/estree/node"
)

// comparator checks a pattern against a program node of the same kind.
type comparator func(m *matcher, env Bindings, pattern, candidate *node.Node) bool

// matcher unifies pattern trees with program trees.
type matcher struct {
	diags *diagnostics
}

// match reports whether pattern matches candidate, binding wildcards in env.
// A nil env compares structurally and treats wildcards as plain identifiers.
// env is left in an unspecified state when match fails.
func (m *matcher) match(env Bindings, pattern, candidate *node.Node) bool {
	if pattern == nil || candidate == nil {
		return pattern == nil && candidate == nil
	}

	if env != nil && IsWildcard(pattern) {
		if bound, ok := env[pattern.Token]; ok {
			return m.match(nil, bound, candidate)
		}

		env[pattern.Token] = candidate

		return true
	}

	if pattern.Kind != candidate.Kind {
		return false
	}

	compare, ok := comparators[pattern.Kind]
	if !ok {
		m.diags.unsupported(PhaseMatch, candidate)

		return false
	}

	return compare(m, env, pattern, candidate)
}

//nolint:gochecknoglobals // read-only dispatch table.
var comparators map[node.Kind]comparator

func init() {
	binary := all(props(node.PropOperator), slots(node.FieldLeft, node.FieldRight))
	function := all(
		sameName(node.FieldID),
		sameName(node.FieldRest),
		props(node.PropGenerator, node.PropExpression, node.PropAsync),
		lists(node.FieldParams, node.FieldDefaults),
		slots(node.FieldBody),
	)

	comparators = map[node.Kind]comparator{
		node.Program:             lists(node.FieldBody),
		node.BlockStatement:      lists(node.FieldBody),
		node.EmptyStatement:      always,
		node.ExpressionStatement: slots(node.FieldExpression),
		node.ReturnStatement:     slots(node.FieldArgument),
		node.IfStatement:         slots(node.FieldTest, node.FieldConsequent, node.FieldAlternate),
		node.ForStatement:        slots(node.FieldInit, node.FieldTest, node.FieldUpdate, node.FieldBody),
		node.WhileStatement:      slots(node.FieldTest, node.FieldBody),
		node.VariableDeclaration: all(props(node.PropKind), lists(node.FieldDeclarations)),
		node.VariableDeclarator:  slots(node.FieldID, node.FieldInit),
		node.FunctionDeclaration: function,

		node.Identifier:              token,
		node.Literal:                 token,
		node.ThisExpression:          always,
		node.ArrayExpression:         lists(node.FieldElements),
		node.ObjectExpression:        lists(node.FieldProperties),
		node.Property:                all(props(node.PropKind), slots(node.FieldKey, node.FieldValue)),
		node.FunctionExpression:      function,
		node.ArrowFunctionExpression: all(sameName(node.FieldRest), props(node.PropExpression, node.PropAsync), lists(node.FieldParams, node.FieldDefaults), slots(node.FieldBody)),
		node.MemberExpression:        all(props(node.PropComputed), slots(node.FieldObject, node.FieldProperty)),
		node.CallExpression:          all(slots(node.FieldCallee), lists(node.FieldArguments)),
		node.NewExpression:           all(slots(node.FieldCallee), lists(node.FieldArguments)),
		node.BinaryExpression:        binary,
		node.LogicalExpression:       binary,
		node.AssignmentExpression:    binary,
		node.UnaryExpression:         all(props(node.PropOperator), slots(node.FieldArgument)),
		node.UpdateExpression:        all(props(node.PropOperator, node.PropPrefix), slots(node.FieldArgument)),
		node.ConditionalExpression:   slots(node.FieldTest, node.FieldConsequent, node.FieldAlternate),
		node.SequenceExpression:      lists(node.FieldExpressions),
	}
}

func always(*matcher, Bindings, *node.Node, *node.Node) bool {
	return true
}

// token compares identifier names and raw literal text.
func token(_ *matcher, _ Bindings, pattern, candidate *node.Node) bool {
	return pattern.Token == candidate.Token
}

// all chains comparators with short-circuit AND.
func all(cmps ...comparator) comparator {
	return func(m *matcher, env Bindings, pattern, candidate *node.Node) bool {
		for _, cmp := range cmps {
			if !cmp(m, env, pattern, candidate) {
				return false
			}
		}

		return true
	}
}

// props compares scalar attributes. An absent flag equals "false" so that
// synthesized nodes compare equal to parsed ones.
func props(keys ...string) comparator {
	return func(_ *matcher, _ Bindings, pattern, candidate *node.Node) bool {
		for _, key := range keys {
			if normalizeProp(pattern.Prop(key)) != normalizeProp(candidate.Prop(key)) {
				return false
			}
		}

		return true
	}
}

func normalizeProp(value string) string {
	if value == "" {
		return "false"
	}

	return value
}

// slots matches single-child fields positionally.
func slots(fields ...string) comparator {
	return func(m *matcher, env Bindings, pattern, candidate *node.Node) bool {
		for _, field := range fields {
			if !m.match(env, pattern.Child(field), candidate.Child(field)) {
				return false
			}
		}

		return true
	}
}

// lists matches list fields with the partial matcher.
func lists(fields ...string) comparator {
	return func(m *matcher, env Bindings, pattern, candidate *node.Node) bool {
		for _, field := range fields {
			if !m.partial(env, pattern.List(field), candidate.List(field)) {
				return false
			}
		}

		return true
	}
}

// sameName compares an optional identifier slot by name, without binding.
func sameName(field string) comparator {
	return func(_ *matcher, _ Bindings, pattern, candidate *node.Node) bool {
		p, c := pattern.Child(field), candidate.Child(field)
		if p == nil || c == nil {
			return p == nil && c == nil
		}

		return p.Kind == c.Kind && p.Token == c.Token
	}
}
