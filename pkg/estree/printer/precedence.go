package printer

import (
	"strings"

	"github.com/Sumatoshi-tech/jsmorph/pkg/estree/node"
)

// Binding strengths, loosest first.
const (
	precLowest = iota
	precSequence
	precAssign
	precConditional
	precOr
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precExponent
	precUnary
	precUpdate
	precMember
	precPrimary
)

//nolint:gochecknoglobals // read-only operator table.
var binaryPrecedence = map[string]int{
	"??": precOr, "||": precOr,
	"&&": precAnd,
	"|":  precBitOr,
	"^":  precBitXor,
	"&":  precBitAnd,
	"==": precEquality, "!=": precEquality, "===": precEquality, "!==": precEquality,
	"<": precRelational, ">": precRelational, "<=": precRelational, ">=": precRelational,
	"in": precRelational, "instanceof": precRelational,
	"<<": precShift, ">>": precShift, ">>>": precShift,
	"+": precAdditive, "-": precAdditive,
	"*": precMultiplicative, "/": precMultiplicative, "%": precMultiplicative,
	"**": precExponent,
}

// Opaque node types that bind looser than a primary expression.
//
//nolint:gochecknoglobals // read-only type table.
var opaquePrecedence = map[string]int{
	"await_expression": precUnary,
	"yield_expression": precAssign,
	"spread_element":   precAssign,
	"class":            precPrimary,
}

func precedence(n *node.Node) int {
	switch n.Kind {
	case node.SequenceExpression:
		return precSequence
	case node.AssignmentExpression, node.ArrowFunctionExpression:
		return precAssign
	case node.ConditionalExpression:
		return precConditional
	case node.BinaryExpression, node.LogicalExpression:
		if prec, ok := binaryPrecedence[n.Operator()]; ok {
			return prec
		}

		return precRelational
	case node.UnaryExpression:
		return precUnary
	case node.UpdateExpression:
		return precUpdate
	case node.MemberExpression, node.CallExpression, node.NewExpression:
		return precMember
	case node.Opaque:
		if prec, ok := opaquePrecedence[n.Prop(node.PropType)]; ok {
			return prec
		}

		return precPrimary
	default:
		return precPrimary
	}
}

// NeedsParens reports whether child must be parenthesized when it is printed
// in field of parent.
func NeedsParens(parent *node.Node, field string, child *node.Node) bool {
	if parent == nil || child == nil || node.IsStatement(child.Kind) {
		return false
	}

	if special, ok := specialParens(parent, field, child); ok {
		return special
	}

	return precedence(child) < minPrecedence(parent, field)
}

// specialParens covers the cases a precedence comparison cannot express.
func specialParens(parent *node.Node, field string, child *node.Node) (needs, decided bool) {
	switch parent.Kind {
	case node.ExpressionStatement:
		return startsAmbiguously(child), true
	case node.ArrowFunctionExpression:
		if field == node.FieldBody && child.Kind == node.ObjectExpression {
			return true, true
		}
	case node.BinaryExpression, node.LogicalExpression:
		if mixesNullish(parent, child) {
			return true, true
		}

		if parent.Operator() == "**" && field == node.FieldLeft && child.Kind == node.UnaryExpression {
			return true, true
		}
	case node.CallExpression:
		if field == node.FieldCallee && child.Kind == node.FunctionExpression {
			return true, true
		}
	case node.NewExpression:
		if field == node.FieldCallee && containsCall(child) {
			return true, true
		}
	case node.MemberExpression:
		if field == node.FieldObject && isIntegerLiteral(child) && !parent.Flag(node.PropComputed) {
			return true, true
		}
	case node.UnaryExpression:
		if signCollides(parent, child) {
			return true, true
		}
	case node.Opaque:
		return precedence(child) < precUnary && !opaqueAcceptsExpression(parent), true
	}

	return false, false
}

// minPrecedence is the loosest binding a child may have in field of parent
// without parentheses.
func minPrecedence(parent *node.Node, field string) int {
	switch parent.Kind {
	case node.BinaryExpression, node.LogicalExpression:
		prec := precedence(parent)
		rightAssoc := parent.Operator() == "**"

		if (field == node.FieldLeft && rightAssoc) || (field == node.FieldRight && !rightAssoc) {
			return prec + 1
		}

		return prec
	case node.AssignmentExpression:
		if field == node.FieldLeft {
			return precMember
		}

		return precAssign
	case node.ConditionalExpression:
		if field == node.FieldTest {
			return precOr
		}

		return precAssign
	case node.UnaryExpression:
		return precUnary
	case node.UpdateExpression:
		return precMember
	case node.MemberExpression:
		if field == node.FieldObject {
			return precMember
		}

		return precLowest
	case node.CallExpression, node.NewExpression:
		if field == node.FieldCallee {
			return precMember
		}

		return precAssign
	case node.Property:
		if field == node.FieldValue {
			return precAssign
		}

		return precLowest
	case node.ArrayExpression, node.SequenceExpression, node.VariableDeclarator, node.ReturnStatement,
		node.FunctionExpression, node.FunctionDeclaration, node.ArrowFunctionExpression:
		return precAssign
	default:
		return precLowest
	}
}

// startsAmbiguously reports whether an expression statement would begin with
// "{" or "function" and be read as a block or declaration.
func startsAmbiguously(n *node.Node) bool {
	for n != nil {
		switch n.Kind {
		case node.ObjectExpression, node.FunctionExpression:
			return true
		case node.BinaryExpression, node.LogicalExpression, node.AssignmentExpression:
			n = n.Child(node.FieldLeft)
		case node.MemberExpression:
			n = n.Child(node.FieldObject)
		case node.CallExpression:
			n = n.Child(node.FieldCallee)
		case node.ConditionalExpression:
			n = n.Child(node.FieldTest)
		case node.UpdateExpression:
			if n.Flag(node.PropPrefix) {
				return false
			}

			n = n.Child(node.FieldArgument)
		case node.SequenceExpression:
			exprs := n.List(node.FieldExpressions)
			if len(exprs) == 0 {
				return false
			}

			n = exprs[0]
		case node.Opaque:
			return strings.HasPrefix(n.Token, "class") || strings.HasPrefix(n.Token, "{")
		default:
			return false
		}
	}

	return false
}

func mixesNullish(parent, child *node.Node) bool {
	if child.Kind != node.LogicalExpression {
		return false
	}

	parentNullish := parent.Operator() == "??"
	childNullish := child.Operator() == "??"

	return parentNullish != childNullish && parent.Kind == node.LogicalExpression
}

func containsCall(n *node.Node) bool {
	for n != nil {
		switch n.Kind {
		case node.CallExpression:
			return true
		case node.MemberExpression:
			n = n.Child(node.FieldObject)
		default:
			return false
		}
	}

	return false
}

func isIntegerLiteral(n *node.Node) bool {
	if n.Kind != node.Literal || n.Token == "" {
		return false
	}

	for _, r := range n.Token {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

// signCollides catches "- -x" and "+ +x" which would print as a decrement or increment.
func signCollides(parent, child *node.Node) bool {
	op := parent.Operator()
	if op != "-" && op != "+" {
		return false
	}

	switch child.Kind {
	case node.UnaryExpression, node.UpdateExpression:
		return strings.HasPrefix(child.Operator(), op) && (child.Kind == node.UnaryExpression || child.Flag(node.PropPrefix))
	case node.Literal:
		return strings.HasPrefix(child.Token, op)
	default:
		return false
	}
}

func opaqueAcceptsExpression(parent *node.Node) bool {
	typ := parent.Prop(node.PropType)

	switch typ {
	case "template_substitution", "spread_element", "switch_case", "parenthesized_expression":
		return true
	}

	return strings.HasSuffix(typ, "_statement") || strings.HasSuffix(typ, "_declaration")
}
