package estree

import (
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/jsmorph/pkg/estree/node"
)

// Tree-sitter node types with special handling.
const (
	tsComment     = "comment"
	tsHTMLComment = "html_comment"
	tsHashBang    = "hash_bang_line"
)

// logicalOperators are the binary operators ESTree splits out as LogicalExpression.
//
//nolint:gochecknoglobals // read-only lookup table.
var logicalOperators = map[string]bool{"&&": true, "||": true, "??": true}

// lowerer converts a tree-sitter concrete syntax tree into the node model.
type lowerer struct {
	source []byte
}

func (lw *lowerer) lower(ts sitter.Node) *node.Node {
	if ts.IsNull() {
		return nil
	}

	switch ts.Type() {
	case "program":
		return lw.newNode(node.Program, ts).SetList(node.FieldBody, lw.lowerAll(ts))
	case "statement_block":
		return lw.newNode(node.BlockStatement, ts).SetList(node.FieldBody, lw.lowerAll(ts))
	case "empty_statement":
		return lw.newNode(node.EmptyStatement, ts)
	case "expression_statement":
		return lw.newNode(node.ExpressionStatement, ts).SetChild(node.FieldExpression, lw.lower(lw.firstNamed(ts)))
	case "return_statement":
		return lw.newNode(node.ReturnStatement, ts).SetChild(node.FieldArgument, lw.lower(lw.firstNamed(ts)))
	case "if_statement":
		return lw.lowerIf(ts)
	case "for_statement":
		return lw.lowerFor(ts)
	case "while_statement":
		return lw.newNode(node.WhileStatement, ts).
			SetChild(node.FieldTest, lw.lowerField(ts, "condition")).
			SetChild(node.FieldBody, lw.lowerField(ts, "body"))
	case "variable_declaration", "lexical_declaration":
		return lw.lowerDeclaration(ts)
	case "variable_declarator":
		return lw.newNode(node.VariableDeclarator, ts).
			SetChild(node.FieldID, lw.lowerField(ts, "name")).
			SetChild(node.FieldInit, lw.lowerField(ts, "value"))
	case "function_declaration", "generator_function_declaration":
		return lw.lowerFunction(ts, node.FunctionDeclaration)
	case "function_expression", "function", "generator_function":
		return lw.lowerFunction(ts, node.FunctionExpression)
	case "arrow_function":
		return lw.lowerArrow(ts)
	case "parenthesized_expression":
		inner := lw.lower(lw.firstNamed(ts))
		if inner != nil {
			inner.Parens++
		}

		return inner
	default:
		return lw.lowerExpression(ts)
	}
}

func (lw *lowerer) lowerExpression(ts sitter.Node) *node.Node {
	switch ts.Type() {
	case "identifier", "property_identifier", "shorthand_property_identifier",
		"private_property_identifier", "statement_identifier", "undefined":
		return lw.newNode(node.Identifier, ts)
	case "number", "string", "true", "false", "null", "regex":
		return lw.newNode(node.Literal, ts)
	case "this":
		return lw.newNode(node.ThisExpression, ts)
	case "array":
		return lw.lowerArray(ts)
	case "object":
		return lw.lowerObject(ts)
	case "member_expression":
		return lw.newNode(node.MemberExpression, ts).
			SetFlag(node.PropComputed, false).
			SetChild(node.FieldObject, lw.lowerField(ts, "object")).
			SetChild(node.FieldProperty, lw.lowerField(ts, "property"))
	case "subscript_expression":
		return lw.newNode(node.MemberExpression, ts).
			SetFlag(node.PropComputed, true).
			SetChild(node.FieldObject, lw.lowerField(ts, "object")).
			SetChild(node.FieldProperty, lw.lowerField(ts, "index"))
	case "call_expression":
		return lw.lowerCall(ts)
	case "new_expression":
		return lw.lowerNew(ts)
	case "binary_expression":
		return lw.lowerBinary(ts)
	case "unary_expression":
		return lw.newNode(node.UnaryExpression, ts).
			SetProp(node.PropOperator, lw.operator(ts)).
			SetFlag(node.PropPrefix, true).
			SetChild(node.FieldArgument, lw.lowerField(ts, "argument"))
	case "update_expression":
		op := lw.operator(ts)

		return lw.newNode(node.UpdateExpression, ts).
			SetProp(node.PropOperator, op).
			SetFlag(node.PropPrefix, ts.ChildCount() > 0 && ts.Child(0).Type() == op).
			SetChild(node.FieldArgument, lw.lowerField(ts, "argument"))
	case "assignment_expression":
		return lw.newNode(node.AssignmentExpression, ts).
			SetProp(node.PropOperator, "=").
			SetChild(node.FieldLeft, lw.lowerField(ts, "left")).
			SetChild(node.FieldRight, lw.lowerField(ts, "right"))
	case "augmented_assignment_expression":
		return lw.newNode(node.AssignmentExpression, ts).
			SetProp(node.PropOperator, lw.operator(ts)).
			SetChild(node.FieldLeft, lw.lowerField(ts, "left")).
			SetChild(node.FieldRight, lw.lowerField(ts, "right"))
	case "ternary_expression":
		return lw.newNode(node.ConditionalExpression, ts).
			SetChild(node.FieldTest, lw.lowerField(ts, "condition")).
			SetChild(node.FieldConsequent, lw.lowerField(ts, "consequence")).
			SetChild(node.FieldAlternate, lw.lowerField(ts, "alternative"))
	case "sequence_expression":
		return lw.newNode(node.SequenceExpression, ts).SetList(node.FieldExpressions, lw.flattenSequence(ts, nil))
	default:
		return lw.lowerOpaque(ts)
	}
}

func (lw *lowerer) newNode(kind node.Kind, ts sitter.Node) *node.Node {
	n := node.New(kind)
	n.Pos = positions(ts)

	if kind == node.Identifier || kind == node.Literal {
		n.Token = ts.Content(lw.source)
	}

	return n
}

func positions(ts sitter.Node) *node.Positions {
	start := ts.StartPoint()
	end := ts.EndPoint()

	return node.NewPositions(
		start.Row+1,
		start.Column+1,
		ts.StartByte(),
		end.Row+1,
		end.Column+1,
		ts.EndByte(),
	)
}

func isExtra(ts sitter.Node) bool {
	switch ts.Type() {
	case tsComment, tsHTMLComment, tsHashBang:
		return true
	default:
		return false
	}
}

// namedChildren returns the named children of ts, without comments.
func (lw *lowerer) namedChildren(ts sitter.Node) []sitter.Node {
	var children []sitter.Node

	for idx := range ts.NamedChildCount() {
		child := ts.NamedChild(idx)
		if !isExtra(child) {
			children = append(children, child)
		}
	}

	return children
}

func (lw *lowerer) firstNamed(ts sitter.Node) sitter.Node {
	for idx := range ts.NamedChildCount() {
		child := ts.NamedChild(idx)
		if !isExtra(child) {
			return child
		}
	}

	return sitter.Node{}
}

func (lw *lowerer) lowerAll(ts sitter.Node) []*node.Node {
	children := lw.namedChildren(ts)
	lowered := make([]*node.Node, 0, len(children))

	for _, child := range children {
		lowered = append(lowered, lw.lower(child))
	}

	return lowered
}

func (lw *lowerer) lowerField(ts sitter.Node, field string) *node.Node {
	return lw.lower(ts.ChildByFieldName(field))
}

func (lw *lowerer) operator(ts sitter.Node) string {
	op := ts.ChildByFieldName("operator")
	if op.IsNull() {
		return ""
	}

	return op.Content(lw.source)
}

func (lw *lowerer) lowerIf(ts sitter.Node) *node.Node {
	stmt := lw.newNode(node.IfStatement, ts).
		SetChild(node.FieldTest, lw.lowerField(ts, "condition")).
		SetChild(node.FieldConsequent, lw.lowerField(ts, "consequence"))

	var alternate *node.Node

	if elseClause := ts.ChildByFieldName("alternative"); !elseClause.IsNull() {
		if elseClause.Type() == "else_clause" {
			alternate = lw.lower(lw.firstNamed(elseClause))
		} else {
			alternate = lw.lower(elseClause)
		}
	}

	return stmt.SetChild(node.FieldAlternate, alternate)
}

func (lw *lowerer) lowerFor(ts sitter.Node) *node.Node {
	return lw.newNode(node.ForStatement, ts).
		SetChild(node.FieldInit, lw.forClause(ts.ChildByFieldName("initializer"))).
		SetChild(node.FieldTest, lw.forClause(ts.ChildByFieldName("condition"))).
		SetChild(node.FieldUpdate, lw.forClause(ts.ChildByFieldName("increment"))).
		SetChild(node.FieldBody, lw.lowerField(ts, "body"))
}

// forClause unwraps the statement forms tree-sitter uses for loop header parts.
func (lw *lowerer) forClause(ts sitter.Node) *node.Node {
	if ts.IsNull() {
		return nil
	}

	switch ts.Type() {
	case "empty_statement", ";":
		return nil
	case "expression_statement":
		return lw.lower(lw.firstNamed(ts))
	default:
		return lw.lower(ts)
	}
}

func (lw *lowerer) lowerDeclaration(ts sitter.Node) *node.Node {
	decl := lw.newNode(node.VariableDeclaration, ts)

	kind := "var"
	if ts.ChildCount() > 0 {
		kind = ts.Child(0).Type()
	}

	decl.SetProp(node.PropKind, kind)

	declarators := make([]*node.Node, 0, ts.NamedChildCount())

	for _, child := range lw.namedChildren(ts) {
		if child.Type() == "variable_declarator" {
			declarators = append(declarators, lw.lower(child))
		}
	}

	return decl.SetList(node.FieldDeclarations, declarators)
}

func (lw *lowerer) lowerFunction(ts sitter.Node, kind node.Kind) *node.Node {
	fn := lw.newNode(kind, ts).
		SetChild(node.FieldID, lw.lowerField(ts, "name")).
		SetFlag(node.PropGenerator, ts.Type() == "generator_function" || ts.Type() == "generator_function_declaration").
		SetFlag(node.PropExpression, false).
		SetFlag(node.PropAsync, ts.ChildCount() > 0 && ts.Child(0).Type() == "async")

	lw.lowerParams(fn, ts.ChildByFieldName("parameters"))

	return fn.SetChild(node.FieldBody, lw.lowerField(ts, "body"))
}

func (lw *lowerer) lowerArrow(ts sitter.Node) *node.Node {
	fn := lw.newNode(node.ArrowFunctionExpression, ts).
		SetFlag(node.PropAsync, ts.ChildCount() > 0 && ts.Child(0).Type() == "async")

	if single := ts.ChildByFieldName("parameter"); !single.IsNull() {
		fn.SetList(node.FieldParams, []*node.Node{lw.lower(single)}).
			SetList(node.FieldDefaults, []*node.Node{}).
			SetChild(node.FieldRest, nil)
	} else {
		lw.lowerParams(fn, ts.ChildByFieldName("parameters"))
	}

	body := ts.ChildByFieldName("body")

	return fn.SetFlag(node.PropExpression, !body.IsNull() && body.Type() != "statement_block").
		SetChild(node.FieldBody, lw.lower(body))
}

// lowerParams fills params, defaults and rest. Defaults stay empty unless a
// parameter has one, in which case the list runs parallel to params.
func (lw *lowerer) lowerParams(fn *node.Node, ts sitter.Node) {
	params := []*node.Node{}
	defaults := []*node.Node{}
	hasDefault := false

	var rest *node.Node

	if !ts.IsNull() {
		for _, child := range lw.namedChildren(ts) {
			switch child.Type() {
			case "assignment_pattern":
				params = append(params, lw.lowerField(child, "left"))
				defaults = append(defaults, lw.lowerField(child, "right"))
				hasDefault = true
			case "rest_pattern":
				rest = lw.lower(lw.firstNamed(child))
			default:
				params = append(params, lw.lower(child))
				defaults = append(defaults, nil)
			}
		}
	}

	if !hasDefault {
		defaults = []*node.Node{}
	}

	fn.SetList(node.FieldParams, params).
		SetList(node.FieldDefaults, defaults).
		SetChild(node.FieldRest, rest)
}

func (lw *lowerer) lowerArray(ts sitter.Node) *node.Node {
	elements := []*node.Node{}
	expectElement := true

	for i := range ts.ChildCount() {
		child := ts.Child(i)

		switch {
		case child.Type() == ",":
			if expectElement {
				elements = append(elements, nil)
			}

			expectElement = true
		case child.IsNamed() && !isExtra(child):
			elements = append(elements, lw.lower(child))
			expectElement = false
		}
	}

	return lw.newNode(node.ArrayExpression, ts).SetList(node.FieldElements, elements)
}

func (lw *lowerer) lowerObject(ts sitter.Node) *node.Node {
	properties := []*node.Node{}

	for _, child := range lw.namedChildren(ts) {
		properties = append(properties, lw.lowerProperty(child))
	}

	return lw.newNode(node.ObjectExpression, ts).SetList(node.FieldProperties, properties)
}

func (lw *lowerer) lowerProperty(ts sitter.Node) *node.Node {
	switch ts.Type() {
	case "pair":
		prop := lw.newNode(node.Property, ts).
			SetProp(node.PropKind, "init").
			SetFlag(node.PropMethod, false).
			SetFlag(node.PropShorthand, false)
		lw.setPropertyKey(prop, ts.ChildByFieldName("key"))

		return prop.SetChild(node.FieldValue, lw.lowerField(ts, "value"))
	case "shorthand_property_identifier":
		key := lw.newNode(node.Identifier, ts)

		return lw.newNode(node.Property, ts).
			SetProp(node.PropKind, "init").
			SetFlag(node.PropComputed, false).
			SetFlag(node.PropMethod, false).
			SetFlag(node.PropShorthand, true).
			SetChild(node.FieldKey, key).
			SetChild(node.FieldValue, key.Clone())
	case "method_definition":
		return lw.lowerMethod(ts)
	default:
		return lw.lower(ts)
	}
}

func (lw *lowerer) setPropertyKey(prop *node.Node, key sitter.Node) {
	if !key.IsNull() && key.Type() == "computed_property_name" {
		prop.SetFlag(node.PropComputed, true).SetChild(node.FieldKey, lw.lower(lw.firstNamed(key)))

		return
	}

	prop.SetFlag(node.PropComputed, false).SetChild(node.FieldKey, lw.lower(key))
}

func (lw *lowerer) lowerMethod(ts sitter.Node) *node.Node {
	kind := "init"
	generator := false
	async := false

	for i := range ts.ChildCount() {
		switch child := ts.Child(i); child.Type() {
		case "get", "set":
			kind = child.Type()
		case "*":
			generator = true
		case "async":
			async = true
		}
	}

	fn := lw.newNode(node.FunctionExpression, ts).
		SetChild(node.FieldID, nil).
		SetFlag(node.PropGenerator, generator).
		SetFlag(node.PropExpression, false).
		SetFlag(node.PropAsync, async)
	lw.lowerParams(fn, ts.ChildByFieldName("parameters"))
	fn.SetChild(node.FieldBody, lw.lowerField(ts, "body"))

	prop := lw.newNode(node.Property, ts).
		SetProp(node.PropKind, kind).
		SetFlag(node.PropMethod, kind == "init").
		SetFlag(node.PropShorthand, false)
	lw.setPropertyKey(prop, ts.ChildByFieldName("name"))

	return prop.SetChild(node.FieldValue, fn)
}

func (lw *lowerer) lowerCall(ts sitter.Node) *node.Node {
	args := ts.ChildByFieldName("arguments")
	if args.IsNull() || args.Type() != "arguments" {
		// Tagged templates keep their raw text.
		return lw.lowerOpaque(ts)
	}

	optional := false

	for i := range ts.ChildCount() {
		if ts.Child(i).Type() == "optional_chain" {
			optional = true
		}
	}

	return lw.newNode(node.CallExpression, ts).
		SetFlag(node.PropOptional, optional).
		SetChild(node.FieldCallee, lw.lowerField(ts, "function")).
		SetList(node.FieldArguments, lw.lowerAll(args))
}

func (lw *lowerer) lowerNew(ts sitter.Node) *node.Node {
	arguments := []*node.Node{}
	if args := ts.ChildByFieldName("arguments"); !args.IsNull() {
		arguments = lw.lowerAll(args)
	}

	return lw.newNode(node.NewExpression, ts).
		SetChild(node.FieldCallee, lw.lowerField(ts, "constructor")).
		SetList(node.FieldArguments, arguments)
}

func (lw *lowerer) lowerBinary(ts sitter.Node) *node.Node {
	op := lw.operator(ts)

	kind := node.BinaryExpression
	if logicalOperators[op] {
		kind = node.LogicalExpression
	}

	return lw.newNode(kind, ts).
		SetProp(node.PropOperator, op).
		SetChild(node.FieldLeft, lw.lowerField(ts, "left")).
		SetChild(node.FieldRight, lw.lowerField(ts, "right"))
}

// flattenSequence collects the operands of nested comma expressions.
func (lw *lowerer) flattenSequence(ts sitter.Node, acc []*node.Node) []*node.Node {
	for _, child := range lw.namedChildren(ts) {
		if child.Type() == "sequence_expression" {
			acc = lw.flattenSequence(child, acc)

			continue
		}

		acc = append(acc, lw.lower(child))
	}

	return acc
}

func (lw *lowerer) lowerOpaque(ts sitter.Node) *node.Node {
	n := lw.newNode(node.Opaque, ts)
	n.Token = ts.Content(lw.source)
	n.SetProp(node.PropType, ts.Type())

	return n.SetList(node.FieldChildren, lw.lowerAll(ts))
}
