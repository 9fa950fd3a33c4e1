package printer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/jsmorph/pkg/estree"
	"github.com/Sumatoshi-tech/jsmorph/pkg/estree/node"
	"github.com/Sumatoshi-tech/jsmorph/pkg/estree/printer"
)

func parseProgram(t *testing.T, src string) *node.Node {
	t.Helper()

	parser, err := estree.NewParser()
	require.NoError(t, err)

	root, err := parser.ParseString(context.Background(), src)
	require.NoError(t, err)

	return root
}

func TestPrintExpressions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "call spacing", input: "f(1,2)", expected: "f(1, 2)"},
		{name: "grouped sum", input: "(a + b) * c", expected: "(a + b) * c"},
		{name: "redundant parens dropped", input: "(a * b) + c", expected: "a * b + c"},
		{name: "right operand same level", input: "a - (b - c)", expected: "a - (b - c)"},
		{name: "left associative chain", input: "a - b - c", expected: "a - b - c"},
		{name: "exponent right associative", input: "a ** b ** c", expected: "a ** b ** c"},
		{name: "exponent grouped left", input: "(a ** b) ** c", expected: "(a ** b) ** c"},
		{name: "nullish with or", input: "a ?? (b || c)", expected: "a ?? (b || c)"},
		{name: "and binds tighter", input: "a && b || c", expected: "a && b || c"},
		{name: "or inside and", input: "(a || b) && c", expected: "(a || b) && c"},
		{name: "assignment chain", input: "x = y = z", expected: "x = y = z"},
		{name: "sequence", input: "(a, b)", expected: "a, b"},
		{name: "sequence argument", input: "f((a, b))", expected: "f((a, b))"},
		{name: "array hole", input: "[1,,2]", expected: "[1, , 2]"},
		{name: "member chain", input: "obj.a[b]", expected: "obj.a[b]"},
		{name: "new", input: "new Foo(1)", expected: "new Foo(1)"},
		{name: "typeof", input: "typeof x", expected: "typeof x"},
		{name: "double negation", input: "-(-x)", expected: "-(-x)"},
		{name: "postfix", input: "x++", expected: "x++"},
		{name: "prefix", input: "--x", expected: "--x"},
		{name: "conditional", input: "c ? d : e", expected: "c ? d : e"},
		{name: "nested conditional test", input: "(a ? b : c) ? d : e", expected: "(a ? b : c) ? d : e"},
		{name: "arrow", input: "x => x * 2", expected: "x => x * 2"},
		{name: "iife", input: "(function () {})()", expected: "(function() {})()"},
		{name: "template verbatim", input: "`x${ y }`", expected: "`x${ y }`"},
		{name: "string verbatim", input: "'q'", expected: "'q'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stmt := parseProgram(t, tt.input).List(node.FieldBody)[0]
			expr := stmt.Child(node.FieldExpression)
			require.NotNil(t, expr)

			assert.Equal(t, tt.expected, printer.Print(expr))
		})
	}
}

func TestPrintStatements(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "declaration", input: "var a = 1, b;", expected: "var a = 1, b;\n"},
		{name: "for loop", input: "for (let i = 0; i < n; i++) {}", expected: "for (let i = 0; i < n; i++) {}\n"},
		{name: "infinite loop", input: "for (;;) {}", expected: "for (;;) {}\n"},
		{name: "if else", input: "if (a) b; else c;", expected: "if (a) b; else c;\n"},
		{name: "while", input: "while (x) x--;", expected: "while (x) x--;\n"},
		{
			name:     "function",
			input:    "function f(a, b = 2, ...c) { return a + b; }",
			expected: "function f(a, b = 2, ...c) {\n    return a + b;\n}\n",
		},
		{
			name:     "arrow block",
			input:    "(a, b) => { return a; };",
			expected: "(a, b) => {\n    return a;\n};\n",
		},
		{name: "empty return", input: "function g() { return; }", expected: "function g() {\n    return;\n}\n"},
		{name: "two statements", input: "a;b", expected: "a;\nb;\n"},
		{name: "opaque statement", input: "throw  err;", expected: "throw  err;\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, printer.Print(parseProgram(t, tt.input)))
		})
	}
}

func TestPrintInExpressionStatement(t *testing.T) {
	t.Parallel()

	stmt := parseProgram(t, "({m(a) {}, [k]: v, b})").List(node.FieldBody)[0]
	obj := stmt.Child(node.FieldExpression)

	assert.Equal(t, "{m(a) {}, [k]: v, b}", printer.Print(obj))
	assert.Equal(t, "({m(a) {}, [k]: v, b})", printer.PrintIn(stmt, node.FieldExpression, obj))
}

func TestPrintNil(t *testing.T) {
	t.Parallel()

	assert.Empty(t, printer.Print(nil))
}

func binary(op string, left, right *node.Node) *node.Node {
	return node.New(node.BinaryExpression).
		SetProp(node.PropOperator, op).
		SetChild(node.FieldLeft, left).
		SetChild(node.FieldRight, right)
}

func unary(op string, arg *node.Node) *node.Node {
	return node.New(node.UnaryExpression).
		SetProp(node.PropOperator, op).
		SetFlag(node.PropPrefix, true).
		SetChild(node.FieldArgument, arg)
}

func TestNeedsParens(t *testing.T) {
	t.Parallel()

	sum := binary("+", node.NewIdentifier("a"), node.NewIdentifier("b"))
	product := binary("*", node.NewIdentifier("a"), node.NewIdentifier("b"))
	call := node.New(node.CallExpression).SetChild(node.FieldCallee, node.NewIdentifier("f"))

	opaque := func(typ string) *node.Node {
		return node.New(node.Opaque).SetProp(node.PropType, typ)
	}

	tests := []struct {
		name   string
		parent *node.Node
		field  string
		child  *node.Node
		want   bool
	}{
		{name: "sum under product", parent: product, field: node.FieldRight, child: sum, want: true},
		{name: "product under sum", parent: sum, field: node.FieldLeft, child: product, want: false},
		{name: "integer member object", parent: node.New(node.MemberExpression), field: node.FieldObject, child: node.NewLiteral("1"), want: true},
		{name: "call in new callee", parent: node.New(node.NewExpression), field: node.FieldCallee, child: call, want: true},
		{name: "call as call callee", parent: node.New(node.CallExpression), field: node.FieldCallee, child: call, want: false},
		{name: "negate negation", parent: unary("-", nil), field: node.FieldArgument, child: unary("-", node.NewIdentifier("x")), want: true},
		{name: "negate not", parent: unary("-", nil), field: node.FieldArgument, child: unary("!", node.NewIdentifier("x")), want: false},
		{name: "unary base of exponent", parent: binary("**", nil, nil), field: node.FieldLeft, child: unary("-", node.NewIdentifier("x")), want: true},
		{name: "sum in argument list", parent: call, field: node.FieldArguments, child: sum, want: false},
		{name: "sum under await", parent: opaque("await_expression"), field: node.FieldChildren, child: sum, want: true},
		{name: "sum under throw", parent: opaque("throw_statement"), field: node.FieldChildren, child: sum, want: false},
		{name: "no parent", parent: nil, field: "", child: sum, want: false},
		{name: "statement child", parent: node.New(node.Program), field: node.FieldBody, child: node.New(node.EmptyStatement), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, printer.NeedsParens(tt.parent, tt.field, tt.child))
		})
	}
}
