package estree_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/jsmorph/pkg/estree"
	"github.com/Sumatoshi-tech/jsmorph/pkg/estree/node"
)

func parse(t *testing.T, src string) *node.Node {
	t.Helper()

	parser, err := estree.NewParser()
	require.NoError(t, err)

	root, err := parser.ParseString(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, node.Program, root.Kind)

	return root
}

// firstExpression returns the expression of the first statement.
func firstExpression(t *testing.T, src string) *node.Node {
	t.Helper()

	root := parse(t, src)
	body := root.List(node.FieldBody)
	require.NotEmpty(t, body)
	require.Equal(t, node.ExpressionStatement, body[0].Kind, root.String())

	return body[0].Child(node.FieldExpression)
}

func firstStatement(t *testing.T, src string) *node.Node {
	t.Helper()

	body := parse(t, src).List(node.FieldBody)
	require.NotEmpty(t, body)

	return body[0]
}

func TestParseExpressions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		kind     node.Kind
		operator string
	}{
		{name: "binary", input: "1 + 2", kind: node.BinaryExpression, operator: "+"},
		{name: "logical", input: "a && b", kind: node.LogicalExpression, operator: "&&"},
		{name: "nullish", input: "a ?? b", kind: node.LogicalExpression, operator: "??"},
		{name: "assignment", input: "a = b", kind: node.AssignmentExpression, operator: "="},
		{name: "augmented", input: "a += 1", kind: node.AssignmentExpression, operator: "+="},
		{name: "unary", input: "!a", kind: node.UnaryExpression, operator: "!"},
		{name: "typeof", input: "typeof a", kind: node.UnaryExpression, operator: "typeof"},
		{name: "conditional", input: "c ? d : e", kind: node.ConditionalExpression},
		{name: "this", input: "this", kind: node.ThisExpression},
		{name: "identifier", input: "foo", kind: node.Identifier},
		{name: "string", input: `"hi"`, kind: node.Literal},
		{name: "regex", input: "/ab+c/g", kind: node.Literal},
		{name: "null", input: "null", kind: node.Literal},
		{name: "parenthesized", input: "(a * b)", kind: node.BinaryExpression, operator: "*"},
		{name: "new", input: "new Foo(1)", kind: node.NewExpression},
		{name: "template", input: "`x${y}`", kind: node.Opaque},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			expr := firstExpression(t, tt.input)
			require.NotNil(t, expr)
			assert.Equal(t, tt.kind, expr.Kind, expr.String())
			assert.Equal(t, tt.operator, expr.Operator())
		})
	}
}

func TestParseLiteralKeepsRaw(t *testing.T) {
	t.Parallel()

	expr := firstExpression(t, "0x1F")
	assert.Equal(t, node.Literal, expr.Kind)
	assert.Equal(t, "0x1F", expr.Token)

	str := firstExpression(t, "'single'")
	assert.Equal(t, "'single'", str.Token)
}

func TestParseCall(t *testing.T) {
	t.Parallel()

	call := firstExpression(t, "f(1, g(2), x)")
	require.Equal(t, node.CallExpression, call.Kind)
	assert.Equal(t, "f", call.Child(node.FieldCallee).Name())

	args := call.List(node.FieldArguments)
	require.Len(t, args, 3)
	assert.Equal(t, node.Literal, args[0].Kind)
	assert.Equal(t, node.CallExpression, args[1].Kind)
	assert.Equal(t, "x", args[2].Name())
}

func TestParseUpdatePrefix(t *testing.T) {
	t.Parallel()

	post := firstExpression(t, "x++")
	require.Equal(t, node.UpdateExpression, post.Kind)
	assert.Equal(t, "++", post.Operator())
	assert.False(t, post.Flag(node.PropPrefix))

	pre := firstExpression(t, "--x")
	assert.Equal(t, "--", pre.Operator())
	assert.True(t, pre.Flag(node.PropPrefix))
}

func TestParseMemberExpressions(t *testing.T) {
	t.Parallel()

	dot := firstExpression(t, "obj.key")
	require.Equal(t, node.MemberExpression, dot.Kind)
	assert.False(t, dot.Flag(node.PropComputed))
	assert.Equal(t, "key", dot.Child(node.FieldProperty).Name())

	index := firstExpression(t, "obj[k]")
	require.Equal(t, node.MemberExpression, index.Kind)
	assert.True(t, index.Flag(node.PropComputed))
	assert.Equal(t, "k", index.Child(node.FieldProperty).Name())
}

func TestParseArrayHoles(t *testing.T) {
	t.Parallel()

	arr := firstExpression(t, "[1,,2]")
	require.Equal(t, node.ArrayExpression, arr.Kind)

	elements := arr.List(node.FieldElements)
	require.Len(t, elements, 3)
	assert.Nil(t, elements[1])
	assert.Equal(t, "2", elements[2].Token)
}

func TestParseObject(t *testing.T) {
	t.Parallel()

	obj := firstExpression(t, "({a: 1, b, [c]: 2, m() {}})")
	require.Equal(t, node.ObjectExpression, obj.Kind)

	props := obj.List(node.FieldProperties)
	require.Len(t, props, 4)

	assert.Equal(t, "a", props[0].Child(node.FieldKey).Name())
	assert.Equal(t, "init", props[0].Prop(node.PropKind))

	assert.True(t, props[1].Flag(node.PropShorthand))
	assert.Equal(t, "b", props[1].Child(node.FieldValue).Name())

	assert.True(t, props[2].Flag(node.PropComputed))
	assert.Equal(t, "c", props[2].Child(node.FieldKey).Name())

	assert.True(t, props[3].Flag(node.PropMethod))
	assert.Equal(t, node.FunctionExpression, props[3].Child(node.FieldValue).Kind)
}

func TestParseSequenceFlattens(t *testing.T) {
	t.Parallel()

	seq := firstExpression(t, "(a, b, c)")
	require.Equal(t, node.SequenceExpression, seq.Kind)
	assert.Len(t, seq.List(node.FieldExpressions), 3)
}

func TestParseDeclarations(t *testing.T) {
	t.Parallel()

	decl := firstStatement(t, "var a = 1, b;")
	require.Equal(t, node.VariableDeclaration, decl.Kind)
	assert.Equal(t, "var", decl.Prop(node.PropKind))

	declarators := decl.List(node.FieldDeclarations)
	require.Len(t, declarators, 2)
	assert.Equal(t, "a", declarators[0].Child(node.FieldID).Name())
	assert.Equal(t, "1", declarators[0].Child(node.FieldInit).Token)
	assert.Nil(t, declarators[1].Child(node.FieldInit))

	lexical := firstStatement(t, "const x = 1;")
	assert.Equal(t, "const", lexical.Prop(node.PropKind))
}

func TestParseFunction(t *testing.T) {
	t.Parallel()

	fn := firstStatement(t, "function f(a, b = 2, ...c) { return a; }")
	require.Equal(t, node.FunctionDeclaration, fn.Kind)
	assert.Equal(t, "f", fn.Child(node.FieldID).Name())

	params := fn.List(node.FieldParams)
	require.Len(t, params, 2)
	assert.Equal(t, "b", params[1].Name())

	defaults := fn.List(node.FieldDefaults)
	require.Len(t, defaults, 2)
	assert.Nil(t, defaults[0])
	assert.Equal(t, "2", defaults[1].Token)

	assert.Equal(t, "c", fn.Child(node.FieldRest).Name())

	body := fn.Child(node.FieldBody)
	require.Equal(t, node.BlockStatement, body.Kind)
	require.Len(t, body.List(node.FieldBody), 1)
	assert.Equal(t, node.ReturnStatement, body.List(node.FieldBody)[0].Kind)
}

func TestParseFunctionExpressionWithoutDefaults(t *testing.T) {
	t.Parallel()

	fn := firstExpression(t, "(function (a) { a; })")
	require.Equal(t, node.FunctionExpression, fn.Kind)
	assert.Nil(t, fn.Child(node.FieldID))
	assert.Empty(t, fn.List(node.FieldDefaults))
	assert.False(t, fn.Flag(node.PropGenerator))
}

func TestParseArrow(t *testing.T) {
	t.Parallel()

	arrow := firstExpression(t, "x => x * 2")
	require.Equal(t, node.ArrowFunctionExpression, arrow.Kind)
	assert.True(t, arrow.Flag(node.PropExpression))
	require.Len(t, arrow.List(node.FieldParams), 1)

	block := firstExpression(t, "(a, b) => { return a; }")
	assert.False(t, block.Flag(node.PropExpression))
	assert.Len(t, block.List(node.FieldParams), 2)
}

func TestParseStatements(t *testing.T) {
	t.Parallel()

	loop := firstStatement(t, "for (var i = 0; i < n; i++) {}")
	require.Equal(t, node.ForStatement, loop.Kind)
	assert.Equal(t, node.VariableDeclaration, loop.Child(node.FieldInit).Kind)
	assert.Equal(t, node.BinaryExpression, loop.Child(node.FieldTest).Kind)
	assert.Equal(t, node.UpdateExpression, loop.Child(node.FieldUpdate).Kind)
	assert.Equal(t, node.BlockStatement, loop.Child(node.FieldBody).Kind)

	forever := firstStatement(t, "for (;;) {}")
	assert.Nil(t, forever.Child(node.FieldInit))
	assert.Nil(t, forever.Child(node.FieldTest))
	assert.Nil(t, forever.Child(node.FieldUpdate))

	branch := firstStatement(t, "if (a) b; else c;")
	require.Equal(t, node.IfStatement, branch.Kind)
	assert.Equal(t, "a", branch.Child(node.FieldTest).Name())
	assert.Equal(t, node.ExpressionStatement, branch.Child(node.FieldAlternate).Kind)

	while := firstStatement(t, "while (x) x--;")
	require.Equal(t, node.WhileStatement, while.Kind)
	assert.Equal(t, "x", while.Child(node.FieldTest).Name())
}

func TestParseOpaqueKeepsChildren(t *testing.T) {
	t.Parallel()

	stmt := firstStatement(t, "throw f(1);")
	require.Equal(t, node.Opaque, stmt.Kind)
	assert.Equal(t, "throw_statement", stmt.Prop(node.PropType))
	assert.Equal(t, "throw f(1);", stmt.Token)

	calls := stmt.Find(func(n *node.Node) bool { return n.Kind == node.CallExpression })
	assert.Len(t, calls, 1)
}

func TestParseSkipsComments(t *testing.T) {
	t.Parallel()

	root := parse(t, "// leading\nx; /* trailing */")
	assert.Len(t, root.List(node.FieldBody), 1)
}

func TestParsePositions(t *testing.T) {
	t.Parallel()

	call := firstExpression(t, "foo(bar)")
	arg := call.List(node.FieldArguments)[0]

	require.NotNil(t, arg.Pos)
	assert.Equal(t, uint(1), arg.Pos.StartLine)
	assert.Equal(t, uint(5), arg.Pos.StartCol)
	assert.Equal(t, uint(4), arg.Start())
	assert.Equal(t, uint(7), arg.End())
	assert.Equal(t, "bar", arg.Text([]byte("foo(bar)")))
}

func TestParseSyntaxErrors(t *testing.T) {
	t.Parallel()

	parser, err := estree.NewParser()
	require.NoError(t, err)

	for _, input := range []string{"f(", "1 +", "var = 3", "{"} {
		_, parseErr := parser.ParseString(context.Background(), input)
		require.Error(t, parseErr, input)
		assert.ErrorIs(t, parseErr, estree.ErrSyntax, input)

		var syntaxErr *estree.SyntaxError
		require.True(t, errors.As(parseErr, &syntaxErr), input)
		assert.Equal(t, uint(1), syntaxErr.Line)
	}
}

func TestParseEmptyProgram(t *testing.T) {
	t.Parallel()

	root := parse(t, "")
	assert.Empty(t, root.List(node.FieldBody))
}

func TestParserConcurrentUse(t *testing.T) {
	t.Parallel()

	parser, err := estree.NewParser()
	require.NoError(t, err)

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			root, parseErr := parser.ParseString(context.Background(), "a + b; f(c);")
			assert.NoError(t, parseErr)
			assert.Len(t, root.List(node.FieldBody), 2)
		}()
	}

	wg.Wait()
}
