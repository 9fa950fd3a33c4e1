package node

import (
	"slices"
)

// Kind identifies the syntax form of a node. The vocabulary follows ESTree naming.
type Kind string

// Statement kinds.
const (
	Program             Kind = "Program"
	BlockStatement      Kind = "BlockStatement"
	EmptyStatement      Kind = "EmptyStatement"
	ExpressionStatement Kind = "ExpressionStatement"
	ReturnStatement     Kind = "ReturnStatement"
	IfStatement         Kind = "IfStatement"
	ForStatement        Kind = "ForStatement"
	WhileStatement      Kind = "WhileStatement"
	VariableDeclaration Kind = "VariableDeclaration"
	VariableDeclarator  Kind = "VariableDeclarator"
	FunctionDeclaration Kind = "FunctionDeclaration"
)

// Expression kinds.
const (
	Identifier              Kind = "Identifier"
	Literal                 Kind = "Literal"
	ThisExpression          Kind = "ThisExpression"
	ArrayExpression         Kind = "ArrayExpression"
	ObjectExpression        Kind = "ObjectExpression"
	Property                Kind = "Property"
	FunctionExpression      Kind = "FunctionExpression"
	ArrowFunctionExpression Kind = "ArrowFunctionExpression"
	MemberExpression        Kind = "MemberExpression"
	CallExpression          Kind = "CallExpression"
	NewExpression           Kind = "NewExpression"
	BinaryExpression        Kind = "BinaryExpression"
	LogicalExpression       Kind = "LogicalExpression"
	AssignmentExpression    Kind = "AssignmentExpression"
	UnaryExpression         Kind = "UnaryExpression"
	UpdateExpression        Kind = "UpdateExpression"
	ConditionalExpression   Kind = "ConditionalExpression"
	SequenceExpression      Kind = "SequenceExpression"
)

// Opaque wraps syntax outside the vocabulary. Its Token holds the raw source
// text and its "children" list holds whatever could be lowered beneath it.
const Opaque Kind = "Opaque"

// Field names shared by several kinds.
const (
	FieldBody         = "body"
	FieldExpression   = "expression"
	FieldArgument     = "argument"
	FieldTest         = "test"
	FieldConsequent   = "consequent"
	FieldAlternate    = "alternate"
	FieldInit         = "init"
	FieldUpdate       = "update"
	FieldDeclarations = "declarations"
	FieldID           = "id"
	FieldParams       = "params"
	FieldDefaults     = "defaults"
	FieldRest         = "rest"
	FieldElements     = "elements"
	FieldProperties   = "properties"
	FieldKey          = "key"
	FieldValue        = "value"
	FieldObject       = "object"
	FieldProperty     = "property"
	FieldCallee       = "callee"
	FieldArguments    = "arguments"
	FieldLeft         = "left"
	FieldRight        = "right"
	FieldExpressions  = "expressions"
	FieldChildren     = "children"
)

// Property keys for scalar attributes.
const (
	PropOperator   = "operator"
	PropKind       = "kind"
	PropPrefix     = "prefix"
	PropComputed   = "computed"
	PropGenerator  = "generator"
	PropExpression = "expression"
	PropAsync      = "async"
	PropMethod     = "method"
	PropShorthand  = "shorthand"
	PropOptional   = "optional"
	PropType       = "type"
)

// Field describes one child slot of a kind.
type Field struct {
	Name string
	List bool
}

// Shape lists the scalar props and child fields of a kind, fields in source order.
type Shape struct {
	Props  []string
	Fields []Field
}

func one(name string) Field  { return Field{Name: name} }
func many(name string) Field { return Field{Name: name, List: true} }

func functionShape() Shape {
	return Shape{
		Props: []string{PropGenerator, PropExpression, PropAsync},
		Fields: []Field{
			one(FieldID), many(FieldParams), many(FieldDefaults), one(FieldRest), one(FieldBody),
		},
	}
}

//nolint:gochecknoglobals // read-only kind table.
var shapes = map[Kind]Shape{
	Program:             {Fields: []Field{many(FieldBody)}},
	BlockStatement:      {Fields: []Field{many(FieldBody)}},
	EmptyStatement:      {},
	ExpressionStatement: {Fields: []Field{one(FieldExpression)}},
	ReturnStatement:     {Fields: []Field{one(FieldArgument)}},
	IfStatement:         {Fields: []Field{one(FieldTest), one(FieldConsequent), one(FieldAlternate)}},
	ForStatement:        {Fields: []Field{one(FieldInit), one(FieldTest), one(FieldUpdate), one(FieldBody)}},
	WhileStatement:      {Fields: []Field{one(FieldTest), one(FieldBody)}},
	VariableDeclaration: {Props: []string{PropKind}, Fields: []Field{many(FieldDeclarations)}},
	VariableDeclarator:  {Fields: []Field{one(FieldID), one(FieldInit)}},
	FunctionDeclaration: functionShape(),

	Identifier:         {},
	Literal:            {},
	ThisExpression:     {},
	ArrayExpression:    {Fields: []Field{many(FieldElements)}},
	ObjectExpression:   {Fields: []Field{many(FieldProperties)}},
	Property:           {Props: []string{PropKind, PropComputed, PropMethod, PropShorthand}, Fields: []Field{one(FieldKey), one(FieldValue)}},
	FunctionExpression: functionShape(),
	ArrowFunctionExpression: {
		Props:  []string{PropExpression, PropAsync},
		Fields: []Field{many(FieldParams), many(FieldDefaults), one(FieldRest), one(FieldBody)},
	},
	MemberExpression:      {Props: []string{PropComputed}, Fields: []Field{one(FieldObject), one(FieldProperty)}},
	CallExpression:        {Props: []string{PropOptional}, Fields: []Field{one(FieldCallee), many(FieldArguments)}},
	NewExpression:         {Fields: []Field{one(FieldCallee), many(FieldArguments)}},
	BinaryExpression:      {Props: []string{PropOperator}, Fields: []Field{one(FieldLeft), one(FieldRight)}},
	LogicalExpression:     {Props: []string{PropOperator}, Fields: []Field{one(FieldLeft), one(FieldRight)}},
	AssignmentExpression:  {Props: []string{PropOperator}, Fields: []Field{one(FieldLeft), one(FieldRight)}},
	UnaryExpression:       {Props: []string{PropOperator, PropPrefix}, Fields: []Field{one(FieldArgument)}},
	UpdateExpression:      {Props: []string{PropOperator, PropPrefix}, Fields: []Field{one(FieldArgument)}},
	ConditionalExpression: {Fields: []Field{one(FieldTest), one(FieldConsequent), one(FieldAlternate)}},
	SequenceExpression:    {Fields: []Field{many(FieldExpressions)}},

	Opaque: {Props: []string{PropType}, Fields: []Field{many(FieldChildren)}},
}

// ShapeOf returns the shape of kind.
func ShapeOf(kind Kind) (Shape, bool) {
	shape, ok := shapes[kind]

	return shape, ok
}

// Kinds returns every kind of the vocabulary except Opaque, sorted.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(shapes))

	for kind := range shapes {
		if kind != Opaque {
			kinds = append(kinds, kind)
		}
	}

	slices.Sort(kinds)

	return kinds
}

// IsStatement reports whether kind appears in statement position.
func IsStatement(kind Kind) bool {
	switch kind {
	case Program, BlockStatement, EmptyStatement, ExpressionStatement, ReturnStatement,
		IfStatement, ForStatement, WhileStatement, VariableDeclaration, FunctionDeclaration:
		return true
	default:
		return false
	}
}
