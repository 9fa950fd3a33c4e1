// Package node provides the ESTree-shaped JavaScript node model used by the
// parser, printer and rewrite engine.
package node

import (
	"maps"
	"slices"
	"strings"
)

// Flag values stored in Props.
const (
	flagTrue  = "true"
	flagFalse = "false"
)

// Positions represents the byte and line/col offsets for a node.
// Lines and columns are 1-based; offsets are byte offsets into the source.
type Positions struct {
	StartLine   uint `json:"start_line,omitempty"`
	StartCol    uint `json:"start_col,omitempty"`
	StartOffset uint `json:"start_offset,omitempty"`
	EndLine     uint `json:"end_line,omitempty"`
	EndCol      uint `json:"end_col,omitempty"`
	EndOffset   uint `json:"end_offset,omitempty"`
}

// NewPositions creates a Positions value.
func NewPositions(startLine, startCol, startOffset, endLine, endCol, endOffset uint) *Positions {
	return &Positions{
		StartLine:   startLine,
		StartCol:    startCol,
		StartOffset: startOffset,
		EndLine:     endLine,
		EndCol:      endCol,
		EndOffset:   endOffset,
	}
}

// Node is a JavaScript syntax node.
//
// Fields:
//
//	Kind: syntax form, fixed at construction.
//	Token: identifier name, literal raw text, or raw text of an Opaque node.
//	Pos: source positions (optional, absent on synthesized nodes).
//	Props: scalar attributes such as operator or declaration kind.
//	Slots: single-child fields; a missing entry or a nil value is an absent child.
//	Lists: ordered child fields; elements may be nil (array holes, missing defaults).
type Node struct {
	Kind  Kind               `json:"kind"`
	Token string             `json:"token,omitempty"`
	Pos   *Positions         `json:"pos,omitempty"`
	Props map[string]string  `json:"props,omitempty"`
	Slots map[string]*Node   `json:"slots,omitempty"`
	Lists map[string][]*Node `json:"lists,omitempty"`

	// Parens counts the source parentheses directly around the node.
	Parens int `json:"parens,omitempty"`
}

// New creates an empty node of the given kind.
func New(kind Kind) *Node {
	return &Node{Kind: kind}
}

// NewIdentifier creates an Identifier node.
func NewIdentifier(name string) *Node {
	return &Node{Kind: Identifier, Token: name}
}

// NewLiteral creates a Literal node from its raw source text.
func NewLiteral(raw string) *Node {
	return &Node{Kind: Literal, Token: raw}
}

// Name returns the identifier name of an Identifier node.
func (n *Node) Name() string {
	if n == nil || n.Kind != Identifier {
		return ""
	}

	return n.Token
}

// Child returns the single-child field name, or nil.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}

	return n.Slots[name]
}

// SetChild stores child in the single-child field name. A nil child is kept
// as an explicit absent value.
func (n *Node) SetChild(name string, child *Node) *Node {
	if n.Slots == nil {
		n.Slots = make(map[string]*Node, 2) //nolint:mnd // most kinds have two slots or fewer
	}

	n.Slots[name] = child

	return n
}

// List returns the ordered field name.
func (n *Node) List(name string) []*Node {
	if n == nil {
		return nil
	}

	return n.Lists[name]
}

// SetList stores children in the ordered field name.
func (n *Node) SetList(name string, children []*Node) *Node {
	if n.Lists == nil {
		n.Lists = make(map[string][]*Node, 1)
	}

	n.Lists[name] = children

	return n
}

// Append adds children to the ordered field name.
func (n *Node) Append(name string, children ...*Node) *Node {
	return n.SetList(name, append(n.List(name), children...))
}

// Prop returns the scalar attribute key.
func (n *Node) Prop(key string) string {
	if n == nil {
		return ""
	}

	return n.Props[key]
}

// SetProp stores a scalar attribute.
func (n *Node) SetProp(key, value string) *Node {
	if n.Props == nil {
		n.Props = make(map[string]string, 2) //nolint:mnd // operator plus one flag is the common case
	}

	n.Props[key] = value

	return n
}

// Flag reports whether the boolean attribute key is set.
func (n *Node) Flag(key string) bool {
	return n.Prop(key) == flagTrue
}

// SetFlag stores a boolean attribute. False flags are stored explicitly so
// that two nodes built the same way compare equal.
func (n *Node) SetFlag(key string, value bool) *Node {
	if value {
		return n.SetProp(key, flagTrue)
	}

	return n.SetProp(key, flagFalse)
}

// Operator returns the operator attribute.
func (n *Node) Operator() string {
	return n.Prop(PropOperator)
}

// Start returns the start byte offset, or 0 for synthesized nodes.
func (n *Node) Start() uint {
	if n == nil || n.Pos == nil {
		return 0
	}

	return n.Pos.StartOffset
}

// End returns the end byte offset, or 0 for synthesized nodes.
func (n *Node) End() uint {
	if n == nil || n.Pos == nil {
		return 0
	}

	return n.Pos.EndOffset
}

// Text returns the source text covered by the node.
func (n *Node) Text(source []byte) string {
	start, end := n.Start(), n.End()
	if n == nil || n.Pos == nil || end > uint(len(source)) || start > end {
		return ""
	}

	return string(source[start:end])
}

// Children returns the present children in source order.
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}

	shape, ok := shapes[n.Kind]
	if !ok {
		return nil
	}

	var children []*Node

	for _, field := range shape.Fields {
		if field.List {
			for _, child := range n.Lists[field.Name] {
				if child != nil {
					children = append(children, child)
				}
			}

			continue
		}

		if child := n.Slots[field.Name]; child != nil {
			children = append(children, child)
		}
	}

	return children
}

// Clone returns a deep copy of the tree rooted at n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	clone := &Node{Kind: n.Kind, Token: n.Token, Parens: n.Parens}

	if n.Pos != nil {
		pos := *n.Pos
		clone.Pos = &pos
	}

	if n.Props != nil {
		clone.Props = maps.Clone(n.Props)
	}

	if n.Slots != nil {
		clone.Slots = make(map[string]*Node, len(n.Slots))

		for name, child := range n.Slots {
			clone.Slots[name] = child.Clone()
		}
	}

	if n.Lists != nil {
		clone.Lists = make(map[string][]*Node, len(n.Lists))

		for name, list := range n.Lists {
			copied := make([]*Node, len(list))

			for i, child := range list {
				copied[i] = child.Clone()
			}

			clone.Lists[name] = copied
		}
	}

	return clone
}

// ToMap converts the node to a map for JSON serialization. Fields follow the
// kind's shape order and absent slots are omitted.
func (n *Node) ToMap() map[string]any {
	if n == nil {
		return nil
	}

	result := map[string]any{"kind": string(n.Kind)}

	if n.Token != "" {
		result["token"] = n.Token
	}

	if len(n.Props) > 0 {
		result["props"] = maps.Clone(n.Props)
	}

	if n.Parens > 0 {
		result["parens"] = n.Parens
	}

	if n.Pos != nil {
		result["pos"] = map[string]any{
			"start_line":   n.Pos.StartLine,
			"start_col":    n.Pos.StartCol,
			"start_offset": n.Pos.StartOffset,
			"end_line":     n.Pos.EndLine,
			"end_col":      n.Pos.EndCol,
			"end_offset":   n.Pos.EndOffset,
		}
	}

	shape := shapes[n.Kind]

	for _, field := range shape.Fields {
		if field.List {
			list, ok := n.Lists[field.Name]
			if !ok || len(list) == 0 {
				continue
			}

			items := make([]any, len(list))

			for i, child := range list {
				if child != nil {
					items[i] = child.ToMap()
				}
			}

			result[field.Name] = items

			continue
		}

		if child := n.Slots[field.Name]; child != nil {
			result[field.Name] = child.ToMap()
		}
	}

	return result
}

// String returns a compact s-expression of the tree, for debugging and tests.
func (n *Node) String() string {
	var buf strings.Builder

	writeNode(&buf, n)

	return buf.String()
}

func writeNode(buf *strings.Builder, n *Node) {
	if n == nil {
		buf.WriteString("nil")

		return
	}

	buf.WriteString("(")
	buf.WriteString(string(n.Kind))

	if n.Token != "" {
		buf.WriteString(" ")
		buf.WriteString(n.Token)
	}

	keys := slices.Sorted(maps.Keys(n.Props))

	for _, key := range keys {
		buf.WriteString(" :")
		buf.WriteString(key)
		buf.WriteString("=")
		buf.WriteString(n.Props[key])
	}

	for _, field := range shapes[n.Kind].Fields {
		if field.List {
			list, ok := n.Lists[field.Name]
			if !ok {
				continue
			}

			buf.WriteString(" ")
			buf.WriteString(field.Name)
			buf.WriteString("=[")

			for i, child := range list {
				if i > 0 {
					buf.WriteString(" ")
				}

				writeNode(buf, child)
			}

			buf.WriteString("]")

			continue
		}

		if child, ok := n.Slots[field.Name]; ok && child != nil {
			buf.WriteString(" ")
			buf.WriteString(field.Name)
			buf.WriteString("=")
			writeNode(buf, child)
		}
	}

	buf.WriteString(")")
}
