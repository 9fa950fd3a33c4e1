package node

// Frame is one step of a pre-order walk.
type Frame struct {
	Node   *Node
	Parent *Node
	// Field is the parent field holding Node; empty for the root.
	Field string
}

// initialStackCap is the starting capacity of the walk stack.
const initialStackCap = 32

// Walk visits every node of the tree in pre-order. When fn returns false the
// children of the current node are skipped.
func (n *Node) Walk(fn func(Frame) bool) {
	if n == nil {
		return
	}

	stack := make([]Frame, 0, initialStackCap)
	stack = append(stack, Frame{Node: n})

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(frame) {
			continue
		}

		stack = pushChildFramesReversed(stack, frame.Node)
	}
}

// VisitPreOrder calls fn for every node in pre-order.
func (n *Node) VisitPreOrder(fn func(*Node)) {
	n.Walk(func(frame Frame) bool {
		fn(frame.Node)

		return true
	})
}

// Find returns all nodes in the tree (including root) for which predicate is true.
// Traversal is pre-order. Returns nil if n is nil.
func (n *Node) Find(predicate func(*Node) bool) []*Node {
	var found []*Node

	n.VisitPreOrder(func(current *Node) {
		if predicate(current) {
			found = append(found, current)
		}
	})

	return found
}

// Count returns the number of nodes in the tree.
func (n *Node) Count() int {
	count := 0

	n.VisitPreOrder(func(*Node) { count++ })

	return count
}

func pushChildFramesReversed(stack []Frame, parent *Node) []Frame {
	shape, ok := shapes[parent.Kind]
	if !ok {
		return stack
	}

	for i := len(shape.Fields) - 1; i >= 0; i-- {
		field := shape.Fields[i]

		if !field.List {
			if child := parent.Slots[field.Name]; child != nil {
				stack = append(stack, Frame{Node: child, Parent: parent, Field: field.Name})
			}

			continue
		}

		list := parent.Lists[field.Name]

		for j := len(list) - 1; j >= 0; j-- {
			if list[j] != nil {
				stack = append(stack, Frame{Node: list[j], Parent: parent, Field: field.Name})
			}
		}
	}

	return stack
}
