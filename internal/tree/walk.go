package tree

// Visitor is called for every node with the chain of its ancestors, outermost
// first. The path slice is only valid for the duration of the call.
type Visitor func(node Node, path []Node)

// Walk visits node and its descendants depth-first, pre-order, left before right.
func Walk(node Node, visit Visitor) {
	if node == nil {
		return
	}
	walk(node, visit, nil)
}

func walk(node Node, visit Visitor, path []Node) {
	visit(node, path)
	children := node.Children()
	if len(children) == 0 {
		return
	}
	path = append(path, node)
	for _, child := range children {
		walk(child, visit, path)
	}
}

// Leaves collects the expectation leaves under node in depth-first order.
func Leaves(node Node) []*Expectation {
	var out []*Expectation
	Walk(node, func(n Node, _ []Node) {
		if leaf, ok := n.(*Expectation); ok {
			out = append(out, leaf)
		}
	})
	return out
}

// Depth returns the height of the subtree rooted at node (a leaf has depth 1).
func Depth(node Node) int {
	if node == nil {
		return 0
	}
	deepest := 0
	for _, child := range node.Children() {
		if d := Depth(child); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}
