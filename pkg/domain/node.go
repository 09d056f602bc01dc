package domain

// Epsilon is the symbol the parsing service uses for an empty right-hand side.
const Epsilon = "ε"

// Node is a labelled node of a derivation tree.
// Each node is exclusively owned by its parent; there are no back-references.
type Node struct {
	Name     string  `json:"name" yaml:"name"`
	Terminal bool    `json:"terminal" yaml:"terminal"`
	Children []*Node `json:"children" yaml:"children"`
}

// NewNonTerminal creates an unexpanded (childless) non-terminal node.
func NewNonTerminal(name string) *Node {
	return &Node{Name: name, Children: []*Node{}}
}

// NewTerminal creates a terminal leaf.
func NewTerminal(name string) *Node {
	return &Node{Name: name, Terminal: true, Children: []*Node{}}
}

// Unexpanded reports whether the node is a non-terminal still waiting for children.
func (n *Node) Unexpanded() bool {
	return !n.Terminal && len(n.Children) == 0
}

// Walk visits the node and its descendants in pre-order, left to right.
// Returning false from fn stops the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Leaves returns the childless nodes below n (n itself if it has no children).
func (n *Node) Leaves() []*Node {
	var out []*Node
	n.Walk(func(x *Node) bool {
		if len(x.Children) == 0 {
			out = append(out, x)
		}
		return true
	})
	return out
}

// Depth returns the number of levels in the subtree rooted at n.
func (n *Node) Depth() int {
	if n == nil {
		return 0
	}
	d := 0
	for _, c := range n.Children {
		if cd := c.Depth(); cd > d {
			d = cd
		}
	}
	return d + 1
}

// Clone returns a deep copy of the subtree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	cp := &Node{Name: n.Name, Terminal: n.Terminal, Children: make([]*Node, len(n.Children))}
	for i, c := range n.Children {
		cp.Children[i] = c.Clone()
	}
	return cp
}
