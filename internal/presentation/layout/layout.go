// Package layout places derivation trees on a 2-D canvas.
//
// Leaves take equal-width slots from left to right, every parent is centred
// over its first and last child, and depth maps linearly to y. A forest is
// laid out as adjacent trees sharing one row of slots.
package layout

import "github.com/aretw0/parsetrail/pkg/domain"

// Defaults match the browser canvas.
const (
	DefaultWidth  = 600.0
	DefaultHeight = 400.0

	// DefaultBottomPad is kept free below the deepest row for leaf labels.
	DefaultBottomPad = 100.0

	// DefaultTopPad keeps the root circle inside the canvas.
	DefaultTopPad = 20.0
)

// Options control the canvas size.
type Options struct {
	Width     float64
	Height    float64
	TopPad    float64
	BottomPad float64
}

// DefaultOptions returns the 600x400 canvas.
func DefaultOptions() Options {
	return Options{
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		TopPad:    DefaultTopPad,
		BottomPad: DefaultBottomPad,
	}
}

// Placed is a node with its canvas position.
type Placed struct {
	Node  *domain.Node
	X, Y  float64
	Depth int

	// HasChildren mirrors len(Node.Children) > 0; labels go left of inner nodes and right of leaves.
	HasChildren bool
}

// Link joins two placed nodes by index into Layout.Nodes.
type Link struct {
	Parent, Child int
}

// Layout is the result of placing a forest.
type Layout struct {
	Width, Height float64
	Nodes         []Placed
	Links         []Link
}

// Tree places a single tree.
func Tree(root *domain.Node, opts Options) *Layout {
	if root == nil {
		return Forest(nil, opts)
	}
	return Forest([]*domain.Node{root}, opts)
}

// Forest places several trees side by side, in order.
func Forest(roots []*domain.Node, opts Options) *Layout {
	opts = opts.withDefaults()
	out := &Layout{Width: opts.Width, Height: opts.Height}

	leaves := 0
	depth := 0
	for _, r := range roots {
		leaves += len(r.Leaves())
		if d := r.Depth(); d > depth {
			depth = d
		}
	}
	if leaves == 0 {
		return out
	}

	slot := opts.Width / float64(leaves)
	levels := depth - 1
	if levels < 1 {
		levels = 1
	}
	dy := (opts.Height - opts.BottomPad - opts.TopPad) / float64(levels)

	p := &placer{out: out, slot: slot, dy: dy, top: opts.TopPad}
	for _, r := range roots {
		p.place(r, 0, -1)
	}
	return out
}

type placer struct {
	out  *Layout
	slot float64
	dy   float64
	top  float64
	next int // next free leaf slot
}

// place appends n and its subtree and returns n's index.
func (p *placer) place(n *domain.Node, depth, parent int) int {
	idx := len(p.out.Nodes)
	p.out.Nodes = append(p.out.Nodes, Placed{
		Node:        n,
		Y:           p.top + float64(depth)*p.dy,
		Depth:       depth,
		HasChildren: len(n.Children) > 0,
	})
	if parent >= 0 {
		p.out.Links = append(p.out.Links, Link{Parent: parent, Child: idx})
	}

	if len(n.Children) == 0 {
		p.out.Nodes[idx].X = (float64(p.next) + 0.5) * p.slot
		p.next++
		return idx
	}

	first, last := -1, -1
	for _, c := range n.Children {
		ci := p.place(c, depth+1, idx)
		if first < 0 {
			first = ci
		}
		last = ci
	}
	p.out.Nodes[idx].X = (p.out.Nodes[first].X + p.out.Nodes[last].X) / 2
	return idx
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.TopPad < 0 {
		o.TopPad = 0
	}
	if o.BottomPad < 0 {
		o.BottomPad = 0
	}
	if o.TopPad+o.BottomPad >= o.Height {
		o.TopPad, o.BottomPad = 0, 0
	}
	return o
}
