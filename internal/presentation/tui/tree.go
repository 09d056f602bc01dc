package tui

import (
	"strings"

	"github.com/aretw0/parsetrail/pkg/domain"
)

// Placeholder shown for a non-terminal still waiting for expansion.
const pendingMark = " …"

// DrawTree renders a tree with box-drawing connectors, one node per line.
//
//	np
//	├── det
//	│   └── the
//	└── n …
func DrawTree(root *domain.Node) string {
	if root == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(label(root))
	b.WriteByte('\n')
	drawChildren(&b, root, "")
	return b.String()
}

// DrawForest renders each stack element in order, bottom of the stack first.
func DrawForest(roots []*domain.Node) string {
	parts := make([]string, 0, len(roots))
	for _, r := range roots {
		parts = append(parts, DrawTree(r))
	}
	return strings.Join(parts, "\n")
}

func drawChildren(b *strings.Builder, n *domain.Node, prefix string) {
	for i, c := range n.Children {
		last := i == len(n.Children)-1
		connector, indent := "├── ", "│   "
		if last {
			connector, indent = "└── ", "    "
		}
		b.WriteString(prefix)
		b.WriteString(connector)
		b.WriteString(label(c))
		b.WriteByte('\n')
		drawChildren(b, c, prefix+indent)
	}
}

func label(n *domain.Node) string {
	if n.Terminal {
		return "\"" + n.Name + "\""
	}
	if n.Unexpanded() {
		return n.Name + pendingMark
	}
	return n.Name
}
