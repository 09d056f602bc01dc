// Package graph exports derivation snapshots as Mermaid flowcharts.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/parsetrail/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	// Pending is the node the next top-down step will act on, if any.
	Pending *domain.Node

	// Truncated annotates the chart when replay stopped early.
	Truncated bool
}

// GenerateMermaid produces a Mermaid flowchart for a snapshot.
// It applies semantic styling:
// - Tree root: ((Circle))
// - Terminal: (["Stadium"])
// - Non-terminal: [Rectangle]
// Node ids are positional (n0, n1, ...) since labels repeat across a tree.
func GenerateMermaid(snap *domain.Snapshot, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	ids := make(map[*domain.Node]string)
	next := 0
	for _, root := range snap.Roots() {
		root.Walk(func(n *domain.Node) bool {
			ids[n] = fmt.Sprintf("n%d", next)
			next++
			return true
		})
	}

	for _, root := range snap.Roots() {
		writeSubtree(&sb, root, true, ids)
	}

	sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
	sb.WriteString("    classDef terminal fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef pending fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

	for _, root := range snap.Roots() {
		root.Walk(func(n *domain.Node) bool {
			if n.Terminal {
				sb.WriteString(fmt.Sprintf("    class %s terminal;\n", ids[n]))
			}
			return true
		})
	}

	if overlay != nil {
		if id, ok := ids[overlay.Pending]; ok && overlay.Pending != nil {
			sb.WriteString(fmt.Sprintf("    class %s pending;\n", id))
		}
		if overlay.Truncated {
			sb.WriteString("    %% replay stopped early: trace does not fit the derivation\n")
		}
	}

	return sb.String()
}

func writeSubtree(sb *strings.Builder, n *domain.Node, root bool, ids map[*domain.Node]string) {
	opener, closer := "[", "]"
	switch {
	case n.Terminal:
		opener, closer = "([", "])"
	case root:
		opener, closer = "((", "))"
	}
	sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", ids[n], opener, escapeLabel(n.Name), closer))

	for _, c := range n.Children {
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", ids[n], ids[c]))
	}
	for _, c := range n.Children {
		writeSubtree(sb, c, false, ids)
	}
}

// escapeLabel keeps labels inside Mermaid's double-quoted strings.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}
