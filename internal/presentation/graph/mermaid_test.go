package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/parsetrail/internal/presentation/graph"
	"github.com/aretw0/parsetrail/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	det := domain.NewNonTerminal("det")
	det.Children = append(det.Children, domain.NewTerminal("the"))
	n := domain.NewNonTerminal("n")
	np := domain.NewNonTerminal("np")
	np.Children = append(np.Children, det, n)

	tests := []struct {
		name     string
		snap     *domain.Snapshot
		overlay  *graph.GraphOverlay
		contains []string
		absent   []string
	}{
		{
			name: "Tree Shapes",
			snap: &domain.Snapshot{Family: domain.FamilyTopDown, Tree: np},
			contains: []string{
				"graph TD\n",
				`n0(("np"))`,
				`n1["det"]`,
				`n2(["the"])`,
				`n3["n"]`,
				"n0 --> n1",
				"n0 --> n3",
				"n1 --> n2",
				"class n2 terminal;",
			},
		},
		{
			name:     "Pending Overlay",
			snap:     &domain.Snapshot{Family: domain.FamilyTopDown, Tree: np},
			overlay:  &graph.GraphOverlay{Pending: n},
			contains: []string{"class n3 pending;"},
		},
		{
			name: "Forest Roots",
			snap: &domain.Snapshot{Family: domain.FamilyBottomUp, Forest: []*domain.Node{
				domain.NewTerminal("the"), domain.NewTerminal("cat"),
			}},
			contains: []string{`n0(["the"])`, `n1(["cat"])`},
			absent:   []string{"-->"},
		},
		{
			name:     "Label Escaping",
			snap:     &domain.Snapshot{Tree: domain.NewTerminal(`say "hi"`)},
			contains: []string{`n0(["say #quot;hi#quot;"])`},
		},
		{
			name:     "Truncation Note",
			snap:     &domain.Snapshot{Tree: domain.NewNonTerminal("s")},
			overlay:  &graph.GraphOverlay{Truncated: true},
			contains: []string{"%% replay stopped early"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.snap, tt.overlay)
			for _, want := range tt.contains {
				assert.True(t, strings.Contains(got, want), "missing %q in:\n%s", want, got)
			}
			for _, bad := range tt.absent {
				assert.NotContains(t, got, bad)
			}
		})
	}
}
