package replay_test

import (
	"testing"

	"github.com/aretw0/parsetrail/internal/replay"
	"github.com/aretw0/parsetrail/pkg/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nt(name string, children ...*domain.Node) *domain.Node {
	n := domain.NewNonTerminal(name)
	if len(children) > 0 {
		n.Children = children
	}
	return n
}

func term(name string) *domain.Node {
	return domain.NewTerminal(name)
}

// "the dog hit the man" with s --> np,vp / np --> det,n / vp --> tv,np
func fullTopDownTrace() []domain.Step {
	return []domain.Step{
		{Action: domain.ActionExpand, Rule: domain.NewRule("s", "np", "vp"), InputIndex: 0},
		{Action: domain.ActionExpand, Rule: domain.NewRule("np", "det", "n"), InputIndex: 0},
		{Action: domain.ActionLeaf, Rule: domain.NewRule("det", "[the]"), InputIndex: 0},
		{Action: domain.ActionLeaf, Rule: domain.NewRule("n", "[dog]"), InputIndex: 1},
		{Action: domain.ActionExpand, Rule: domain.NewRule("vp", "tv", "np"), InputIndex: 2},
		{Action: domain.ActionLeaf, Rule: domain.NewRule("tv", "[hit]"), InputIndex: 2},
		{Action: domain.ActionExpand, Rule: domain.NewRule("np", "det", "n"), InputIndex: 3},
		{Action: domain.ActionLeaf, Rule: domain.NewRule("det", "[the]"), InputIndex: 3},
		{Action: domain.ActionLeaf, Rule: domain.NewRule("n", "[man]"), InputIndex: 4},
		{Action: domain.ActionAccept, InputIndex: 5},
	}
}

func TestTopDown_BeforeFirstStep(t *testing.T) {
	steps := []domain.Step{{Action: domain.ActionExpand, Rule: domain.NewRule("S", "NP", "VP")}}

	snap := replay.TopDown(steps, domain.BeforeFirstStep, replay.DefaultStartSymbol)

	if diff := cmp.Diff(nt("s"), snap.Tree); diff != "" {
		t.Errorf("unexpected tree (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, snap.Applied)
	assert.False(t, snap.Truncated)
}

func TestTopDown_FirstExpand(t *testing.T) {
	steps := []domain.Step{{Action: domain.ActionExpand, Rule: domain.NewRule("S", "NP", "VP")}}

	snap := replay.TopDown(steps, 0, replay.DefaultStartSymbol)

	want := nt("S", nt("NP"), nt("VP"))
	if diff := cmp.Diff(want, snap.Tree); diff != "" {
		t.Errorf("unexpected tree (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, snap.Applied)
}

func TestTopDown_FullDerivationHasOnlyTerminalLeaves(t *testing.T) {
	steps := fullTopDownTrace()
	snap := replay.TopDown(steps, len(steps)-1, "s")

	require.NotNil(t, snap.Tree)
	assert.Nil(t, replay.LeftmostUnexpanded(snap.Tree))

	var words []string
	for _, leaf := range snap.Tree.Leaves() {
		assert.True(t, leaf.Terminal, "leaf %q must be terminal", leaf.Name)
		words = append(words, leaf.Name)
	}
	assert.Equal(t, []string{"the", "dog", "hit", "the", "man"}, words)
}

func TestTopDown_LeafAttachesToLeftmostPending(t *testing.T) {
	steps := fullTopDownTrace()[:3]
	snap := replay.TopDown(steps, 2, "s")

	want := nt("s",
		nt("np", nt("det", term("the")), nt("n")),
		nt("vp"),
	)
	if diff := cmp.Diff(want, snap.Tree); diff != "" {
		t.Errorf("unexpected tree (-want +got):\n%s", diff)
	}
}

func TestTopDown_StopsWhenNothingPending(t *testing.T) {
	steps := []domain.Step{
		{Action: domain.ActionLeaf, Rule: domain.NewRule("s", "[a]")},
		{Action: domain.ActionExpand, Rule: domain.NewRule("x", "y")},
		{Action: domain.ActionLeaf, Rule: domain.NewRule("y", "[b]")},
	}

	snap := replay.TopDown(steps, 2, "s")

	if diff := cmp.Diff(nt("s", term("a")), snap.Tree); diff != "" {
		t.Errorf("unexpected tree (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, snap.Applied)
	assert.True(t, snap.Truncated)
}

func TestTopDown_EpsilonIsTerminal(t *testing.T) {
	steps := []domain.Step{
		{Action: domain.ActionExpand, Rule: domain.NewRule("s", "a", "b")},
		{Action: domain.ActionExpand, Rule: domain.NewRule("a", domain.Epsilon)},
		{Action: domain.ActionLeaf, Rule: domain.NewRule("b", "[x]")},
	}

	snap := replay.TopDown(steps, 2, "s")

	want := nt("s", nt("a", term(domain.Epsilon)), nt("b", term("x")))
	if diff := cmp.Diff(want, snap.Tree); diff != "" {
		t.Errorf("unexpected tree (-want +got):\n%s", diff)
	}
}

func TestTopDown_WindowBeyondTrace(t *testing.T) {
	steps := fullTopDownTrace()[:2]
	snap := replay.TopDown(steps, 10, "s")

	assert.Equal(t, 2, snap.Applied)
	assert.True(t, snap.Truncated)
}

func TestTopDown_Deterministic(t *testing.T) {
	steps := fullTopDownTrace()
	for i := domain.BeforeFirstStep; i < len(steps); i++ {
		a := replay.TopDown(steps, i, "s")
		b := replay.TopDown(steps, i, "s")
		if diff := cmp.Diff(a, b); diff != "" {
			t.Fatalf("replay at %d not deterministic:\n%s", i, diff)
		}
	}
}

func TestStripDelimiters(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`"cat"`, "cat"},
		{"[cat]", "cat"},
		{"[é]", "é"},
		{"[]", ""},
		{"x", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, replay.StripDelimiters(tt.in), "input %q", tt.in)
	}
}
