package replay_test

import (
	"testing"

	"github.com/aretw0/parsetrail/internal/replay"
	"github.com/aretw0/parsetrail/pkg/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBottomUp_NounPhrase(t *testing.T) {
	steps := []domain.Step{
		{Action: domain.ActionShift, InputIndex: 0},
		{Action: domain.ActionShift, InputIndex: 1},
		{Action: domain.ActionReduce, Rule: domain.NewRule("NP", "Det", "N")},
	}

	snap := replay.BottomUp(steps, []string{"the", "cat"}, 2)

	want := []*domain.Node{
		{Name: "NP", Children: []*domain.Node{term("the"), term("cat")}},
	}
	if diff := cmp.Diff(want, snap.Forest); diff != "" {
		t.Errorf("unexpected forest (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, snap.Applied)
	assert.False(t, snap.Truncated)
}

func TestBottomUp_BeforeFirstStep(t *testing.T) {
	steps := []domain.Step{{Action: domain.ActionShift, InputIndex: 0}}
	snap := replay.BottomUp(steps, []string{"a"}, domain.BeforeFirstStep)

	assert.Empty(t, snap.Forest)
	assert.Nil(t, snap.Tree)
	assert.Equal(t, domain.BeforeFirstStep, snap.Through)
}

// "the dog hit the man", shift-reduce trace as produced by the service.
func fullBottomUpTrace() ([]domain.Step, []string) {
	words := []string{"the", "dog", "hit", "the", "man"}
	return []domain.Step{
		{Action: domain.ActionShift, InputIndex: 0},
		{Action: domain.ActionReduce, Rule: domain.NewRule("det", "[the]")},
		{Action: domain.ActionShift, InputIndex: 1},
		{Action: domain.ActionReduce, Rule: domain.NewRule("n", "[dog]")},
		{Action: domain.ActionReduce, Rule: domain.NewRule("np", "det", "n")},
		{Action: domain.ActionShift, InputIndex: 2},
		{Action: domain.ActionReduce, Rule: domain.NewRule("tv", "[hit]")},
		{Action: domain.ActionShift, InputIndex: 3},
		{Action: domain.ActionReduce, Rule: domain.NewRule("det", "[the]")},
		{Action: domain.ActionShift, InputIndex: 4},
		{Action: domain.ActionReduce, Rule: domain.NewRule("n", "[man]")},
		{Action: domain.ActionReduce, Rule: domain.NewRule("np", "det", "n")},
		{Action: domain.ActionReduce, Rule: domain.NewRule("vp", "tv", "np")},
		{Action: domain.ActionReduce, Rule: domain.NewRule("s", "np", "vp")},
		{Action: domain.ActionAccept, InputIndex: 5},
	}, words
}

func TestBottomUp_FullReductionLeavesStartSymbol(t *testing.T) {
	steps, words := fullBottomUpTrace()
	snap := replay.BottomUp(steps, words, len(steps)-1)

	require.Len(t, snap.Forest, 1)
	assert.Equal(t, "s", snap.Forest[0].Name)

	var got []string
	for _, leaf := range snap.Forest[0].Leaves() {
		got = append(got, leaf.Name)
	}
	assert.Equal(t, words, got)
}

func TestBottomUp_ShortStackTruncates(t *testing.T) {
	steps := []domain.Step{
		{Action: domain.ActionShift, InputIndex: 0},
		{Action: domain.ActionReduce, Rule: domain.NewRule("np", "det", "n")},
		{Action: domain.ActionShift, InputIndex: 1},
	}

	snap := replay.BottomUp(steps, []string{"the", "cat"}, 2)

	if diff := cmp.Diff([]*domain.Node{term("the")}, snap.Forest); diff != "" {
		t.Errorf("unexpected forest (-want +got):\n%s", diff)
	}
	assert.True(t, snap.Truncated)
	assert.Equal(t, 1, snap.Applied)
}

func TestBottomUp_ShiftOutsideSentenceTruncates(t *testing.T) {
	steps := []domain.Step{
		{Action: domain.ActionShift, InputIndex: 0},
		{Action: domain.ActionShift, InputIndex: 7},
	}

	snap := replay.BottomUp(steps, []string{"a"}, 1)

	assert.Len(t, snap.Forest, 1)
	assert.True(t, snap.Truncated)
}

func TestBottomUp_UnknownActionsAndNilRuleAreNoOps(t *testing.T) {
	steps := []domain.Step{
		{Action: domain.ActionShift, InputIndex: 0},
		{Action: "lookahead"},
		{Action: domain.ActionReduce, Rule: nil},
		{Action: domain.ActionReject},
	}

	snap := replay.BottomUp(steps, []string{"a"}, 3)

	assert.Len(t, snap.Forest, 1)
	assert.Equal(t, 4, snap.Applied)
	assert.False(t, snap.Truncated)
}

func TestBottomUp_ReducePreservesChildOrder(t *testing.T) {
	steps := []domain.Step{
		{Action: domain.ActionShift, InputIndex: 0},
		{Action: domain.ActionShift, InputIndex: 1},
		{Action: domain.ActionShift, InputIndex: 2},
		{Action: domain.ActionReduce, Rule: domain.NewRule("x", "b", "c")},
	}

	snap := replay.BottomUp(steps, []string{"a", "b", "c"}, 3)

	want := []*domain.Node{
		term("a"),
		{Name: "x", Children: []*domain.Node{term("b"), term("c")}},
	}
	if diff := cmp.Diff(want, snap.Forest); diff != "" {
		t.Errorf("unexpected forest (-want +got):\n%s", diff)
	}
}

func TestBottomUp_Deterministic(t *testing.T) {
	steps, words := fullBottomUpTrace()
	for i := domain.BeforeFirstStep; i < len(steps); i++ {
		if diff := cmp.Diff(replay.BottomUp(steps, words, i), replay.BottomUp(steps, words, i)); diff != "" {
			t.Fatalf("replay at %d not deterministic:\n%s", i, diff)
		}
	}
}
