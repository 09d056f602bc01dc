package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func threeSteps() []Step {
	return []Step{
		{Action: ActionShift, InputIndex: 0},
		{Action: ActionShift, InputIndex: 1},
		{Action: ActionReduce, Rule: NewRule("np", "det", "n"), InputIndex: 2},
	}
}

func TestSession_NavigationClamps(t *testing.T) {
	s := NewSession("nav")
	s.Replace(Trace{Sentence: "the cat", Algorithm: "bottom-up", Steps: threeSteps()})

	assert.Equal(t, 0, s.Cursor)
	assert.False(t, s.Retreat(), "retreat at index 0 is a no-op")
	assert.Equal(t, 0, s.Cursor)

	assert.True(t, s.Advance())
	assert.True(t, s.Advance())
	assert.Equal(t, 2, s.Cursor)

	assert.False(t, s.Advance(), "advance at the last index is a no-op")
	assert.Equal(t, 2, s.Cursor)

	assert.True(t, s.Retreat())
	assert.Equal(t, 1, s.Cursor)
}

func TestSession_Seek(t *testing.T) {
	s := NewSession("seek")
	s.Replace(Trace{Steps: threeSteps()})

	assert.True(t, s.Seek(99))
	assert.Equal(t, 2, s.Cursor)
	assert.False(t, s.Seek(2))
	assert.True(t, s.Seek(-5))
	assert.Equal(t, 0, s.Cursor)
}

func TestSession_EmptyTraceNavigation(t *testing.T) {
	s := NewSession("empty")
	s.Replace(Trace{Algorithm: "top-down-backtracking"})

	assert.False(t, s.Advance())
	assert.False(t, s.Retreat())
	assert.False(t, s.Seek(3))
	assert.Equal(t, 0, s.Cursor)
	assert.Equal(t, BeforeFirstStep, s.ReplayIndex())

	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSession_ReplaceResetsCursorAndCopiesSteps(t *testing.T) {
	steps := threeSteps()
	s := NewSession("replace")
	s.Replace(Trace{Sentence: "the cat", Steps: steps})
	s.Seek(2)

	s.Replace(Trace{Sentence: "a dog", Steps: steps[:1]})
	assert.Equal(t, 0, s.Cursor)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, []string{"a", "dog"}, s.Words())

	steps[0].InputIndex = 42
	assert.Equal(t, 0, s.Steps[0].InputIndex, "session must not alias the caller's slice")
}

func TestSession_ReplayIndexLagsCursor(t *testing.T) {
	s := NewSession("lag")
	s.Replace(Trace{Steps: threeSteps()})

	assert.Equal(t, BeforeFirstStep, s.ReplayIndex())
	s.Advance()
	assert.Equal(t, 0, s.ReplayIndex())
	s.Advance()
	assert.Equal(t, 1, s.ReplayIndex())
}

func TestSession_CloneIsIndependent(t *testing.T) {
	s := NewSession("clone")
	s.Replace(Trace{Steps: threeSteps()})

	cp := s.Clone()
	cp.Advance()
	cp.Steps = cp.Steps[:1]

	assert.Equal(t, 0, s.Cursor)
	assert.Equal(t, 3, s.Len())
}

func TestSession_ResetKeepsAppliedCount(t *testing.T) {
	s := NewSession("reset")
	s.Replace(Trace{Steps: threeSteps()})
	s.Applied = 4

	s.Reset()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Sentence)
	assert.Equal(t, uint64(4), s.Applied)
}

func TestSession_Outcome(t *testing.T) {
	s := NewSession("o")
	assert.Equal(t, Action(""), s.Outcome())

	s.Replace(Trace{Steps: []Step{{Action: ActionShift}, {Action: ActionReject}}})
	assert.Equal(t, ActionReject, s.Outcome())

	s.Replace(Trace{Steps: []Step{{Action: ActionShift}, {Action: ActionReduce}}})
	assert.Equal(t, Action(""), s.Outcome())

	s.Replace(Trace{Steps: []Step{{Action: ActionAccept}}})
	assert.Equal(t, ActionAccept, s.Outcome())
}

func TestSession_WordsMatchServiceCase(t *testing.T) {
	s := NewSession("case")
	s.Replace(Trace{Sentence: "The  Cat sat"})
	assert.Equal(t, []string{"the", "cat", "sat"}, s.Words())
	assert.Equal(t, "The  Cat sat", s.Sentence, "the stored sentence keeps its case")
}
