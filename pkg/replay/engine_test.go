package replay_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/parsetrail/pkg/adapters/memory"
	"github.com/aretw0/parsetrail/pkg/domain"
	"github.com/aretw0/parsetrail/pkg/replay"
	"github.com/aretw0/parsetrail/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures every draw call in order.
type recorder struct {
	calls     []string
	snapshots []*domain.Snapshot
	history   []string
	current   int
	indicator string
	fail      error
}

func (r *recorder) DrawSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	r.calls = append(r.calls, "snapshot")
	r.snapshots = append(r.snapshots, snap)
	return r.fail
}

func (r *recorder) DrawHistory(ctx context.Context, lines []string, current int) error {
	r.calls = append(r.calls, "history")
	r.history = lines
	r.current = current
	return nil
}

func (r *recorder) DrawIndicator(ctx context.Context, text string) error {
	r.calls = append(r.calls, "indicator")
	r.indicator = text
	return nil
}

// npTrace derives "the cat" top-down: np --> det,n; det --> [the]; n --> [cat].
func npTrace() domain.Trace {
	return domain.Trace{
		Sentence:  "the cat",
		Grammar:   "np --> det,n.\ndet --> [the].\nn --> [cat].",
		Algorithm: "top-down",
		Steps: []domain.Step{
			{Action: domain.ActionExpand, Rule: domain.NewRule("np", "det", "n"), Stack: []string{"np"}, InputIndex: 0},
			{Action: domain.ActionLeaf, Rule: domain.NewRule("det", "[the]"), Stack: []string{"n", "det"}, InputIndex: 0},
			{Action: domain.ActionLeaf, Rule: domain.NewRule("n", "[cat]"), Stack: []string{"n"}, InputIndex: 1},
		},
	}
}

func setup(t *testing.T, trace *domain.Trace) (*replay.Engine, *recorder, *session.Manager) {
	t.Helper()
	mgr := session.NewManager(memory.NewStore())
	rec := &recorder{}
	eng := replay.New(mgr, replay.WithRenderer(rec))

	if trace != nil {
		_, err := mgr.Update(context.Background(), "s1", func(s *domain.Session) error {
			s.Replace(*trace)
			return nil
		})
		require.NoError(t, err)
	}
	return eng, rec, mgr
}

func TestHistoryLine(t *testing.T) {
	st := domain.Step{Action: domain.ActionShift, Stack: []string{"det", "np", "vp"}, InputIndex: 2}
	assert.Equal(t, "Step 4: [vp, np, det] | Input: 2", replay.HistoryLine(3, st))
	assert.Equal(t, []string{"det", "np", "vp"}, st.Stack, "formatting must not mutate the step")

	assert.Equal(t, "Step 1: [] | Input: 0", replay.HistoryLine(0, domain.Step{}))
}

func TestIndicator(t *testing.T) {
	assert.Equal(t, "Step: 1", replay.Indicator(0))
	assert.Equal(t, "Step: 5", replay.Indicator(4))
}

func TestEngine_Open_DrawsInOrder(t *testing.T) {
	trace := npTrace()
	eng, rec, _ := setup(t, &trace)

	v, err := eng.Open(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, []string{"history", "snapshot", "indicator"}, rec.calls)
	assert.Len(t, rec.history, 3)
	assert.Equal(t, 0, rec.current)
	assert.Equal(t, "Step: 1", rec.indicator)

	// Cursor 0 shows the state before the first step: a lone unexpanded root.
	require.NotNil(t, v.Snapshot)
	assert.Equal(t, domain.BeforeFirstStep, v.Snapshot.Through)
	assert.Equal(t, "s", v.Snapshot.Tree.Name)
	assert.Empty(t, v.Snapshot.Tree.Children)
}

func TestEngine_Navigation(t *testing.T) {
	trace := npTrace()
	eng, rec, mgr := setup(t, &trace)
	ctx := context.Background()

	v, moved, err := eng.Next(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 1, v.Cursor)
	assert.Equal(t, "Step: 2", rec.indicator)
	assert.Equal(t, "np", v.Snapshot.Tree.Name)
	assert.Len(t, v.Snapshot.Tree.Children, 2)

	_, _, err = eng.Next(ctx, "s1")
	require.NoError(t, err)

	// At the last step Next is a no-op.
	v, moved, err = eng.Next(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 2, v.Cursor)

	v, moved, err = eng.Prev(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 1, v.Cursor)

	stored, err := mgr.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Cursor, "cursor must be persisted")
}

func TestEngine_PrevAtStart(t *testing.T) {
	trace := npTrace()
	eng, _, _ := setup(t, &trace)

	v, moved, err := eng.Prev(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 0, v.Cursor)
}

func TestEngine_SeekClamps(t *testing.T) {
	trace := npTrace()
	eng, _, _ := setup(t, &trace)
	ctx := context.Background()

	v, _, err := eng.Seek(ctx, "s1", 99)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Cursor)

	v, _, err = eng.Seek(ctx, "s1", -4)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Cursor)
}

func TestEngine_Idempotent(t *testing.T) {
	trace := npTrace()
	eng, rec, _ := setup(t, &trace)
	ctx := context.Background()

	_, _, err := eng.Seek(ctx, "s1", 2)
	require.NoError(t, err)
	_, err = eng.Open(ctx, "s1")
	require.NoError(t, err)

	n := len(rec.snapshots)
	require.GreaterOrEqual(t, n, 2)
	assert.Equal(t, rec.snapshots[n-2], rec.snapshots[n-1])
}

func TestEngine_EmptySession(t *testing.T) {
	eng, rec, mgr := setup(t, nil)
	ctx := context.Background()
	_, err := mgr.LoadOrCreate(ctx, "s1")
	require.NoError(t, err)

	v, moved, err := eng.Next(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Nil(t, v.Snapshot)
	assert.Empty(t, v.History)
	assert.Equal(t, []string{"history", "indicator"}, rec.calls)
}

func TestEngine_MissingSession(t *testing.T) {
	eng, _, _ := setup(t, nil)
	_, _, err := eng.Next(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEngine_RendererFailure(t *testing.T) {
	trace := npTrace()
	eng, rec, _ := setup(t, &trace)
	rec.fail = errors.New("canvas gone")

	_, err := eng.Open(context.Background(), "s1")
	assert.ErrorIs(t, err, rec.fail)
}

func TestEngine_Hooks(t *testing.T) {
	trace := npTrace()
	trace.Steps = append(trace.Steps, domain.Step{Action: domain.ActionLeaf, Rule: domain.NewRule("x", "[y]")})

	var moves []*domain.CursorEvent
	var replays []*domain.ReplayEvent
	mgr := session.NewManager(memory.NewStore())
	eng := replay.New(mgr, replay.WithHooks(domain.LifecycleHooks{
		OnCursorMove: func(_ context.Context, e *domain.CursorEvent) { moves = append(moves, e) },
		OnReplay:     func(_ context.Context, e *domain.ReplayEvent) { replays = append(replays, e) },
	}))

	ctx := context.Background()
	_, err := mgr.Update(ctx, "s1", func(s *domain.Session) error {
		s.Replace(trace)
		return nil
	})
	require.NoError(t, err)

	_, _, err = eng.Seek(ctx, "s1", 3)
	require.NoError(t, err)
	_, _, err = eng.Next(ctx, "s1")
	require.NoError(t, err)

	require.Len(t, moves, 2)
	assert.Equal(t, replay.DirectionSeek, moves[0].Direction)
	assert.Equal(t, 0, moves[0].From)
	assert.Equal(t, 3, moves[0].To)
	assert.False(t, moves[1].Moved)

	require.Len(t, replays, 2)
	assert.Equal(t, domain.FamilyTopDown, replays[0].Family)
	assert.False(t, replays[0].Truncated, "replaying steps 0..2 fully derives the tree")
}
