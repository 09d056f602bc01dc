package parsetrail_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/parsetrail"
	"github.com/aretw0/parsetrail/internal/adapters/file"
	"github.com/aretw0/parsetrail/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, strings.TrimSpace(parsetrail.Version))
}

func TestReplayer_FileStoreSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	in := parsetrail.Input{Sentence: "the cat", Grammar: "np --> det,n", Strategy: "top-down"}

	first := parsetrail.New(cannedService{}, parsetrail.WithStore(file.New(dir)))
	_, err := first.Parse(ctx, "s1", in)
	require.NoError(t, err)
	_, _, err = first.Seek(ctx, "s1", 2)
	require.NoError(t, err)

	second := parsetrail.New(cannedService{}, parsetrail.WithStore(file.New(dir)))
	view, err := second.Open(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, view.Cursor)
	assert.Equal(t, 3, view.Steps)
	require.NotNil(t, view.Snapshot)
	assert.Equal(t, "np", view.Snapshot.Tree.Name)
}

func TestReplayer_ResetAndDelete(t *testing.T) {
	ctx := context.Background()
	p := parsetrail.New(cannedService{})

	_, err := p.Parse(ctx, "s1", parsetrail.Input{Sentence: "the cat", Grammar: "g", Strategy: "top-down"})
	require.NoError(t, err)

	require.NoError(t, p.Reset(ctx, "s1"))
	view, err := p.Open(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, view.Steps)
	assert.Nil(t, view.Snapshot)

	require.NoError(t, p.Delete(ctx, "s1"))
	_, err = p.Open(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestReplayer_Hooks(t *testing.T) {
	ctx := context.Background()
	var loaded, moves int
	p := parsetrail.New(cannedService{}, parsetrail.WithLifecycleHooks(domain.LifecycleHooks{
		OnTraceLoaded: func(context.Context, *domain.TraceEvent) { loaded++ },
		OnCursorMove:  func(context.Context, *domain.CursorEvent) { moves++ },
	}))

	_, err := p.Parse(ctx, "s1", parsetrail.Input{Sentence: "the cat", Grammar: "g", Strategy: "top-down"})
	require.NoError(t, err)
	_, _, err = p.Next(ctx, "s1")
	require.NoError(t, err)
	_, _, err = p.Prev(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, 1, loaded)
	assert.Equal(t, 2, moves)
}
