package replay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/parsetrail/internal/logging"
	rebuild "github.com/aretw0/parsetrail/internal/replay"
	"github.com/aretw0/parsetrail/pkg/domain"
	"github.com/aretw0/parsetrail/pkg/ports"
	"github.com/aretw0/parsetrail/pkg/session"
)

// Navigation directions reported in CursorEvent.Direction.
const (
	DirectionNext = "next"
	DirectionPrev = "prev"
	DirectionSeek = "seek"
)

// View is everything a renderer needs for one cursor position.
type View struct {
	SessionID string           `json:"session_id"`
	Sentence  string           `json:"sentence"`
	Algorithm domain.Algorithm `json:"algorithm"`
	Cursor    int              `json:"cursor"`
	Steps     int              `json:"steps"`
	Indicator string           `json:"indicator"`
	Outcome   domain.Action    `json:"outcome,omitempty"`
	History   []string         `json:"history"`
	Snapshot  *domain.Snapshot `json:"snapshot,omitempty"`
}

// Engine renders sessions and moves their cursors.
type Engine struct {
	sessions *session.Manager
	renderer ports.Renderer
	opts     rebuild.Options
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithRenderer sets the drawing target. Without one the engine only computes views.
func WithRenderer(r ports.Renderer) Option {
	return func(e *Engine) {
		e.renderer = r
	}
}

// WithStartSymbol overrides the top-down root label.
func WithStartSymbol(symbol string) Option {
	return func(e *Engine) {
		e.opts.StartSymbol = symbol
	}
}

// WithHooks registers lifecycle callbacks, merged with any set earlier.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(h)
	}
}

// WithLogger configures a logger for the Engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine over the given session manager.
func New(sessions *session.Manager, opts ...Option) *Engine {
	e := &Engine{
		sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// View computes the view at the session's cursor without drawing anything.
// Sessions that never received a trace get an empty view with no snapshot.
func (e *Engine) View(ctx context.Context, s *domain.Session) (*View, error) {
	v := &View{
		SessionID: s.ID,
		Sentence:  s.Sentence,
		Algorithm: s.Algorithm,
		Cursor:    s.Cursor,
		Steps:     s.Len(),
		Indicator: Indicator(s.Cursor),
		Outcome:   s.Outcome(),
		History:   History(s.Steps),
	}
	if s.Algorithm == "" {
		return v, nil
	}

	snap, err := rebuild.ForSession(s, e.opts)
	if err != nil {
		return nil, err
	}
	v.Snapshot = snap

	if snap.Truncated {
		e.logger.Debug("replay stopped early",
			"session_id", s.ID,
			"through", snap.Through,
			"applied", snap.Applied,
		)
	}
	if e.hooks.OnReplay != nil {
		e.hooks.OnReplay(ctx, &domain.ReplayEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventReplay, SessionID: s.ID},
			Family:    snap.Family,
			Through:   snap.Through,
			Applied:   snap.Applied,
			Truncated: snap.Truncated,
		})
	}
	return v, nil
}

// Show computes the view and draws it: history first, then the snapshot, then the indicator.
func (e *Engine) Show(ctx context.Context, s *domain.Session) (*View, error) {
	v, err := e.View(ctx, s)
	if err != nil {
		return nil, err
	}
	if err := e.Draw(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Draw pushes an already computed view to the renderer.
func (e *Engine) Draw(ctx context.Context, v *View) error {
	if e.renderer == nil {
		return nil
	}
	if err := e.renderer.DrawHistory(ctx, v.History, v.Cursor); err != nil {
		return fmt.Errorf("failed to draw history: %w", err)
	}
	if v.Snapshot != nil {
		if err := e.renderer.DrawSnapshot(ctx, v.Snapshot); err != nil {
			return fmt.Errorf("failed to draw snapshot: %w", err)
		}
	}
	if err := e.renderer.DrawIndicator(ctx, v.Indicator); err != nil {
		return fmt.Errorf("failed to draw indicator: %w", err)
	}
	return nil
}

// Open loads the session and shows it at its current cursor.
func (e *Engine) Open(ctx context.Context, sessionID string) (*View, error) {
	s, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return e.Show(ctx, s)
}

// Next advances the cursor by one step. At the last step it re-renders without moving.
func (e *Engine) Next(ctx context.Context, sessionID string) (*View, bool, error) {
	return e.move(ctx, sessionID, DirectionNext, (*domain.Session).Advance)
}

// Prev retreats the cursor by one step. At the first step it re-renders without moving.
func (e *Engine) Prev(ctx context.Context, sessionID string) (*View, bool, error) {
	return e.move(ctx, sessionID, DirectionPrev, (*domain.Session).Retreat)
}

// Seek jumps to step i, clamped to the trace.
func (e *Engine) Seek(ctx context.Context, sessionID string, i int) (*View, bool, error) {
	return e.move(ctx, sessionID, DirectionSeek, func(s *domain.Session) bool {
		return s.Seek(i)
	})
}

func (e *Engine) move(ctx context.Context, sessionID, direction string, step func(*domain.Session) bool) (*View, bool, error) {
	s, from, moved, err := e.sessions.Move(ctx, sessionID, step)
	if err != nil {
		return nil, false, err
	}

	if e.hooks.OnCursorMove != nil {
		e.hooks.OnCursorMove(ctx, &domain.CursorEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventCursorMove, SessionID: sessionID},
			Direction: direction,
			From:      from,
			To:        s.Cursor,
			Moved:     moved,
		})
	}

	v, err := e.Show(ctx, s)
	if err != nil {
		return nil, moved, err
	}
	return v, moved, nil
}

// Indicator is the 1-based "current step" label for a cursor.
func Indicator(cursor int) string {
	return fmt.Sprintf("Step: %d", cursor+1)
}

// History formats one line per step with the stack shown top first.
func History(steps []domain.Step) []string {
	lines := make([]string, len(steps))
	for i, st := range steps {
		lines[i] = HistoryLine(i, st)
	}
	return lines
}

// HistoryLine formats a single step, e.g. "Step 3: [np, s] | Input: 2".
func HistoryLine(i int, st domain.Step) string {
	return fmt.Sprintf("Step %d: [%s] | Input: %d", i+1, strings.Join(st.DisplayStack(), ", "), st.InputIndex)
}
