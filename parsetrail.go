package parsetrail

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/parsetrail/pkg/adapters/memory"
	"github.com/aretw0/parsetrail/pkg/coordinator"
	"github.com/aretw0/parsetrail/pkg/domain"
	"github.com/aretw0/parsetrail/pkg/ports"
	"github.com/aretw0/parsetrail/pkg/replay"
	"github.com/aretw0/parsetrail/pkg/session"
)

// Input is what a parse request is built from.
type Input = coordinator.Input

// View is everything a renderer needs for one cursor position.
type View = replay.View

// Replayer is the high-level entry point for the parsetrail library.
// It wires the session manager, the replay engine and the request coordinator together.
type Replayer struct {
	Sessions    *session.Manager
	Engine      *replay.Engine
	Coordinator *coordinator.Coordinator

	store       ports.SessionStore
	locker      ports.DistributedLocker
	renderer    ports.Renderer
	hooks       domain.LifecycleHooks
	startSymbol string
	timeout     time.Duration
	logger      *slog.Logger
}

// Option defines a functional option for configuring the Replayer.
type Option func(*Replayer)

// WithStore replaces the default in-memory session store.
func WithStore(store ports.SessionStore) Option {
	return func(r *Replayer) {
		r.store = store
	}
}

// WithLocker adds a distributed lock around session updates.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(r *Replayer) {
		r.locker = locker
	}
}

// WithRenderer sets where views are drawn.
func WithRenderer(renderer ports.Renderer) Option {
	return func(r *Replayer) {
		r.renderer = renderer
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Replayer) {
		r.hooks = r.hooks.Merge(hooks)
	}
}

// WithStartSymbol names the root of top-down trees.
func WithStartSymbol(symbol string) Option {
	return func(r *Replayer) {
		r.startSymbol = symbol
	}
}

// WithTimeout bounds each call to the parsing service.
func WithTimeout(d time.Duration) Option {
	return func(r *Replayer) {
		r.timeout = d
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Replayer) {
		r.logger = logger
	}
}

// New initializes a Replayer that asks service for traces.
func New(service ports.TraceService, opts ...Option) *Replayer {
	r := &Replayer{}
	for _, opt := range opts {
		opt(r)
	}

	if r.store == nil {
		r.store = memory.NewStore()
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	mgrOpts := []session.Option{session.WithLogger(r.logger)}
	if r.locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(r.locker))
	}
	r.Sessions = session.NewManager(r.store, mgrOpts...)

	engOpts := []replay.Option{
		replay.WithHooks(r.hooks),
		replay.WithLogger(r.logger),
	}
	if r.renderer != nil {
		engOpts = append(engOpts, replay.WithRenderer(r.renderer))
	}
	if r.startSymbol != "" {
		engOpts = append(engOpts, replay.WithStartSymbol(r.startSymbol))
	}
	r.Engine = replay.New(r.Sessions, engOpts...)

	coordOpts := []coordinator.Option{
		coordinator.WithHooks(r.hooks),
		coordinator.WithLogger(r.logger),
	}
	if r.timeout > 0 {
		coordOpts = append(coordOpts, coordinator.WithTimeout(r.timeout))
	}
	r.Coordinator = coordinator.New(service, r.Sessions, r.Engine, coordOpts...)

	return r
}

// Store returns the session store in use.
func (r *Replayer) Store() ports.SessionStore {
	return r.store
}

// Parse requests a trace for the session and shows its first step.
func (r *Replayer) Parse(ctx context.Context, sessionID string, in Input) (*View, error) {
	return r.Coordinator.Run(ctx, sessionID, in)
}

// Open shows the session at its stored cursor.
func (r *Replayer) Open(ctx context.Context, sessionID string) (*View, error) {
	return r.Engine.Open(ctx, sessionID)
}

// Next advances the cursor. moved is false at the last step.
func (r *Replayer) Next(ctx context.Context, sessionID string) (*View, bool, error) {
	return r.Engine.Next(ctx, sessionID)
}

// Prev moves the cursor back. moved is false at the first step.
func (r *Replayer) Prev(ctx context.Context, sessionID string) (*View, bool, error) {
	return r.Engine.Prev(ctx, sessionID)
}

// Seek moves the cursor to step i, clamped to the trace.
func (r *Replayer) Seek(ctx context.Context, sessionID string, i int) (*View, bool, error) {
	return r.Engine.Seek(ctx, sessionID, i)
}

// Reset drops the session's trace but keeps the session.
func (r *Replayer) Reset(ctx context.Context, sessionID string) error {
	_, err := r.Sessions.Update(ctx, sessionID, func(s *domain.Session) error {
		s.Reset()
		return nil
	})
	return err
}

// Delete removes the session.
func (r *Replayer) Delete(ctx context.Context, sessionID string) error {
	return r.Sessions.Delete(ctx, sessionID)
}
