// Package coordinator issues parse requests and installs their traces into sessions.
//
// Each Run takes a fresh sequence number and becomes the in-flight request of
// its session, cancelling the one it replaces. A response is only applied while
// its request is still the session's in-flight one, so the most recently issued
// request always wins. Nothing is written to the session until a response is
// applied.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/parsetrail/internal/logging"
	"github.com/aretw0/parsetrail/pkg/domain"
	"github.com/aretw0/parsetrail/pkg/ports"
	"github.com/aretw0/parsetrail/pkg/replay"
	"github.com/aretw0/parsetrail/pkg/session"
)

var (
	// ErrService wraps every failure reported by the parsing service or the transport.
	ErrService = errors.New("parsing service failed")

	// ErrSuperseded is returned when a newer request for the same session was issued meanwhile.
	ErrSuperseded = errors.New("parse request superseded by a newer one")

	// ErrInvalidInput is returned when the form inputs cannot form a request.
	ErrInvalidInput = errors.New("invalid parse input")
)

// Input is what the user fills in before asking for a parse.
type Input struct {
	Sentence     string `json:"sentence"`
	Grammar      string `json:"grammar"`
	Strategy     string `json:"algorithm"`
	Backtracking bool   `json:"backtracking"`
}

type inflight struct {
	seq        uint64
	cancel     context.CancelFunc
	superseded atomic.Bool
}

// Coordinator gathers inputs, calls the service once and stores the returned steps.
type Coordinator struct {
	service  ports.TraceService
	sessions *session.Manager
	engine   *replay.Engine

	timeout time.Duration
	hooks   domain.LifecycleHooks
	logger  *slog.Logger

	seq     atomic.Uint64
	mu      sync.Mutex
	pending map[string]*inflight
}

// Option configures the Coordinator.
type Option func(*Coordinator)

// WithTimeout bounds each service call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.timeout = d
	}
}

// WithHooks registers lifecycle callbacks, merged with any set earlier.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(c *Coordinator) {
		c.hooks = c.hooks.Merge(h)
	}
}

// WithLogger configures a logger for the Coordinator.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// New creates a Coordinator. The engine renders each freshly loaded trace.
func New(service ports.TraceService, sessions *session.Manager, engine *replay.Engine, opts ...Option) *Coordinator {
	c := &Coordinator{
		service:  service,
		sessions: sessions,
		engine:   engine,
		logger:   logging.NewNop(),
		pending:  make(map[string]*inflight),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run issues one parse request for the session and, on success, replaces its trace
// and renders the first step. On failure the session keeps its previous trace.
func (c *Coordinator) Run(ctx context.Context, sessionID string, in Input) (*replay.View, error) {
	algorithm, err := domain.ComposeAlgorithm(in.Strategy, in.Backtracking)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	seq := c.seq.Add(1)
	reqCtx, entry, err := c.register(ctx, sessionID, seq)
	if err != nil {
		return nil, err
	}
	defer c.unregister(sessionID, entry)

	log := c.logger.With("session_id", sessionID, "seq", seq, "algorithm", algorithm)
	log.Debug("issuing parse request")

	start := time.Now()
	steps, err := c.service.Parse(reqCtx, ports.ParseRequest{
		Sentence:  in.Sentence,
		Grammar:   in.Grammar,
		Algorithm: algorithm,
	})
	elapsed := time.Since(start)

	if err != nil {
		if entry.superseded.Load() {
			log.Debug("parse request cancelled by a newer one")
			return nil, ErrSuperseded
		}
		log.Warn("parse request failed", "err", err, "duration", elapsed)
		c.fireFailed(ctx, sessionID, algorithm, elapsed, err)
		return nil, fmt.Errorf("%w: %w", ErrService, err)
	}

	s, err := c.sessions.Update(ctx, sessionID, func(s *domain.Session) error {
		if !c.current(sessionID, entry) {
			return ErrSuperseded
		}
		s.Replace(domain.Trace{
			Sentence:  in.Sentence,
			Grammar:   in.Grammar,
			Algorithm: algorithm,
			Steps:     steps,
		})
		s.Applied++
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSuperseded) {
			log.Debug("discarding stale parse response")
		}
		return nil, err
	}

	log.Info("trace loaded", "steps", len(steps), "duration", elapsed)
	if c.hooks.OnTraceLoaded != nil {
		c.hooks.OnTraceLoaded(ctx, &domain.TraceEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTraceLoaded, SessionID: sessionID},
			Algorithm: algorithm,
			Steps:     len(steps),
			Duration:  elapsed,
		})
	}

	return c.engine.Show(ctx, s)
}

// register records the request as the session's in-flight one, cancelling an older one.
// If a newer request already registered, this one is superseded before it starts.
func (c *Coordinator) register(ctx context.Context, sessionID string, seq uint64) (context.Context, *inflight, error) {
	reqCtx, cancel := context.WithCancel(ctx)
	if c.timeout > 0 {
		var cancelTimeout context.CancelFunc
		reqCtx, cancelTimeout = context.WithTimeout(reqCtx, c.timeout)
		parent := cancel
		cancel = func() {
			cancelTimeout()
			parent()
		}
	}
	entry := &inflight{seq: seq, cancel: cancel}

	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.pending[sessionID]; ok {
		if prev.seq > seq {
			cancel()
			return nil, nil, ErrSuperseded
		}
		prev.superseded.Store(true)
		prev.cancel()
	}
	c.pending[sessionID] = entry
	return reqCtx, entry, nil
}

func (c *Coordinator) unregister(sessionID string, entry *inflight) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry.cancel()
	if cur, ok := c.pending[sessionID]; ok && cur == entry {
		delete(c.pending, sessionID)
	}
}

// current reports whether entry is still the session's in-flight request.
func (c *Coordinator) current(sessionID string, entry *inflight) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[sessionID] == entry
}

// InFlight reports how many sessions have a request outstanding.
func (c *Coordinator) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Coordinator) fireFailed(ctx context.Context, sessionID string, algorithm domain.Algorithm, elapsed time.Duration, err error) {
	if c.hooks.OnTraceFailed == nil {
		return
	}
	c.hooks.OnTraceFailed(ctx, &domain.TraceEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTraceFailed, SessionID: sessionID},
		Algorithm: algorithm,
		Duration:  elapsed,
		Err:       err,
	})
}
