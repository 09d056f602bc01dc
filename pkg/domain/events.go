package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTraceLoaded EventType = "trace_loaded"
	EventTraceFailed EventType = "trace_failed"
	EventCursorMove  EventType = "cursor_move"
	EventReplay      EventType = "replay"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// TraceEvent describes the outcome of a parse request.
type TraceEvent struct {
	EventBase
	Algorithm Algorithm     `json:"algorithm"`
	Steps     int           `json:"steps"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// CursorEvent describes a navigation move.
type CursorEvent struct {
	EventBase
	Direction string `json:"direction"` // "next", "prev", "seek"
	From      int    `json:"from"`
	To        int    `json:"to"`
	Moved     bool   `json:"moved"`
}

// ReplayEvent describes one snapshot reconstruction.
type ReplayEvent struct {
	EventBase
	Family    Family `json:"family"`
	Through   int    `json:"through"`
	Applied   int    `json:"applied"`
	Truncated bool   `json:"truncated"`
}

// LifecycleHooks defines callbacks for observability.
type LifecycleHooks struct {
	OnTraceLoaded func(context.Context, *TraceEvent)
	OnTraceFailed func(context.Context, *TraceEvent)
	OnCursorMove  func(context.Context, *CursorEvent)
	OnReplay      func(context.Context, *ReplayEvent)
}

// Merge returns hooks that call h first and then other, for every callback set on either.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTraceLoaded: chain(h.OnTraceLoaded, other.OnTraceLoaded),
		OnTraceFailed: chain(h.OnTraceFailed, other.OnTraceFailed),
		OnCursorMove:  chain(h.OnCursorMove, other.OnCursorMove),
		OnReplay:      chain(h.OnReplay, other.OnReplay),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
