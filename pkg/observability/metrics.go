package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/parsetrail/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "parsetrail"

// Outcome labels for parse requests.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	ParseRequests *prometheus.CounterVec
	ParseDuration *prometheus.HistogramVec
	TraceSteps    *prometheus.HistogramVec
	CursorMoves   *prometheus.CounterVec
	Truncations   *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.NewRegistry())
}

// NewMetricsWith registers the collectors on reg.
func NewMetricsWith(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		ParseRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "parse_requests_total",
				Help:      "Parse requests sent to the parsing service, by algorithm and outcome.",
			},
			[]string{"algorithm", "outcome"},
		),
		ParseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "parse_duration_seconds",
				Help:      "Latency of parse requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"algorithm"},
		),
		TraceSteps: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "trace_steps",
				Help:      "Number of steps in loaded traces.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"algorithm"},
		),
		CursorMoves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cursor_moves_total",
				Help:      "Navigation requests, by direction and whether the cursor moved.",
			},
			[]string{"direction", "moved"},
		),
		Truncations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "replay_truncations_total",
				Help:      "Snapshots whose replay stopped early on a malformed trace.",
			},
			[]string{"family"},
		),
	}
	reg.MustRegister(m.ParseRequests, m.ParseDuration, m.TraceSteps, m.CursorMoves, m.Truncations)
	return m
}

// Hooks returns lifecycle callbacks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTraceLoaded: func(_ context.Context, e *domain.TraceEvent) {
			alg := string(e.Algorithm)
			m.ParseRequests.WithLabelValues(alg, OutcomeOK).Inc()
			m.ParseDuration.WithLabelValues(alg).Observe(e.Duration.Seconds())
			m.TraceSteps.WithLabelValues(alg).Observe(float64(e.Steps))
		},
		OnTraceFailed: func(_ context.Context, e *domain.TraceEvent) {
			alg := string(e.Algorithm)
			m.ParseRequests.WithLabelValues(alg, OutcomeError).Inc()
			m.ParseDuration.WithLabelValues(alg).Observe(e.Duration.Seconds())
		},
		OnCursorMove: func(_ context.Context, e *domain.CursorEvent) {
			moved := "false"
			if e.Moved {
				moved = "true"
			}
			m.CursorMoves.WithLabelValues(e.Direction, moved).Inc()
		},
		OnReplay: func(_ context.Context, e *domain.ReplayEvent) {
			if e.Truncated {
				m.Truncations.WithLabelValues(string(e.Family)).Inc()
			}
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
