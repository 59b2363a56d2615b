// Package metrics exposes research and tool counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
)

// Ensure Recorder implements the interface.
var _ driven.ResearchMetrics = (*Recorder)(nil)

const namespace = "shelfsearch"

// Recorder holds the collectors on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	sessions       *prometheus.CounterVec
	sessionSeconds prometheus.Histogram
	rounds         prometheus.Histogram
	hits           prometheus.Histogram
	hookFailures   *prometheus.CounterVec
	fallbacks      *prometheus.CounterVec
	toolCalls      *prometheus.CounterVec
}

// NewRecorder creates a recorder with Go runtime and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "research_sessions_total",
			Help:      "Research sessions by outcome.",
		}, []string{"outcome"}),
		sessionSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "research_session_duration_seconds",
			Help:      "Wall time of research sessions.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		rounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "research_search_rounds",
			Help:      "Search rounds per session.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),
		hits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "research_hits",
			Help:      "Aggregated hits per session.",
			Buckets:   []float64{0, 1, 3, 5, 10, 25, 50, 100},
		}),
		hookFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postprocess_failures_total",
			Help:      "Isolated post-processing hook failures.",
		}, []string{"hook", "stage"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "language_fallbacks_total",
			Help:      "Steps that degraded to heuristics because the language model failed.",
		}, []string{"stage"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool gateway calls by tool and result code.",
		}, []string{"tool", "code"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.sessions, r.sessionSeconds, r.rounds, r.hits,
		r.hookFailures, r.fallbacks, r.toolCalls,
	)
	return r
}

// SessionFinished records a completed or failed session.
func (r *Recorder) SessionFinished(outcome string, rounds, hits int, elapsed time.Duration) {
	r.sessions.WithLabelValues(outcome).Inc()
	r.sessionSeconds.Observe(elapsed.Seconds())
	r.rounds.Observe(float64(rounds))
	r.hits.Observe(float64(hits))
}

// HookFailed records an isolated post-processing failure.
func (r *Recorder) HookFailed(hook, stage string) {
	r.hookFailures.WithLabelValues(hook, stage).Inc()
}

// LanguageFallback records a step that degraded to heuristics.
func (r *Recorder) LanguageFallback(stage string) {
	r.fallbacks.WithLabelValues(stage).Inc()
}

// ToolCalled records a tool gateway call. code is "ok" or a tool error code.
func (r *Recorder) ToolCalled(tool, code string) {
	r.toolCalls.WithLabelValues(tool, code).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
