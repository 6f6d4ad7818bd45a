// Package metrics exposes Prometheus instrumentation for timer and
// reconciliation activity. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/ganot/timeflow/internal/domain/focus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered for one process.
type Metrics struct {
	commits   *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	conflicts *prometheus.CounterVec
	events    *prometheus.CounterVec
	restores  *prometheus.CounterVec
}

// New registers collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		commits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "timeflow_reconcile_commits_total",
			Help: "Reconciliation commits by kind and status",
		}, []string{"kind", "status"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "timeflow_reconcile_duration_seconds",
			Help:    "Reconciliation commit duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"kind"}),
		conflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "timeflow_reconcile_version_conflicts_total",
			Help: "Optimistic version conflicts by record",
		}, []string{"record"}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "timeflow_timer_events_total",
			Help: "Timer lifecycle events by type",
		}, []string{"type"}),
		restores: f.NewCounterVec(prometheus.CounterOpts{
			Name: "timeflow_timer_restores_total",
			Help: "Snapshot restore attempts by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveCommit records one reconciliation commit.
func (m *Metrics) ObserveCommit(kind string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.commits.WithLabelValues(kind, status).Inc()
	m.latency.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// Conflict counts a version conflict on record ("daily_progress" or "streak").
func (m *Metrics) Conflict(record string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(record).Inc()
}

// Restore counts a snapshot restore outcome.
func (m *Metrics) Restore(outcome string) {
	if m == nil {
		return
	}
	m.restores.WithLabelValues(outcome).Inc()
}

// Notify counts timer events. Ticks are skipped.
func (m *Metrics) Notify(ev focus.Event) {
	if m == nil || ev.Type == focus.EventTick {
		return
	}
	m.events.WithLabelValues(string(ev.Type)).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
