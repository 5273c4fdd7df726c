// Package observability exposes the engine's event stream as Prometheus
// metrics. The collector is an optional sink: hosts that do not register it
// pay nothing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arborflow/arbor/pkg/domain"
)

// Metrics counts engine activity for scraping.
type Metrics struct {
	events         *prometheus.CounterVec
	dagErrors      prometheus.Counter
	activeBranches prometheus.Gauge
	joinWaits      prometheus.Counter
}

// NewMetrics creates and registers the collectors. Pass
// prometheus.DefaultRegisterer for the global registry, or a private
// registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbor",
			Name:      "events_total",
			Help:      "Engine events appended to the audit log, by type.",
		}, []string{"type"}),
		dagErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arbor",
			Name:      "dag_errors_total",
			Help:      "Handler faults converted to terminal dag_error results.",
		}),
		activeBranches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arbor",
			Name:      "active_branches",
			Help:      "Active branches of the most recently observed context.",
		}),
		joinWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arbor",
			Name:      "join_waits_total",
			Help:      "Join evaluations that parked waiting for more branches.",
		}),
	}
	reg.MustRegister(m.events, m.dagErrors, m.activeBranches, m.joinWaits)
	return m
}

// ObserveEvent records one audit-log event.
func (m *Metrics) ObserveEvent(ev domain.Event) {
	m.events.WithLabelValues(string(ev.Type)).Inc()
	if ev.Type == domain.EventJoinWaiting {
		m.joinWaits.Inc()
	}
}

// ObserveResult records the outcome of one executor dispatch.
func (m *Metrics) ObserveResult(res *domain.ExecutionResult, ec *domain.ExecutionContext) {
	if res == nil {
		return
	}
	if res.Action == domain.ActionDAGError {
		m.dagErrors.Inc()
	}
	if res.Event != nil {
		m.ObserveEvent(*res.Event)
	}
	if ec != nil {
		m.activeBranches.Set(float64(len(ec.ActiveBranchIDs())))
	}
}
