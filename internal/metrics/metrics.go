// Package metrics provides Prometheus metrics for the staffing engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agencyops/staffing-engine/internal/staffing"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	SynthesesTotal    *prometheus.CounterVec
	SynthesisDuration *prometheus.HistogramVec
	RuleApplications  *prometheus.CounterVec
	TraceWarnings     *prometheus.CounterVec
	UnresolvedRoles   prometheus.Counter
	PlansNeedReview   prometheus.Counter
	StoreErrors       *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		SynthesesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staffing_syntheses_total",
				Help: "Total synthesis runs by project type and status.",
			},
			[]string{"project_type", "status"},
		),
		SynthesisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "staffing_synthesis_duration_seconds",
				Help:    "Synthesis duration by project type.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"project_type"},
		),
		RuleApplications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staffing_rule_applications_total",
				Help: "Policy rule applications by rule name.",
			},
			[]string{"rule"},
		),
		TraceWarnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staffing_trace_warnings_total",
				Help: "Rule trace warnings by rule name.",
			},
			[]string{"rule"},
		),
		UnresolvedRoles: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "staffing_unresolved_roles_total",
				Help: "Role titles that did not match the taxonomy.",
			},
		),
		PlansNeedReview: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "staffing_plans_need_review_total",
				Help: "Synthesized plans flagged for human review.",
			},
		),
		StoreErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staffing_store_errors_total",
				Help: "Persistence errors by operation.",
			},
			[]string{"operation"},
		),
		registry: reg,
	}

	reg.MustRegister(m.SynthesesTotal)
	reg.MustRegister(m.SynthesisDuration)
	reg.MustRegister(m.RuleApplications)
	reg.MustRegister(m.TraceWarnings)
	reg.MustRegister(m.UnresolvedRoles)
	reg.MustRegister(m.PlansNeedReview)
	reg.MustRegister(m.StoreErrors)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordSynthesis increments the synthesis counter.
func (m *Metrics) RecordSynthesis(projectType, status string) {
	m.SynthesesTotal.WithLabelValues(projectType, status).Inc()
}

// ObserveSynthesisDuration records how long a synthesis run took.
func (m *Metrics) ObserveSynthesisDuration(projectType string, seconds float64) {
	m.SynthesisDuration.WithLabelValues(projectType).Observe(seconds)
}

// RecordStoreError increments the persistence error counter.
func (m *Metrics) RecordStoreError(operation string) {
	m.StoreErrors.WithLabelValues(operation).Inc()
}

// RecordPlan walks a finished plan and updates the per-rule and
// per-role counters in one place.
func (m *Metrics) RecordPlan(plan *staffing.Plan) {
	for _, rec := range plan.RuleTrace {
		if rec.Applied {
			m.RuleApplications.WithLabelValues(rec.Rule).Inc()
		}
		if rec.Warning != "" {
			m.TraceWarnings.WithLabelValues(rec.Rule).Inc()
		}
	}
	for _, r := range plan.Roles {
		if !r.Resolved() {
			m.UnresolvedRoles.Inc()
		}
	}
	if plan.NeedsReview() {
		m.PlansNeedReview.Inc()
	}
}
