// Package metrics provides observability for the assessment module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks workflow transitions and evaluation latency. All methods
// are nil-safe so tests can run without a registry.
type Metrics struct {
	TransitionsTotal     *prometheus.CounterVec
	GuardViolationsTotal *prometheus.CounterVec
	EvaluationDuration   *prometheus.HistogramVec
}

// New registers the assessment module metrics with the default registry.
func New() *Metrics {
	return &Metrics{
		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "govseal_assessment_transitions_total",
			Help: "Committed workflow transitions by action",
		}, []string{"action"}),
		GuardViolationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "govseal_assessment_guard_violations_total",
			Help: "Rejected transition attempts by action",
		}, []string{"action"}),
		EvaluationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "govseal_assessment_evaluation_duration_seconds",
			Help:    "Duration of completeness and compliance evaluations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"kind"}),
	}
}

// IncrementTransition records a committed transition.
func (m *Metrics) IncrementTransition(action string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(action).Inc()
}

// IncrementGuardViolation records a rejected transition attempt.
func (m *Metrics) IncrementGuardViolation(action string) {
	if m == nil {
		return
	}
	m.GuardViolationsTotal.WithLabelValues(action).Inc()
}

// ObserveEvaluation records evaluation latency. Call with time.Now() taken
// at the start of the evaluation.
func (m *Metrics) ObserveEvaluation(kind string, start time.Time) {
	if m == nil {
		return
	}
	m.EvaluationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
