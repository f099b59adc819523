// Package metrics exposes Prometheus instrumentation for optimization runs,
// approval decisions, and execution-run transitions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns the collectors. A nil *Recorder is valid and records nothing.
type Recorder struct {
	optimizations   *prometheus.CounterVec
	pathsEnumerated prometheus.Histogram
	approvals       *prometheus.CounterVec
	runTransitions  *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer to
// expose them process-wide, or a fresh registry in tests.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		// optimizations counts optimize calls by strategy and outcome
		optimizations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waypoint",
			Name:      "optimizations_total",
			Help:      "Total optimize calls by strategy and result",
		}, []string{"strategy", "result"}),

		pathsEnumerated: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "waypoint",
			Name:      "paths_enumerated",
			Help:      "Number of candidate paths enumerated per optimize call",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128, 512, 2048, 10000},
		}),

		approvals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waypoint",
			Name:      "approvals_total",
			Help:      "Approval request transitions by resulting status",
		}, []string{"status"}),

		runTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waypoint",
			Name:      "run_transitions_total",
			Help:      "Execution run transitions by kind",
		}, []string{"transition"}), // "started", "advanced", "completed", "abandoned"
	}
}

// ObserveOptimization records one optimize call. paths is ignored when the
// call failed before enumeration.
func (r *Recorder) ObserveOptimization(strategy, result string, paths int) {
	if r == nil {
		return
	}
	r.optimizations.WithLabelValues(strategy, result).Inc()
	if paths > 0 {
		r.pathsEnumerated.Observe(float64(paths))
	}
}

// ObserveApproval records an approval request reaching status.
func (r *Recorder) ObserveApproval(status string) {
	if r == nil {
		return
	}
	r.approvals.WithLabelValues(status).Inc()
}

// ObserveRun records an execution-run transition.
func (r *Recorder) ObserveRun(transition string) {
	if r == nil {
		return
	}
	r.runTransitions.WithLabelValues(transition).Inc()
}
