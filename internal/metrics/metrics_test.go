package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(reg)

	rec.ObserveOptimization("balanced", "ok", 3)
	rec.ObserveOptimization("balanced", "ok", 5)
	rec.ObserveOptimization("minimize_cost", "error", 0)
	rec.ObserveApproval("approved")
	rec.ObserveRun("started")
	rec.ObserveRun("started")

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.optimizations.WithLabelValues("balanced", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.optimizations.WithLabelValues("minimize_cost", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.approvals.WithLabelValues("approved")))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.runTransitions.WithLabelValues("started")))

	series, err := testutil.GatherAndCount(reg, "waypoint_optimizations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series)
	assert.Equal(t, 1, testutil.CollectAndCount(rec.pathsEnumerated))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() {
		rec.ObserveOptimization("balanced", "ok", 1)
		rec.ObserveApproval("rejected")
		rec.ObserveRun("abandoned")
	})
}
