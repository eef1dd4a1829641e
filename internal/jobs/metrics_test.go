package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("sales:reconcile").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("sales:reconcile").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("sales:reconcile", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("sales:reconcile", "failure")))
	assert.Positive(t, testutil.ToFloat64(m.lastSuccess.WithLabelValues("sales:reconcile")))
}

func TestObserveScanAndFindings(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveScan(40, true)
	m.ObserveScan(10, false)
	m.AddFindings("", 2)
	m.AddFindings("totalTax", 0)

	assert.Equal(t, 50.0, testutil.ToFloat64(m.scanned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.truncated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.findings.WithLabelValues("unknown")))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics

	require.NotPanics(t, func() {
		m.ObserveScan(1, true)
		m.AddFindings("totalTax", 1)
		assert.NoError(t, m.Track("sales:reconcile").End(nil))
	})
}
