package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/comptoir/backoffice/internal/jobs"
	"github.com/comptoir/backoffice/internal/reconcile"
)

type stubRunner struct {
	scope  reconcile.Scope
	report reconcile.Report
	err    error
}

func (s *stubRunner) Run(ctx context.Context, scope reconcile.Scope) (reconcile.Report, error) {
	s.scope = scope
	return s.report, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewReconcileTask(t *testing.T) {
	task, err := NewReconcileTask(ReconcilePayload{StartDate: "2024-01-01", MaxPages: 5})
	require.NoError(t, err)
	assert.Equal(t, TaskSalesReconcile, task.Type())

	var payload ReconcilePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "2024-01-01", payload.StartDate)
	assert.Equal(t, 5, payload.MaxPages)
}

func TestReconcileJobHandle(t *testing.T) {
	runner := &stubRunner{report: reconcile.Report{
		RunID: "run-1",
		Sales: 3,
		Findings: []reconcile.Finding{
			{SaleID: "s1", Field: "totalTax"},
			{SaleID: "s2", Field: "totalTax"},
		},
	}}
	registry := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(registry)
	job := NewReconcileJob(runner, discardLogger(), metrics)

	task, err := NewReconcileTask(ReconcilePayload{PaymentMethod: "CASH", MaxPages: 2})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, reconcile.Scope{PaymentMethod: "CASH", MaxPages: 2}, runner.scope)
	count, err := testutil.GatherAndCount(registry, "backoffice_reconcile_findings_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = testutil.GatherAndCount(registry, "backoffice_jobs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(`
# HELP backoffice_reconcile_findings_total Sale totals mismatches recorded by reconciliation runs, by field.
# TYPE backoffice_reconcile_findings_total counter
backoffice_reconcile_findings_total{field="totalTax"} 2
# HELP backoffice_reconcile_sales_scanned_total Sales checked by reconciliation runs.
# TYPE backoffice_reconcile_sales_scanned_total counter
backoffice_reconcile_sales_scanned_total 3
`), "backoffice_reconcile_findings_total", "backoffice_reconcile_sales_scanned_total"))
}

func TestReconcileJobPropagatesFailure(t *testing.T) {
	runner := &stubRunner{err: errors.New("pos api down")}
	job := NewReconcileJob(runner, discardLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))

	err := job.Handle(context.Background(), asynq.NewTask(TaskSalesReconcile, nil))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pos api down")
}

func TestReconcileJobSkipsMalformedPayload(t *testing.T) {
	job := NewReconcileJob(&stubRunner{}, discardLogger(), nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskSalesReconcile, []byte("{")))

	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestReconcileJobNotConfigured(t *testing.T) {
	var job *ReconcileJob
	assert.Error(t, job.Handle(context.Background(), asynq.NewTask(TaskSalesReconcile, nil)))
}
