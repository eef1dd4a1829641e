package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/comptoir/backoffice/internal/jobs"
	"github.com/comptoir/backoffice/internal/reconcile"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ReconcileRunner executes one reconciliation run.
type ReconcileRunner interface {
	Run(ctx context.Context, scope reconcile.Scope) (reconcile.Report, error)
}

// ReconcileJob checks sale totals against their line items.
type ReconcileJob struct {
	Runner  ReconcileRunner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewReconcileJob wires dependencies for the reconciliation handler.
func NewReconcileJob(runner ReconcileRunner, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReconcileJob {
	return &ReconcileJob{Runner: runner, Logger: logger, Metrics: metrics}
}

// Handle processes TaskSalesReconcile tasks.
func (j *ReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Runner == nil {
		return errors.New("sales reconcile: handler not configured")
	}
	var payload ReconcilePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.metrics().Track(TaskSalesReconcile)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(
		slog.String("start_date", payload.StartDate),
		slog.String("end_date", payload.EndDate),
		slog.Int("max_pages", payload.MaxPages),
	)
	logger.Info("starting sales reconciliation")
	start := time.Now()

	report, err := j.Runner.Run(ctx, reconcile.Scope{
		StartDate:     payload.StartDate,
		EndDate:       payload.EndDate,
		PaymentMethod: payload.PaymentMethod,
		MaxPages:      payload.MaxPages,
	})
	if err != nil {
		resultErr = err
		logger.Error("reconciliation failed", slog.String("run_id", report.RunID), slog.Any("error", err))
		return resultErr
	}

	byField := make(map[string]int)
	for _, f := range report.Findings {
		byField[f.Field]++
	}
	for field, n := range byField {
		j.metrics().AddFindings(field, n)
	}
	j.metrics().ObserveScan(report.Sales, report.Truncated)
	logger.Info("completed sales reconciliation",
		slog.String("run_id", report.RunID),
		slog.Int("sales", report.Sales),
		slog.Int("findings", len(report.Findings)),
		slog.Bool("truncated", report.Truncated),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *ReconcileJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSalesReconcile))
	}
	return slog.Default().With(slog.String("job", TaskSalesReconcile))
}

func (j *ReconcileJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
