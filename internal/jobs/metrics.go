// Package jobmetrics instruments background job runs.
package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors shared by every job.
type Metrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	scanned     prometheus.Counter
	truncated   prometheus.Counter
	findings    *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the collectors on registerer, or once on the default
// registerer when it is nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = build(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return build(registerer)
}

func build(registerer prometheus.Registerer) *Metrics {
	f := promauto.With(registerer)
	return &Metrics{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_jobs_total",
			Help: "Job executions by task type and status.",
		}, []string{"job", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backoffice_job_duration_seconds",
			Help:    "Job execution time by task type.",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"job"}),
		lastSuccess: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "backoffice_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run by task type.",
		}, []string{"job"}),
		scanned: f.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_reconcile_sales_scanned_total",
			Help: "Sales checked by reconciliation runs.",
		}),
		truncated: f.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_reconcile_truncated_runs_total",
			Help: "Reconciliation runs that stopped at the page limit.",
		}),
		findings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_reconcile_findings_total",
			Help: "Sale totals mismatches recorded by reconciliation runs, by field.",
		}, []string{"field"}),
	}
}

// Tracker times one job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track starts timing a run of job. A nil Metrics yields a no-op tracker.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End records the outcome and returns err untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
	} else {
		t.metrics.lastSuccess.WithLabelValues(t.job).SetToCurrentTime()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// ObserveScan records the size of a completed reconciliation run.
func (m *Metrics) ObserveScan(sales int, truncated bool) {
	if m == nil {
		return
	}
	m.scanned.Add(float64(sales))
	if truncated {
		m.truncated.Inc()
	}
}

// AddFindings increments the reconciliation findings counter for a totals field.
func (m *Metrics) AddFindings(field string, count int) {
	if m == nil || count <= 0 {
		return
	}
	if field == "" {
		field = "unknown"
	}
	m.findings.WithLabelValues(field).Add(float64(count))
}
