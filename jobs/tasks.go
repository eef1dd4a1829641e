package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/comptoir/backoffice/internal/platform/cache"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSalesReconcile is the task type for the sale totals reconciliation.
	TaskSalesReconcile = "sales:reconcile"
)

// ReconcilePayload narrows a reconciliation run.
type ReconcilePayload struct {
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
	MaxPages      int    `json:"max_pages,omitempty"`
}

// NewReconcileTask constructs an Asynq task.
func NewReconcileTask(payload ReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSalesReconcile, data), nil
}

// RedisOpt converts the shared Redis settings to asynq connection options.
func RedisOpt(opts cache.RedisOptions) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: opts.Addr, Password: opts.Password, DB: opts.DB}
}
