package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/comptoir/backoffice/internal/platform/httpx"
	"github.com/comptoir/backoffice/internal/sales"
)

// QueueInspector reads queue statistics.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Enqueuer submits reconciliation runs.
type Enqueuer interface {
	EnqueueReconcile(ctx context.Context, payload ReconcilePayload) (*asynq.TaskInfo, error)
}

// Handler exposes queue health and on-demand reconciliation over HTTP.
type Handler struct {
	inspector QueueInspector
	enqueuer  Enqueuer
	logger    *slog.Logger
}

// NewHandler constructs the jobs HTTP handler. Either dependency may be nil.
func NewHandler(inspector QueueInspector, enqueuer Enqueuer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{inspector: inspector, enqueuer: enqueuer, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
	r.Post("/reconcile", h.reconcile)
}

type queueHealth struct {
	Queue     string `json:"queue"`
	Paused    bool   `json:"paused"`
	Size      int    `json:"size"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
}

type enqueued struct {
	TaskID string `json:"task_id"`
	Queue  string `json:"queue"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	out := queueHealth{Queue: QueueDefault}
	if h.inspector != nil {
		info, err := h.inspector.GetQueueInfo(QueueDefault)
		if err != nil {
			h.logger.Warn("jobs health", slog.Any("error", err))
			httpx.RespondError(w, fmt.Errorf("%w: job queue", httpx.ErrUnavailable))
			return
		}
		if info != nil {
			out = queueHealth{
				Queue:     info.Queue,
				Paused:    info.Paused,
				Size:      info.Size,
				Pending:   info.Pending,
				Active:    info.Active,
				Scheduled: info.Scheduled,
				Retry:     info.Retry,
				Archived:  info.Archived,
			}
		}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer == nil {
		httpx.RespondError(w, fmt.Errorf("%w: job queue", httpx.ErrUnavailable))
		return
	}
	var payload ReconcilePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil && !errors.Is(err, io.EOF) {
		httpx.RespondError(w, fmt.Errorf("%w: invalid JSON body", httpx.ErrValidation))
		return
	}
	if payload.MaxPages < 0 {
		httpx.RespondError(w, fmt.Errorf("%w: max_pages must not be negative", httpx.ErrValidation))
		return
	}
	form := sales.FilterForm{
		StartDate:     payload.StartDate,
		EndDate:       payload.EndDate,
		PaymentMethod: payload.PaymentMethod,
	}.Normalize()
	if errs := form.Validate(); errs != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, errs.Error()))
		return
	}
	payload.StartDate, payload.EndDate, payload.PaymentMethod = form.StartDate, form.EndDate, form.PaymentMethod

	info, err := h.enqueuer.EnqueueReconcile(r.Context(), payload)
	if err != nil {
		h.logger.Error("enqueue reconcile", slog.Any("error", err))
		httpx.RespondError(w, fmt.Errorf("%w: job queue", httpx.ErrUnavailable))
		return
	}
	h.logger.Info("reconcile enqueued", slog.String("task_id", info.ID))
	httpx.JSON(w, http.StatusAccepted, enqueued{TaskID: info.ID, Queue: info.Queue})
}
