package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/comptoir/backoffice/internal/platform/httpx"
	"github.com/comptoir/backoffice/internal/sales"
	"github.com/comptoir/backoffice/internal/sales/listing"
	"github.com/comptoir/backoffice/internal/sales/present"
	"github.com/comptoir/backoffice/internal/shared"
)

// viewResponse is the JSON rendition of a listing view.
type viewResponse struct {
	Filters    listing.Filters   `json:"filters"`
	Pagination shared.Pagination `json:"pagination"`
	Loading    bool              `json:"loading"`
	Loaded     bool              `json:"loaded"`
	Error      string            `json:"error,omitempty"`
	FetchedAt  *time.Time        `json:"fetchedAt,omitempty"`
	Rows       []present.Row     `json:"rows"`
	CSRFToken  string            `json:"csrfToken,omitempty"`
}

type pageResponse struct {
	viewResponse
	Accepted bool `json:"accepted"`
}

type filterRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type pageRequest struct {
	Page int `json:"page"`
}

func (h *Handler) apiView(w http.ResponseWriter, r *http.Request) {
	c, ok := h.apiCoordinator(w, r, h.coordinator)
	if !ok {
		return
	}
	h.settle(r.Context(), c)
	httpx.JSON(w, http.StatusOK, h.viewJSON(r, c.Snapshot()))
}

func (h *Handler) apiSetFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid JSON body", httpx.ErrValidation))
		return
	}
	c, ok := h.apiCoordinator(w, r, h.target)
	if !ok {
		return
	}

	key := listing.FilterKey(req.Key)
	next, err := listing.ApplyFilterChange(c.Snapshot(), key, req.Value)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return
	}
	if key == listing.FilterCustomer && c.Defaults().CustomerID != "" {
		httpx.RespondError(w, fmt.Errorf("%w: customer is fixed for this view", httpx.ErrValidation))
		return
	}
	form := sales.FilterForm{
		StartDate:     next.Filters.StartDate,
		EndDate:       next.Filters.EndDate,
		PaymentMethod: next.Filters.PaymentMethod,
	}.Normalize()
	if errs := form.Validate(); errs != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, errs.Error()))
		return
	}

	value := req.Value
	switch key {
	case listing.FilterStartDate:
		value = form.StartDate
	case listing.FilterEndDate:
		value = form.EndDate
	case listing.FilterPaymentMethod:
		value = form.PaymentMethod
	}
	if err := c.SetFilter(r.Context(), key, value); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return
	}
	h.settle(r.Context(), c)
	httpx.JSON(w, http.StatusOK, h.viewJSON(r, c.Snapshot()))
}

func (h *Handler) apiSetFilters(w http.ResponseWriter, r *http.Request) {
	var form sales.FilterForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid JSON body", httpx.ErrValidation))
		return
	}
	form = form.Normalize()
	if errs := form.Validate(); errs != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, errs.Error()))
		return
	}
	sc := scopeFromRequest(r)
	c, ok := h.apiCoordinator(w, r, h.target)
	if !ok {
		return
	}
	c.SetFilters(r.Context(), filtersFromForm(form, sc))
	h.settle(r.Context(), c)
	httpx.JSON(w, http.StatusOK, h.viewJSON(r, c.Snapshot()))
}

func (h *Handler) apiClear(w http.ResponseWriter, r *http.Request) {
	c, ok := h.apiCoordinator(w, r, h.target)
	if !ok {
		return
	}
	c.ClearFilters(r.Context())
	h.settle(r.Context(), c)
	httpx.JSON(w, http.StatusOK, h.viewJSON(r, c.Snapshot()))
}

func (h *Handler) apiRefresh(w http.ResponseWriter, r *http.Request) {
	c, ok := h.apiCoordinator(w, r, h.target)
	if !ok {
		return
	}
	h.invalidateDetails(r.Context())
	c.Refresh(r.Context())
	h.settle(r.Context(), c)
	httpx.JSON(w, http.StatusOK, h.viewJSON(r, c.Snapshot()))
}

func (h *Handler) apiDismiss(w http.ResponseWriter, r *http.Request) {
	if c, ok := h.existing(r, scopeFromRequest(r)); ok {
		c.DismissError()
		httpx.JSON(w, http.StatusOK, h.viewJSON(r, c.Snapshot()))
		return
	}
	h.apiView(w, r)
}

func (h *Handler) apiPage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid JSON body", httpx.ErrValidation))
		return
	}
	c, ok := h.apiCoordinator(w, r, h.loaded)
	if !ok {
		return
	}
	accepted := c.SetPage(r.Context(), req.Page)
	if accepted {
		h.settle(r.Context(), c)
	}
	httpx.JSON(w, http.StatusOK, pageResponse{viewResponse: h.viewJSON(r, c.Snapshot()), Accepted: accepted})
}

func (h *Handler) apiSale(w http.ResponseWriter, r *http.Request) {
	detail, err := h.loadDetail(r.Context(), chi.URLParam(r, "id"))
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, detail)
	case errors.Is(err, sales.ErrNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrNotFound, msgSaleNotFound))
	default:
		h.logger.Error("load sale failed", slog.Any("error", err), slog.String("sale_id", chi.URLParam(r, "id")))
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrUpstream, msgSaleLoadError))
	}
}

func (h *Handler) apiCoordinator(w http.ResponseWriter, r *http.Request, resolve func(*http.Request, scope) (*listing.Coordinator, error)) (*listing.Coordinator, bool) {
	c, err := resolve(r, scopeFromRequest(r))
	if err != nil {
		h.logger.Error("resolve listing view", slog.Any("error", err))
		httpx.RespondError(w, err)
		return nil, false
	}
	return c, true
}

func (h *Handler) viewJSON(r *http.Request, state listing.State) viewResponse {
	resp := viewResponse{
		Filters:    state.Filters,
		Pagination: state.Pagination,
		Loading:    state.Loading,
		Loaded:     state.Loaded,
		Error:      state.Error,
		Rows:       present.BuildRows(state.Sales, h.nav),
	}
	if !state.FetchedAt.IsZero() {
		at := state.FetchedAt
		resp.FetchedAt = &at
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil && h.csrf != nil {
		resp.CSRFToken, _ = h.csrf.EnsureToken(r.Context(), sess)
	}
	return resp
}
