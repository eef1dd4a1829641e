package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/comptoir/backoffice/internal/sales"
	"github.com/comptoir/backoffice/internal/sales/listing"
)

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	h.showListing(w, r, mainScope(), nil, http.StatusOK)
}

func (h *Handler) listCustomerSales(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.renderMessage(w, r, "pages/not_found.html", "Introuvable", "Client introuvable", http.StatusNotFound)
		return
	}
	h.showListing(w, r, customerScope(id), nil, http.StatusOK)
}

func (h *Handler) showListing(w http.ResponseWriter, r *http.Request, sc scope, form *formState, status int) {
	c, err := h.coordinator(r, sc)
	if err != nil {
		h.logger.Error("resolve listing view", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.settle(r.Context(), c)

	vm := buildListPage(c.Snapshot(), sc, h.nav)
	if form != nil {
		vm.Form = form.Form
		vm.Errors = form.Errors
	}
	title := "Ventes"
	if vm.Customer != nil {
		title = "Ventes du client"
	}
	h.render(w, r, "pages/sales/list.html", title, vm, status)
}

type formState struct {
	Form   sales.FilterForm
	Errors sales.FormErrors
}

func (h *Handler) applyFilters(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sc := scopeFromRequest(r)
	form := sales.FilterForm{
		StartDate:     r.PostFormValue("start_date"),
		EndDate:       r.PostFormValue("end_date"),
		PaymentMethod: r.PostFormValue("payment_method"),
	}.Normalize()
	if errs := form.Validate(); errs != nil {
		h.showListing(w, r, sc, &formState{Form: form, Errors: errs}, http.StatusBadRequest)
		return
	}

	c, err := h.target(r, sc)
	if err != nil {
		h.logger.Error("resolve listing view", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	c.SetFilters(r.Context(), filtersFromForm(form, sc))
	h.settle(r.Context(), c)
	http.Redirect(w, r, sc.returnURL, http.StatusSeeOther)
}

func (h *Handler) clearFilters(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.target, func(r *http.Request, c *listing.Coordinator) {
		c.ClearFilters(r.Context())
	})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.target, func(r *http.Request, c *listing.Coordinator) {
		h.invalidateDetails(r.Context())
		c.Refresh(r.Context())
	})
}

func (h *Handler) dismissError(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sc := scopeFromRequest(r)
	if c, ok := h.existing(r, sc); ok {
		c.DismissError()
	}
	http.Redirect(w, r, sc.returnURL, http.StatusSeeOther)
}

func (h *Handler) changePage(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.loaded, func(r *http.Request, c *listing.Coordinator) {
		n, err := strconv.Atoi(r.PostFormValue("page"))
		if err != nil {
			return
		}
		c.SetPage(r.Context(), n)
	})
}

// mutate resolves the targeted view, applies fn, waits for the resulting fetch and
// redirects back to the view.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, resolve func(*http.Request, scope) (*listing.Coordinator, error), fn func(*http.Request, *listing.Coordinator)) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sc := scopeFromRequest(r)
	c, err := resolve(r, sc)
	if err != nil {
		h.logger.Error("resolve listing view", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	fn(r, c)
	h.settle(r.Context(), c)
	http.Redirect(w, r, sc.returnURL, http.StatusSeeOther)
}

func filtersFromForm(form sales.FilterForm, sc scope) listing.Filters {
	return listing.Filters{
		StartDate:     form.StartDate,
		EndDate:       form.EndDate,
		PaymentMethod: form.PaymentMethod,
		CustomerID:    sc.customerID,
	}
}
