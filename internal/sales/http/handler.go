package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/comptoir/backoffice/internal/observability"
	"github.com/comptoir/backoffice/internal/reconcile"
	"github.com/comptoir/backoffice/internal/sales"
	"github.com/comptoir/backoffice/internal/sales/listing"
	"github.com/comptoir/backoffice/internal/sales/present"
	"github.com/comptoir/backoffice/internal/shared"
	"github.com/comptoir/backoffice/internal/view"
	"github.com/comptoir/backoffice/web"
)

// DefaultWaitTimeout bounds how long a page waits for the listing fetch it triggered.
const DefaultWaitTimeout = 5 * time.Second

// SaleLoader loads a single sale.
type SaleLoader interface {
	GetSale(ctx context.Context, id string) (sales.Sale, error)
}

// FindingsReader lists persisted totals findings.
type FindingsReader interface {
	ListFindings(ctx context.Context, limit int) ([]reconcile.Finding, error)
}

// CacheInvalidator drops cached sale details.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context) error
}

// PDFRenderClient defines the minimal subset of the report client we use.
type PDFRenderClient interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Config groups Handler dependencies. Findings, PDF, Invalidator and Metrics are optional.
type Config struct {
	Logger      *slog.Logger
	Sales       SaleLoader
	Registry    *listing.Registry
	Templates   *view.Engine
	CSRF        *shared.CSRFManager
	Navigator   present.Navigator
	Formatter   *present.Formatter
	Findings    FindingsReader
	PDF         PDFRenderClient
	Invalidator CacheInvalidator
	Metrics     *observability.Metrics
	WaitTimeout time.Duration
}

// Handler serves the sales backoffice pages and JSON API.
type Handler struct {
	logger       *slog.Logger
	sales        SaleLoader
	registry     *listing.Registry
	templates    *view.Engine
	pdfTemplates *template.Template
	csrf         *shared.CSRFManager
	nav          present.Navigator
	format       *present.Formatter
	findings     FindingsReader
	pdf          PDFRenderClient
	invalidator  CacheInvalidator
	metrics      *observability.Metrics
	waitTimeout  time.Duration
}

// NewHandler constructs the sales handler.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Templates == nil {
		return nil, fmt.Errorf("sales handler: template engine required")
	}
	if cfg.Registry == nil || cfg.Sales == nil {
		return nil, fmt.Errorf("sales handler: registry and sale loader required")
	}
	format := cfg.Formatter
	if format == nil {
		format = present.NewFormatter("", nil)
	}
	funcMap := template.FuncMap{
		"formatMoney": format.Money,
		"formatRate":  format.Rate,
		"formatDate":  format.DateTime,
	}
	pdfTpl, err := template.New("sale_receipt.html").Funcs(funcMap).ParseFS(web.Reports, "templates/reports/sale_receipt.html")
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	wait := cfg.WaitTimeout
	if wait <= 0 {
		wait = DefaultWaitTimeout
	}
	return &Handler{
		logger:       logger,
		sales:        cfg.Sales,
		registry:     cfg.Registry,
		templates:    cfg.Templates,
		pdfTemplates: pdfTpl,
		csrf:         cfg.CSRF,
		nav:          cfg.Navigator,
		format:       format,
		findings:     cfg.Findings,
		pdf:          cfg.PDF,
		invalidator:  cfg.Invalidator,
		metrics:      cfg.Metrics,
		waitTimeout:  wait,
	}, nil
}

// MountRoutes registers the sales pages, the customer history page and the JSON API.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/sales", func(r chi.Router) {
		r.Get("/", h.listSales)
		r.Post("/filters", h.applyFilters)
		r.Post("/filters/clear", h.clearFilters)
		r.Post("/page", h.changePage)
		r.Post("/refresh", h.refresh)
		r.Post("/error/dismiss", h.dismissError)
		r.Get("/findings", h.listFindings)
		r.Get("/{id}", h.showSale)
		r.Get("/{id}/pdf", h.saleReceiptPDF)
	})
	r.Get("/customers/{id}/sales", h.listCustomerSales)

	r.Route("/api/sales", func(r chi.Router) {
		r.Get("/view", h.apiView)
		r.Post("/view/filter", h.apiSetFilter)
		r.Post("/view/filters", h.apiSetFilters)
		r.Post("/view/clear", h.apiClear)
		r.Post("/view/page", h.apiPage)
		r.Post("/view/refresh", h.apiRefresh)
		r.Post("/view/dismiss", h.apiDismiss)
		r.Get("/{id}", h.apiSale)
	})
}

// ============================================================================
// VIEW SCOPE
// ============================================================================

// scope identifies one listing view of a session.
type scope struct {
	key        string
	customerID string
	defaults   listing.Filters
	returnURL  string
}

func mainScope() scope {
	return scope{key: "sales", returnURL: "/sales"}
}

func customerScope(id string) scope {
	return scope{
		key:        "customer:" + id,
		customerID: id,
		defaults:   listing.Filters{CustomerID: id},
		returnURL:  present.Navigator{}.CustomerSalesURL(id),
	}
}

// scopeFromRequest resolves the view a form or API call targets. The customer field
// selects a customer history view.
func scopeFromRequest(r *http.Request) scope {
	id := r.FormValue("customer")
	if id == "" {
		return mainScope()
	}
	return customerScope(id)
}

// target returns the session's view for sc without fetching. Mutations issue their own
// fetch.
func (h *Handler) target(r *http.Request, sc scope) (*listing.Coordinator, error) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.ID == "" {
		return nil, errors.New("sales: session missing")
	}
	c, _ := h.registry.Acquire(sess.ID, sc.key, sc.defaults)
	return c, nil
}

// coordinator returns the view for a read. A view that never fetched issues its first
// fetch, including one left unloaded by a rejected mutation.
func (h *Handler) coordinator(r *http.Request, sc scope) (*listing.Coordinator, error) {
	c, err := h.target(r, sc)
	if err != nil {
		return nil, err
	}
	c.Load(r.Context())
	return c, nil
}

// loaded returns the view with its first page settled, for operations that depend on
// the loaded pagination.
func (h *Handler) loaded(r *http.Request, sc scope) (*listing.Coordinator, error) {
	c, err := h.target(r, sc)
	if err != nil {
		return nil, err
	}
	if c.Load(r.Context()) {
		h.settle(r.Context(), c)
	}
	return c, nil
}

// existing returns the view only when the session already has it.
func (h *Handler) existing(r *http.Request, sc scope) (*listing.Coordinator, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.ID == "" {
		return nil, false
	}
	return h.registry.Lookup(sess.ID, sc.key)
}

// invalidateDetails drops cached sale details so a refreshed listing links to fresh data.
func (h *Handler) invalidateDetails(ctx context.Context) {
	if h.invalidator == nil {
		return
	}
	if err := h.invalidator.InvalidateCache(ctx); err != nil {
		h.logger.Warn("invalidate sale cache", slog.Any("error", err))
	}
}

// settle waits for the latest fetch, bounded by the handler wait timeout. A timeout leaves
// the view in its loading state.
func (h *Handler) settle(ctx context.Context, c *listing.Coordinator) {
	waitCtx, cancel := context.WithTimeout(ctx, h.waitTimeout)
	defer cancel()
	if err := c.Wait(waitCtx); err != nil {
		h.logger.Debug("listing still loading", slog.Any("error", err))
	}
}

// ============================================================================
// RENDERING
// ============================================================================

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	var csrfToken string
	if h.csrf != nil && sess != nil {
		csrfToken, _ = h.csrf.EnsureToken(r.Context(), sess)
	}

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}

	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}

	html, err := h.templates.RenderString(tmpl, viewData)
	if err != nil {
		h.logger.Error("template render failed", slog.Any("error", err), slog.String("template", tmpl))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(html))
}

func (h *Handler) renderMessage(w http.ResponseWriter, r *http.Request, tmpl, title, message string, status int) {
	h.render(w, r, tmpl, title, map[string]any{"Message": message}, status)
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, url, kind, message string) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
