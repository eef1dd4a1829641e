package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/comptoir/backoffice/internal/sales"
	"github.com/comptoir/backoffice/internal/sales/present"
	"github.com/comptoir/backoffice/internal/view"
)

const (
	msgSaleNotFound  = "Vente non trouvée"
	msgSaleLoadError = "Impossible de charger la vente. Réessayez plus tard."
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (h *Handler) showSale(w http.ResponseWriter, r *http.Request) {
	detail, err := h.loadDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.renderLoadError(w, r, err)
		return
	}
	h.render(w, r, "pages/sales/detail.html", "Vente "+detail.Reference, DetailPageVM{
		Detail:     detail,
		BackURL:    backURL(r),
		PDFEnabled: h.pdf != nil,
	}, http.StatusOK)
}

func (h *Handler) saleReceiptPDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		http.Error(w, "PDF export unavailable", http.StatusServiceUnavailable)
		return
	}
	detail, err := h.loadDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.renderLoadError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.pdfTemplates.ExecuteTemplate(&buf, "sale_receipt.html", view.TemplateData{
		Title: "Vente " + detail.Reference,
		Data:  DetailPageVM{Detail: detail},
	}); err != nil {
		h.logger.Error("render receipt html", slog.Any("error", err), slog.String("sale_id", detail.ID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	pdf, err := h.pdf.RenderHTML(r.Context(), buf.String())
	if err != nil {
		h.logger.Error("render receipt pdf", slog.Any("error", err), slog.String("sale_id", detail.ID))
		http.Error(w, "PDF export failed", http.StatusBadGateway)
		return
	}

	filename := unsafeFilename.ReplaceAllString(detail.Reference, "_")
	if filename == "" {
		filename = detail.ID
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="vente-%s.pdf"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// loadDetail fetches and resolves a sale, reporting totals that disagree with the lines.
func (h *Handler) loadDetail(ctx context.Context, id string) (present.Detail, error) {
	sale, err := h.sales.GetSale(ctx, id)
	if err != nil {
		return present.Detail{}, err
	}
	detail := present.BuildDetail(sale, h.nav)
	h.reportTotals(detail)
	return detail, nil
}

func (h *Handler) reportTotals(detail present.Detail) {
	for _, issue := range detail.Totals.Issues {
		h.metrics.TotalsMismatch(issue.Field)
		h.logger.Warn("sale totals mismatch",
			slog.String("sale_id", detail.ID),
			slog.String("reference", detail.Reference),
			slog.String("field", issue.Field),
			slog.String("expected", issue.Expected.StringFixed(2)),
			slog.String("stored", issue.Stored.StringFixed(2)),
			slog.String("delta", issue.Delta.StringFixed(2)),
		)
	}
}

func (h *Handler) renderLoadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, sales.ErrNotFound) {
		h.renderMessage(w, r, "pages/not_found.html", "Introuvable", msgSaleNotFound, http.StatusNotFound)
		return
	}
	h.logger.Error("load sale failed", slog.Any("error", err), slog.String("sale_id", chi.URLParam(r, "id")))
	h.renderMessage(w, r, "pages/error.html", "Erreur", msgSaleLoadError, http.StatusBadGateway)
}

// backURL returns the listing the detail page links back to.
func backURL(r *http.Request) string {
	if id := r.URL.Query().Get("customer"); id != "" {
		return customerScope(id).returnURL
	}
	return "/sales"
}
