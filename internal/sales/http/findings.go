package http

import (
	"log/slog"
	"net/http"
	"strconv"
)

const defaultFindingsLimit = 100

func (h *Handler) listFindings(w http.ResponseWriter, r *http.Request) {
	vm := FindingsPageVM{Enabled: h.findings != nil}
	if h.findings != nil {
		limit := defaultFindingsLimit
		if l := r.URL.Query().Get("limit"); l != "" {
			if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 500 {
				limit = parsed
			}
		}
		findings, err := h.findings.ListFindings(r.Context(), limit)
		if err != nil {
			h.logger.Error("list findings failed", slog.Any("error", err))
			h.renderMessage(w, r, "pages/error.html", "Erreur", "Impossible de charger les anomalies.", http.StatusInternalServerError)
			return
		}
		vm.Findings = findings
	}
	h.render(w, r, "pages/sales/findings.html", "Anomalies de totaux", vm, http.StatusOK)
}
