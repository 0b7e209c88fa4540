package handlers

import (
	"net/http"
	"strconv"

	"feeledger/internal/models"
	"feeledger/internal/service"
)

// NewAuditHandler handles GET /api/audit.
func NewAuditHandler(audit *service.AuditRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		logs, err := audit.Recent(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to fetch audit logs")
			return
		}
		if logs == nil {
			logs = []models.AuditLog{}
		}
		writeJSON(w, http.StatusOK, logs)
	}
}
