package handlers

import (
	"net/http"

	"feeledger/internal/service"
)

// NewAnalyticsHandler handles GET /api/analytics.
func NewAnalyticsHandler(analytics *service.AnalyticsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := analytics.Snapshot(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to fetch analytics")
			return
		}
		writeJSON(w, http.StatusOK, snapshot)
	}
}
