package handlers

import (
	"errors"
	"io"
	"net/http"

	"feeledger/internal/http/middleware"
	"feeledger/internal/snapshot"
)

const maxSnapshotSize = 50 << 20

// NewExportSnapshotHandler handles POST /api/session/save.
func NewExportSnapshotHandler(snapshots *snapshot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blob, err := snapshots.Export(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save session")
			return
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="ledger_session.snapshot"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(blob)
	}
}

// NewImportSnapshotHandler handles POST /api/session/import.
func NewImportSnapshotHandler(snapshots *snapshot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authorized session")
			return
		}

		blob, err := io.ReadAll(io.LimitReader(r.Body, maxSnapshotSize))
		if err != nil || len(blob) == 0 {
			writeError(w, http.StatusBadRequest, "invalid file format or empty file")
			return
		}

		stats, err := snapshots.Import(r.Context(), blob, claims.StaffID)
		if err != nil {
			switch {
			case errors.Is(err, snapshot.ErrCorrupt):
				writeError(w, http.StatusBadRequest, "file is corrupted or has been tampered with")
			case errors.Is(err, snapshot.ErrVersionMismatch):
				writeError(w, http.StatusBadRequest, "unsupported session file version")
			default:
				writeError(w, http.StatusInternalServerError, "failed to import session")
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"stats":   stats,
		})
	}
}
