package handlers

import (
	"errors"
	"net/http"

	"feeledger/internal/models"
	"feeledger/internal/service"
)

// NewSearchStudentsHandler handles GET /api/students/search.
func NewSearchStudentsHandler(ledger *service.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "" {
			writeJSON(w, http.StatusOK, []models.Student{})
			return
		}

		students, err := ledger.SearchStudents(r.Context(), q, 5)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "search failed")
			return
		}
		if students == nil {
			students = []models.Student{}
		}
		writeJSON(w, http.StatusOK, students)
	}
}

// NewGetStudentHandler handles GET /api/students/{id}.
func NewGetStudentHandler(ledger *service.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		student, err := ledger.GetStudent(r.Context(), r.PathValue("id"))
		if err != nil {
			if errors.Is(err, service.ErrEntityNotFound) {
				writeError(w, http.StatusNotFound, "student not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to fetch student")
			return
		}
		writeJSON(w, http.StatusOK, student)
	}
}
