package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"feeledger/internal/http/middleware"
	"feeledger/internal/models"
	"feeledger/internal/repository"
	"feeledger/internal/service"
)

// NewListLedgerHandler handles GET /api/transactions.
func NewListLedgerHandler(ledger *service.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := repository.LedgerFilter{
			StudentID:   r.URL.Query().Get("student_id"),
			IncludeVoid: r.URL.Query().Get("include_void") == "true",
		}
		entries, err := ledger.ListLedger(r.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to fetch transactions")
			return
		}
		if entries == nil {
			entries = []models.LedgerEntry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// NewCreateTransactionHandler handles POST /api/transactions.
func NewCreateTransactionHandler(ledger *service.LedgerService) http.HandlerFunc {
	type request struct {
		StudentID   string                 `json:"student_id"`
		Package     string                 `json:"package"`
		AmountPaid  decimal.Decimal        `json:"amount_paid"`
		PaymentMode models.PaymentMode     `json:"payment_mode"`
		Reference   string                 `json:"reference_number"`
		Profile     *models.StudentProfile `json:"profile,omitempty"`
	}
	type response struct {
		Transaction *models.Transaction `json:"transaction"`
		Student     *models.Student     `json:"student"`
		Change      decimal.Decimal     `json:"change"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authorized session")
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		result, err := ledger.CreateTransaction(r.Context(), service.CreateTransactionInput{
			StudentID: req.StudentID,
			Package:   req.Package,
			Tendered:  req.AmountPaid,
			Mode:      req.PaymentMode,
			Reference: req.Reference,
			StaffID:   claims.StaffID,
			Profile:   req.Profile,
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrEntityNotFound):
				writeError(w, http.StatusNotFound, "student not found; provide profile details to create a new entry")
			case errors.Is(err, service.ErrAlreadySettled):
				writeError(w, http.StatusBadRequest, "student is already fully paid; switch package to add more payments")
			case errors.Is(err, service.ErrInvalidAmount):
				writeError(w, http.StatusBadRequest, "amount must be positive and within the remaining balance")
			case errors.Is(err, service.ErrUnknownPackage):
				writeError(w, http.StatusBadRequest, "unknown package")
			default:
				writeError(w, http.StatusInternalServerError, "transaction failed")
			}
			return
		}

		writeJSON(w, http.StatusOK, response{
			Transaction: result.Transaction,
			Student:     result.Student,
			Change:      result.Change,
		})
	}
}

// NewEditTransactionHandler handles PUT /api/transactions/{id}.
func NewEditTransactionHandler(ledger *service.LedgerService) http.HandlerFunc {
	type request struct {
		AmountPaid  decimal.Decimal        `json:"amount_paid"`
		PaymentMode models.PaymentMode     `json:"payment_mode"`
		Reference   string                 `json:"reference_number"`
		Package     string                 `json:"package"`
		Profile     *models.StudentProfile `json:"profile,omitempty"`
		AdminPIN    string                 `json:"admin_pin"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authorized session")
			return
		}

		txID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid transaction id")
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		tx, err := ledger.EditTransaction(r.Context(), service.EditTransactionInput{
			TransactionID: txID,
			Amount:        req.AmountPaid,
			Mode:          req.PaymentMode,
			Reference:     req.Reference,
			Package:       req.Package,
			Profile:       req.Profile,
			SecondFactor:  req.AdminPIN,
			StaffID:       claims.StaffID,
		})
		if err != nil {
			writeLedgerError(w, err, "update failed")
			return
		}

		writeJSON(w, http.StatusOK, tx)
	}
}

// NewVoidTransactionHandler handles DELETE /api/transactions/{id}.
func NewVoidTransactionHandler(ledger *service.LedgerService) http.HandlerFunc {
	type request struct {
		AdminPIN string `json:"admin_pin"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authorized session")
			return
		}

		txID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid transaction id")
			return
		}

		var req request
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}
		if req.AdminPIN == "" {
			req.AdminPIN = r.URL.Query().Get("admin_pin")
		}

		if err := ledger.VoidTransaction(r.Context(), txID, req.AdminPIN, claims.StaffID); err != nil {
			writeLedgerError(w, err, "void failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func writeLedgerError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "invalid or missing admin PIN; action denied")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "transaction not found")
	case errors.Is(err, service.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "amount must be positive")
	case errors.Is(err, service.ErrUnknownPackage):
		writeError(w, http.StatusBadRequest, "unknown package")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
