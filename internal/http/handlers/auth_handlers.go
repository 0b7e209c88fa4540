package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"feeledger/internal/http/middleware"
	"feeledger/internal/service"
)

type staffSummary struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
	Role     string `json:"role"`
}

// NewLoginHandler handles POST /api/auth/login.
func NewLoginHandler(authService *service.AuthService) http.HandlerFunc {
	type request struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	type response struct {
		Token     string       `json:"token"`
		TokenType string       `json:"token_type"`
		Staff     staffSummary `json:"staff"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		token, staff, err := authService.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid username or password")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to login")
			return
		}

		writeJSON(w, http.StatusOK, response{
			Token:     token,
			TokenType: "Bearer",
			Staff: staffSummary{
				ID:       staff.ID,
				Name:     staff.Name,
				Position: staff.Position,
				Role:     staff.Role,
			},
		})
	}
}

// NewLogoutHandler handles POST /api/auth/logout.
func NewLogoutHandler(authService *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authorized session")
			return
		}
		authService.Logout(r.Context(), claims.StaffID)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// NewMeHandler handles GET /api/auth/me.
func NewMeHandler(authService *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authorized session")
			return
		}

		staff, err := authService.CurrentStaff(r.Context(), claims.StaffID)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "session expired")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to resolve staff")
			return
		}

		writeJSON(w, http.StatusOK, map[string]staffSummary{"staff": {
			ID:       staff.ID,
			Name:     staff.Name,
			Position: staff.Position,
			Role:     staff.Role,
		}})
	}
}

// NewVerifyPinHandler handles POST /api/auth/verify-pin, the standalone
// second-factor check.
func NewVerifyPinHandler(ledger *service.LedgerService) http.HandlerFunc {
	type request struct {
		PIN string `json:"pin"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		if !ledger.VerifySecondFactor(r.Context(), req.PIN) {
			writeError(w, http.StatusUnauthorized, "invalid admin PIN")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
