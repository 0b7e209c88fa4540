package httpserver

import "net/http"

// Routes aggregates handlers for the HTTP server.
type Routes struct {
	Login     http.HandlerFunc
	Logout    http.HandlerFunc
	Me        http.HandlerFunc
	VerifyPin http.HandlerFunc

	ListLedger http.HandlerFunc
	CreateTx   http.HandlerFunc
	EditTx     http.HandlerFunc
	VoidTx     http.HandlerFunc

	SearchStudents http.HandlerFunc
	GetStudent     http.HandlerFunc

	Analytics http.HandlerFunc
	Audit     http.HandlerFunc

	ExportSnapshot http.HandlerFunc
	ImportSnapshot http.HandlerFunc

	WS     http.HandlerFunc
	Health http.HandlerFunc
}

// NewRouter wires all HTTP routes. The auth middleware protects every
// mutation and privileged read.
func NewRouter(routes Routes, auth func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", routes.Login)
	mux.Handle("POST /api/auth/logout", auth(routes.Logout))
	mux.Handle("GET /api/auth/me", auth(routes.Me))
	mux.Handle("POST /api/auth/verify-pin", auth(routes.VerifyPin))

	mux.Handle("GET /api/transactions", auth(routes.ListLedger))
	mux.Handle("POST /api/transactions", auth(routes.CreateTx))
	mux.Handle("PUT /api/transactions/{id}", auth(routes.EditTx))
	mux.Handle("DELETE /api/transactions/{id}", auth(routes.VoidTx))

	mux.Handle("GET /api/students/search", auth(routes.SearchStudents))
	mux.Handle("GET /api/students/{id}", auth(routes.GetStudent))

	mux.Handle("GET /api/analytics", auth(routes.Analytics))
	mux.Handle("GET /api/audit", auth(routes.Audit))

	mux.Handle("POST /api/session/save", auth(routes.ExportSnapshot))
	mux.Handle("POST /api/session/import", auth(routes.ImportSnapshot))

	mux.HandleFunc("GET /ws", routes.WS)
	mux.HandleFunc("GET /health", routes.Health)

	return mux
}
