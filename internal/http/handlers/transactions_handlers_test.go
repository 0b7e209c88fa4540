package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	httpserver "feeledger/internal/http"
	"feeledger/internal/http/middleware"
	"feeledger/internal/models"
	"feeledger/internal/notify"
	"feeledger/internal/repository"
	"feeledger/internal/service"
)

const testAdminPIN = "4321"

type memStore struct {
	mu           sync.Mutex
	students     map[string]models.Student
	transactions map[int64]models.Transaction
	nextID       int64
}

func newMemStore() *memStore {
	return &memStore{
		students:     make(map[string]models.Student),
		transactions: make(map[int64]models.Transaction),
	}
}

func (m *memStore) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return nil, repository.ErrStudentNotFound
	}
	out := s
	return &out, nil
}

func (m *memStore) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	out := tx
	return &out, nil
}

func (m *memStore) ListStudentTransactions(ctx context.Context, studentID string, includeVoid bool) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var txs []models.Transaction
	for _, tx := range m.transactions {
		if tx.StudentID == studentID && (includeVoid || !tx.IsVoid) {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

func (m *memStore) ListLedger(ctx context.Context, filter repository.LedgerFilter) ([]models.LedgerEntry, error) {
	return nil, nil
}

func (m *memStore) SearchStudents(ctx context.Context, q string, limit int) ([]models.Student, error) {
	return nil, nil
}

func (m *memStore) CreateTransaction(ctx context.Context, tx *models.Transaction, s *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	tx.ID = m.nextID
	tx.CreatedAt = time.Now().UTC()
	m.transactions[tx.ID] = *tx
	m.students[s.ID] = *s
	return nil
}

func (m *memStore) UpdateTransaction(ctx context.Context, tx *models.Transaction, s *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ID] = *tx
	m.students[s.ID] = *s
	return nil
}

func (m *memStore) VoidTransaction(ctx context.Context, txID int64, s *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[txID]
	if !ok {
		return repository.ErrTransactionNotFound
	}
	tx.IsVoid = true
	m.transactions[txID] = tx
	m.students[s.ID] = *s
	return nil
}

type memAdminLookup struct{ admin *models.Staff }

func (m *memAdminLookup) FindAdmin(ctx context.Context) (*models.Staff, error) {
	return m.admin, nil
}

type memAuditStore struct{}

func (memAuditStore) Create(ctx context.Context, entry *models.AuditLog) error { return nil }
func (memAuditStore) ListRecent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	return nil, nil
}

type noopNotifier struct{}

func (noopNotifier) Publish(change notify.Change, tx *models.Transaction) {}

type bcryptTestHasher struct{}

func (bcryptTestHasher) Hash(secret string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	return string(out), err
}

func (bcryptTestHasher) Compare(hash, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
}

func newTestServer(t *testing.T) (http.Handler, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPIN), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}

	logger := zap.NewNop()
	store := newMemStore()
	gate := service.NewAdminGate(&memAdminLookup{admin: &models.Staff{
		ID:           1,
		Role:         models.RoleAdmin,
		PasswordHash: string(hash),
	}}, bcryptTestHasher{}, logger)
	ledger := service.NewLedgerService(store, gate, service.NewAuditRecorder(memAuditStore{}, logger), noopNotifier{}, logger)

	tokens := service.NewTokenService("test-secret", time.Hour)
	token, err := tokens.GenerateToken(7, "Ana", models.RoleStaff)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	routes := httpserver.Routes{
		ListLedger: NewListLedgerHandler(ledger),
		CreateTx:   NewCreateTransactionHandler(ledger),
		EditTx:     NewEditTransactionHandler(ledger),
		VoidTx:     NewVoidTransactionHandler(ledger),
		Health:     NewHealthHandler(),
	}
	// Routes not under test stay nil-safe behind distinct paths.
	routes.Login = func(w http.ResponseWriter, r *http.Request) {}
	routes.Logout = routes.Login
	routes.Me = routes.Login
	routes.VerifyPin = routes.Login
	routes.SearchStudents = routes.Login
	routes.GetStudent = routes.Login
	routes.Analytics = routes.Login
	routes.Audit = routes.Login
	routes.ExportSnapshot = routes.Login
	routes.ImportSnapshot = routes.Login
	routes.WS = routes.Login

	return httpserver.NewRouter(routes, middleware.Auth(tokens)), token
}

func doJSON(t *testing.T, handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateTransactionEndpoint(t *testing.T) {
	handler, token := newTestServer(t)

	body := `{
		"student_id": "2023-0001",
		"package": "A",
		"amount_paid": "300",
		"payment_mode": "CASH",
		"profile": {"first_name": "Juan", "last_name": "Dela Cruz", "college": "CEIT", "program": "BSCS", "year_level": 2, "section": "B"}
	}`
	rec := doJSON(t, handler, http.MethodPost, "/api/transactions", token, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Transaction models.Transaction `json:"transaction"`
		Student     models.Student     `json:"student"`
		Change      decimal.Decimal    `json:"change"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Transaction.Amount.Equal(decimal.RequireFromString("265")) {
		t.Fatalf("applied amount: %s", resp.Transaction.Amount)
	}
	if !resp.Change.Equal(decimal.RequireFromString("35")) {
		t.Fatalf("change: %s", resp.Change)
	}
	if resp.Student.PaymentStatus != models.StatusFullyPaid {
		t.Fatalf("status: %s", resp.Student.PaymentStatus)
	}
	if resp.Transaction.StaffID != 7 {
		t.Fatalf("staff id should come from the token, got %d", resp.Transaction.StaffID)
	}
}

func TestCreateTransactionEndpointRejections(t *testing.T) {
	handler, token := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/transactions", "", `{}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated: status = %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/transactions", token, `{"student_id": "ghost", "package": "A", "amount_paid": "100", "payment_mode": "CASH"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown student: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/transactions", token, `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad body: status = %d", rec.Code)
	}
}

func TestVoidTransactionEndpoint(t *testing.T) {
	handler, token := newTestServer(t)

	body := `{"student_id": "2023-0002", "package": "A", "amount_paid": "100", "payment_mode": "CASH",
		"profile": {"first_name": "Maria", "last_name": "Santos"}}`
	rec := doJSON(t, handler, http.MethodPost, "/api/transactions", token, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("create: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Transaction models.Transaction `json:"transaction"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Wrong PIN is forbidden.
	rec = doJSON(t, handler, http.MethodDelete, "/api/transactions/1", token, `{"admin_pin": "0000"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("wrong pin: status = %d", rec.Code)
	}

	// Correct PIN voids.
	rec = doJSON(t, handler, http.MethodDelete, "/api/transactions/1", token, `{"admin_pin": "`+testAdminPIN+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("void: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Unknown transaction is a 404.
	rec = doJSON(t, handler, http.MethodDelete, "/api/transactions/999", token, `{"admin_pin": "`+testAdminPIN+`"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown tx: status = %d", rec.Code)
	}
}

func TestEditTransactionEndpoint(t *testing.T) {
	handler, token := newTestServer(t)

	body := `{"student_id": "2023-0003", "package": "A", "amount_paid": "100", "payment_mode": "CASH",
		"profile": {"first_name": "Pedro", "last_name": "Reyes"}}`
	if rec := doJSON(t, handler, http.MethodPost, "/api/transactions", token, body); rec.Code != http.StatusOK {
		t.Fatalf("create: status = %d", rec.Code)
	}

	rec := doJSON(t, handler, http.MethodPut, "/api/transactions/1", token,
		`{"amount_paid": "150", "payment_mode": "CASH", "admin_pin": "`+testAdminPIN+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("edit: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var tx models.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &tx); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("150")) {
		t.Fatalf("amount: %s", tx.Amount)
	}

	rec = doJSON(t, handler, http.MethodPut, "/api/transactions/abc", token, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: status = %d", rec.Code)
	}
}
