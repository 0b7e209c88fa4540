package snapshot

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"feeledger/internal/models"
	"feeledger/internal/notify"
)

type fakeSnapshotStore struct {
	students     []models.Student
	transactions []models.Transaction
	replaced     bool
	replaceErr   error
}

func (f *fakeSnapshotStore) ListStudents(ctx context.Context) ([]models.Student, error) {
	return f.students, nil
}

func (f *fakeSnapshotStore) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return f.transactions, nil
}

func (f *fakeSnapshotStore) ReplaceAll(ctx context.Context, staff []models.Staff, students []models.Student, transactions []models.Transaction) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.students = students
	f.transactions = transactions
	f.replaced = true
	return nil
}

type fakeStaffLister struct {
	staff []models.Staff
}

func (f *fakeStaffLister) List(ctx context.Context) ([]models.Staff, error) {
	return f.staff, nil
}

type captureNotifier struct {
	changes []notify.Change
}

func (c *captureNotifier) Publish(change notify.Change, tx *models.Transaction) {
	c.changes = append(c.changes, change)
}

type auditEntry struct {
	staffID    int64
	actionType string
}

type captureAuditor struct {
	entries []auditEntry
}

func (c *captureAuditor) Record(ctx context.Context, staffID int64, actionType, description string) {
	c.entries = append(c.entries, auditEntry{staffID: staffID, actionType: actionType})
}

func TestExportImportRoundTrip(t *testing.T) {
	codec := NewCodec("export-secret")
	source := &fakeSnapshotStore{
		students: []models.Student{{
			ID:            "2023-0001",
			TotalPaid:     decimal.RequireFromString("265"),
			PaymentStatus: models.StatusFullyPaid,
		}},
		transactions: []models.Transaction{
			{ID: 1, StudentID: "2023-0001", Amount: decimal.RequireFromString("265")},
		},
	}
	staffLister := &fakeStaffLister{staff: []models.Staff{
		{ID: 1, Username: "ana", PasswordHash: "$2a$10$realhash"},
	}}

	exporter := NewService(codec, source, staffLister, &captureAuditor{}, &captureNotifier{}, zap.NewNop())
	blob, err := exporter.Export(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	target := &fakeSnapshotStore{}
	notifier := &captureNotifier{}
	auditor := &captureAuditor{}
	importer := NewService(codec, target, &fakeStaffLister{}, auditor, notifier, zap.NewNop())

	stats, err := importer.Import(context.Background(), blob, 9)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if stats.Entities != 1 || stats.Transactions != 1 {
		t.Fatalf("stats: %+v", stats)
	}
	if !target.replaced {
		t.Fatal("store was not replaced")
	}
	if !target.students[0].TotalPaid.Equal(decimal.RequireFromString("265")) {
		t.Fatalf("restored totalPaid: %s", target.students[0].TotalPaid)
	}
	if len(notifier.changes) != 1 || notifier.changes[0] != notify.ChangeImport {
		t.Fatalf("expected one IMPORT notification, got %+v", notifier.changes)
	}
	// The restore replaces the audit trail, so the operator's IMPORT entry is
	// written after the new sets land.
	if len(auditor.entries) != 1 || auditor.entries[0].actionType != models.ActionImport || auditor.entries[0].staffID != 9 {
		t.Fatalf("expected one IMPORT audit entry for staff 9, got %+v", auditor.entries)
	}
}

func TestImportLocksStaffPasswords(t *testing.T) {
	codec := NewCodec("export-secret")
	payload := testPayload()
	payload.Data.Staff[0].PasswordHash = "$2a$10$leakedhash"
	blob, err := codec.Seal(payload)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	captured := struct{ staff []models.Staff }{}
	store := &fakeSnapshotStore{}
	svc := NewService(codec, &replaceCaptureStore{inner: store, staff: &captured.staff}, &fakeStaffLister{}, &captureAuditor{}, &captureNotifier{}, zap.NewNop())

	if _, err := svc.Import(context.Background(), blob, 1); err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(captured.staff) != 1 || captured.staff[0].PasswordHash != lockedPasswordHash {
		t.Fatalf("expected locked password hash, got %+v", captured.staff)
	}
}

type replaceCaptureStore struct {
	inner *fakeSnapshotStore
	staff *[]models.Staff
}

func (r *replaceCaptureStore) ListStudents(ctx context.Context) ([]models.Student, error) {
	return r.inner.ListStudents(ctx)
}

func (r *replaceCaptureStore) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return r.inner.ListTransactions(ctx)
}

func (r *replaceCaptureStore) ReplaceAll(ctx context.Context, staff []models.Staff, students []models.Student, transactions []models.Transaction) error {
	*r.staff = staff
	return r.inner.ReplaceAll(ctx, staff, students, transactions)
}

func TestImportCorruptBlobTouchesNothing(t *testing.T) {
	codec := NewCodec("export-secret")
	target := &fakeSnapshotStore{}
	notifier := &captureNotifier{}
	auditor := &captureAuditor{}
	svc := NewService(codec, target, &fakeStaffLister{}, auditor, notifier, zap.NewNop())

	_, err := svc.Import(context.Background(), []byte("not a snapshot blob at all"), 1)
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if target.replaced {
		t.Fatal("store must not be touched on a corrupt blob")
	}
	if len(notifier.changes) != 0 {
		t.Fatalf("no notification expected, got %+v", notifier.changes)
	}
	if len(auditor.entries) != 0 {
		t.Fatalf("no audit entry expected, got %+v", auditor.entries)
	}
}

func TestImportReplaceFailurePublishesNothing(t *testing.T) {
	codec := NewCodec("export-secret")
	blob, err := codec.Seal(testPayload())
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	target := &fakeSnapshotStore{replaceErr: errors.New("db down")}
	notifier := &captureNotifier{}
	auditor := &captureAuditor{}
	svc := NewService(codec, target, &fakeStaffLister{}, auditor, notifier, zap.NewNop())

	if _, err := svc.Import(context.Background(), blob, 1); err == nil {
		t.Fatal("expected replace failure to surface")
	}
	if len(notifier.changes) != 0 {
		t.Fatalf("no notification expected after failed replace, got %+v", notifier.changes)
	}
	if len(auditor.entries) != 0 {
		t.Fatalf("no audit entry expected after failed replace, got %+v", auditor.entries)
	}
}
