package snapshot

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"feeledger/internal/models"
	"feeledger/internal/notify"
)

// Imported staff accounts receive a hash that matches no password; an admin
// must reset credentials after a restore.
const lockedPasswordHash = "!locked"

// Store is the persistence surface the snapshot service reads and replaces.
type Store interface {
	ListStudents(ctx context.Context) ([]models.Student, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	ReplaceAll(ctx context.Context, staff []models.Staff, students []models.Student, transactions []models.Transaction) error
}

// StaffLister reads the full staff set for export.
type StaffLister interface {
	List(ctx context.Context) ([]models.Staff, error)
}

// Notifier publishes a change hint after a committed import.
type Notifier interface {
	Publish(change notify.Change, tx *models.Transaction)
}

// Auditor records a best-effort note for the privileged restore.
type Auditor interface {
	Record(ctx context.Context, staffID int64, actionType, description string)
}

// ImportStats summarizes a completed restore.
type ImportStats struct {
	Entities     int `json:"entities"`
	Transactions int `json:"transactions"`
}

// Service exports and imports encrypted ledger snapshots. Import fully
// replaces the store contents inside one atomic operation or fails without
// touching anything.
type Service struct {
	codec    *Codec
	store    Store
	staff    StaffLister
	audit    Auditor
	notifier Notifier
	logger   *zap.Logger
}

// NewService builds the snapshot service.
func NewService(codec *Codec, store Store, staff StaffLister, audit Auditor, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{codec: codec, store: store, staff: staff, audit: audit, notifier: notifier, logger: logger}
}

// Export captures the full entity/transaction/staff sets into an opaque
// encrypted blob.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	students, err := s.store.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	transactions, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	staff, err := s.staff.List(ctx)
	if err != nil {
		return nil, err
	}

	payload := &Payload{
		Version:    Version,
		ExportedAt: time.Now().UTC(),
		Data: Data{
			Students:     students,
			Transactions: transactions,
			Staff:        staff,
		},
	}

	blob, err := s.codec.Seal(payload)
	if err != nil {
		return nil, err
	}

	s.logger.Info("snapshot exported",
		zap.Int("students", len(students)),
		zap.Int("transactions", len(transactions)),
	)
	return blob, nil
}

// Import decrypts the blob and atomically replaces the current store
// contents. Staff passwords are not carried over; imported accounts are
// locked until reset. The restore replaces the audit trail along with
// everything else, so the operator's IMPORT entry is appended after the new
// sets are in place.
func (s *Service) Import(ctx context.Context, blob []byte, staffID int64) (*ImportStats, error) {
	payload, err := s.codec.Open(blob)
	if err != nil {
		return nil, err
	}

	staff := make([]models.Staff, len(payload.Data.Staff))
	for i, m := range payload.Data.Staff {
		m.PasswordHash = lockedPasswordHash
		staff[i] = m
	}

	if err := s.store.ReplaceAll(ctx, staff, payload.Data.Students, payload.Data.Transactions); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, staffID, models.ActionImport,
		fmt.Sprintf("Imported snapshot exported at %s: %d students, %d transactions",
			payload.ExportedAt.Format(time.RFC3339), len(payload.Data.Students), len(payload.Data.Transactions)))
	s.notifier.Publish(notify.ChangeImport, nil)
	s.logger.Info("snapshot imported",
		zap.Int("students", len(payload.Data.Students)),
		zap.Int("transactions", len(payload.Data.Transactions)),
	)

	return &ImportStats{
		Entities:     len(payload.Data.Students),
		Transactions: len(payload.Data.Transactions),
	}, nil
}
