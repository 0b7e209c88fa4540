package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"feeledger/internal/models"
	"feeledger/internal/notify"
	"feeledger/internal/pricing"
	"feeledger/internal/repository"
)

// LedgerStore is the persistence contract the reconciliation engine composes.
// Multi-row writes must be atomic: either the transaction and the student
// state both persist or neither does.
type LedgerStore interface {
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	GetTransaction(ctx context.Context, id int64) (*models.Transaction, error)
	ListStudentTransactions(ctx context.Context, studentID string, includeVoid bool) ([]models.Transaction, error)
	ListLedger(ctx context.Context, filter repository.LedgerFilter) ([]models.LedgerEntry, error)
	SearchStudents(ctx context.Context, q string, limit int) ([]models.Student, error)
	CreateTransaction(ctx context.Context, t *models.Transaction, s *models.Student) error
	UpdateTransaction(ctx context.Context, t *models.Transaction, s *models.Student) error
	VoidTransaction(ctx context.Context, txID int64, s *models.Student) error
}

// Notifier publishes a committed-change hint to connected observers.
type Notifier interface {
	Publish(change notify.Change, tx *models.Transaction)
}

// LedgerService is the reconciliation engine. It is the only component that
// computes totalPaid, balance and paymentStatus, always by rescanning the
// student's non-voided transaction set rather than trusting incremental
// deltas. Every read-recompute-write runs under a per-student lock.
type LedgerService struct {
	store    LedgerStore
	gate     *AdminGate
	audit    *AuditRecorder
	notifier Notifier
	locks    *keyLock
	logger   *zap.Logger
}

// NewLedgerService builds the engine.
func NewLedgerService(store LedgerStore, gate *AdminGate, audit *AuditRecorder, notifier Notifier, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		store:    store,
		gate:     gate,
		audit:    audit,
		notifier: notifier,
		locks:    newKeyLock(),
		logger:   logger,
	}
}

// CreateTransactionInput carries a payment as tendered at the counter.
type CreateTransactionInput struct {
	StudentID string
	Package   string
	Tendered  decimal.Decimal
	Mode      models.PaymentMode
	Reference string
	StaffID   int64
	Profile   *models.StudentProfile
}

// CreateTransactionResult returns the persisted transaction, the student's
// new state, and the change due back. Change is display-only and never
// stored.
type CreateTransactionResult struct {
	Transaction *models.Transaction
	Student     *models.Student
	Change      decimal.Decimal
}

// CreateTransaction records a payment, applying the capping rule: the amount
// persisted is at most the student's remaining balance at this moment.
func (s *LedgerService) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*CreateTransactionResult, error) {
	if input.StudentID == "" {
		return nil, ErrEntityNotFound
	}
	price, ok := pricing.Price(input.Package)
	if !ok {
		return nil, ErrUnknownPackage
	}
	if !input.Tendered.IsPositive() {
		return nil, ErrInvalidAmount
	}

	s.locks.Lock(input.StudentID)
	defer s.locks.Unlock(input.StudentID)

	student, err := s.resolveStudent(ctx, input)
	if err != nil {
		return nil, err
	}

	// A package change re-bases the price used for balance math; it does not
	// itself move money.
	packageChange := student.CurrentPackage != "" && input.Package != student.CurrentPackage
	if student.PaymentStatus == models.StatusFullyPaid && !packageChange {
		return nil, ErrAlreadySettled
	}

	remaining := remainingBalance(price, student.TotalPaid)
	applied := decimal.Min(input.Tendered, remaining)
	if !applied.IsPositive() {
		return nil, ErrInvalidAmount
	}

	tx := &models.Transaction{
		StudentID:       student.ID,
		StaffID:         input.StaffID,
		Amount:          applied,
		PackageSnapshot: input.Package,
		PaymentMode:     input.Mode,
		ReferenceNumber: input.Reference,
	}

	existing, err := s.store.ListStudentTransactions(ctx, student.ID, false)
	if err != nil {
		return nil, err
	}
	totalPaid := sumAmounts(existing).Add(applied)

	student.CurrentPackage = input.Package
	student.TotalPaid = totalPaid
	student.Balance = remainingBalance(price, totalPaid)
	student.PaymentStatus = deriveStatus(totalPaid, price)

	if err := s.store.CreateTransaction(ctx, tx, student); err != nil {
		return nil, err
	}

	s.notifier.Publish(notify.ChangeCreate, tx)
	s.logger.Info("transaction created",
		zap.Int64("tx_id", tx.ID),
		zap.String("student_id", student.ID),
		zap.String("package", input.Package),
		zap.String("applied", applied.String()),
		zap.String("status", string(student.PaymentStatus)),
	)

	return &CreateTransactionResult{
		Transaction: tx,
		Student:     student,
		Change:      input.Tendered.Sub(applied),
	}, nil
}

// EditTransactionInput overwrites a transaction's mutable fields. Package and
// Mode fall back to the stored values when empty.
type EditTransactionInput struct {
	TransactionID int64
	Amount        decimal.Decimal
	Mode          models.PaymentMode
	Reference     string
	Package       string
	Profile       *models.StudentProfile
	SecondFactor  string
	StaffID       int64
}

// EditTransaction corrects a historical record and recomputes the student's
// totals from the full non-voided set.
func (s *LedgerService) EditTransaction(ctx context.Context, input EditTransactionInput) (*models.Transaction, error) {
	if !s.gate.VerifySecondFactor(ctx, input.SecondFactor) {
		return nil, ErrForbidden
	}

	tx, err := s.store.GetTransaction(ctx, input.TransactionID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if tx.IsVoid {
		return nil, ErrNotFound
	}
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	s.locks.Lock(tx.StudentID)
	defer s.locks.Unlock(tx.StudentID)

	// Re-read under the lock: a concurrent mutation may have landed between
	// the first load and lock acquisition.
	tx, err = s.store.GetTransaction(ctx, input.TransactionID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if tx.IsVoid {
		return nil, ErrNotFound
	}

	pkg := input.Package
	if pkg == "" {
		pkg = tx.PackageSnapshot
	}
	price, ok := pricing.Price(pkg)
	if !ok {
		return nil, ErrUnknownPackage
	}

	student, err := s.store.GetStudent(ctx, tx.StudentID)
	if err != nil {
		return nil, err
	}

	tx.Amount = input.Amount
	tx.PackageSnapshot = pkg
	if input.Mode != "" {
		tx.PaymentMode = input.Mode
	}
	tx.ReferenceNumber = input.Reference

	// Full rescan, substituting the edited amount for the stored one. The
	// recompute is idempotent and immune to compounding drift.
	existing, err := s.store.ListStudentTransactions(ctx, student.ID, false)
	if err != nil {
		return nil, err
	}
	totalPaid := decimal.Zero
	for _, t := range existing {
		if t.ID == tx.ID {
			totalPaid = totalPaid.Add(tx.Amount)
			continue
		}
		totalPaid = totalPaid.Add(t.Amount)
	}

	student.CurrentPackage = pkg
	student.TotalPaid = totalPaid
	student.Balance = remainingBalance(price, totalPaid)
	student.PaymentStatus = deriveStatus(totalPaid, price)
	if input.Profile != nil {
		applyProfile(student, input.Profile)
	}

	if err := s.store.UpdateTransaction(ctx, tx, student); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, input.StaffID, models.ActionEdit,
		fmt.Sprintf("Edited transaction #%d for student %s", tx.ID, tx.StudentID))
	s.notifier.Publish(notify.ChangeEdit, tx)
	s.logger.Info("transaction edited",
		zap.Int64("tx_id", tx.ID),
		zap.String("student_id", student.ID),
		zap.String("amount", tx.Amount.String()),
	)

	return tx, nil
}

// VoidTransaction soft-deletes a transaction. Voiding an already-void
// transaction is a no-op success. The retained record stays visible to audit
// but is excluded from balance math permanently.
func (s *LedgerService) VoidTransaction(ctx context.Context, txID int64, secondFactor string, staffID int64) error {
	if !s.gate.VerifySecondFactor(ctx, secondFactor) {
		return ErrForbidden
	}

	tx, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return ErrNotFound
		}
		return err
	}
	if tx.IsVoid {
		return nil
	}

	s.locks.Lock(tx.StudentID)
	defer s.locks.Unlock(tx.StudentID)

	// Re-read under the lock: a racing void may have landed already, and a
	// second VOID audit entry for the same transaction would be misleading.
	tx, err = s.store.GetTransaction(ctx, txID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return ErrNotFound
		}
		return err
	}
	if tx.IsVoid {
		return nil
	}

	student, err := s.store.GetStudent(ctx, tx.StudentID)
	if err != nil {
		return err
	}

	// Balance math re-bases on the voided transaction's former package.
	price, ok := pricing.Price(tx.PackageSnapshot)
	if !ok {
		price = decimal.Zero
	}

	existing, err := s.store.ListStudentTransactions(ctx, student.ID, false)
	if err != nil {
		return err
	}
	totalPaid := decimal.Zero
	for _, t := range existing {
		if t.ID == tx.ID {
			continue
		}
		totalPaid = totalPaid.Add(t.Amount)
	}

	student.TotalPaid = totalPaid
	student.Balance = remainingBalance(price, totalPaid)
	student.PaymentStatus = deriveStatus(totalPaid, price)

	if err := s.store.VoidTransaction(ctx, txID, student); err != nil {
		return err
	}

	s.audit.Record(ctx, staffID, models.ActionVoid,
		fmt.Sprintf("Voided transaction #%d for student %s", txID, tx.StudentID))
	s.notifier.Publish(notify.ChangeVoid, tx)
	s.logger.Info("transaction voided",
		zap.Int64("tx_id", txID),
		zap.String("student_id", student.ID),
		zap.String("total_paid", totalPaid.String()),
	)

	return nil
}

// ListLedger returns the joined ledger view, newest first.
func (s *LedgerService) ListLedger(ctx context.Context, filter repository.LedgerFilter) ([]models.LedgerEntry, error) {
	return s.store.ListLedger(ctx, filter)
}

// GetStudent returns one student's current state.
func (s *LedgerService) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.store.GetStudent(ctx, id)
	if errors.Is(err, repository.ErrStudentNotFound) {
		return nil, ErrEntityNotFound
	}
	return student, err
}

// SearchStudents returns up to limit students matching the id query.
func (s *LedgerService) SearchStudents(ctx context.Context, q string, limit int) ([]models.Student, error) {
	return s.store.SearchStudents(ctx, q, limit)
}

// VerifySecondFactor exposes the mutation gate check.
func (s *LedgerService) VerifySecondFactor(ctx context.Context, pin string) bool {
	return s.gate.VerifySecondFactor(ctx, pin)
}

func (s *LedgerService) resolveStudent(ctx context.Context, input CreateTransactionInput) (*models.Student, error) {
	student, err := s.store.GetStudent(ctx, input.StudentID)
	if errors.Is(err, repository.ErrStudentNotFound) {
		if input.Profile == nil {
			return nil, ErrEntityNotFound
		}
		student = &models.Student{
			ID:            input.StudentID,
			TotalPaid:     decimal.Zero,
			Balance:       decimal.Zero,
			PaymentStatus: models.StatusUnpaid,
		}
		applyProfile(student, input.Profile)
		return student, nil
	}
	if err != nil {
		return nil, err
	}
	// Every create call is also a profile sync: the caller re-sends the full
	// current profile state.
	if input.Profile != nil {
		applyProfile(student, input.Profile)
	}
	return student, nil
}

func applyProfile(s *models.Student, p *models.StudentProfile) {
	s.FirstName = p.FirstName
	s.MiddleInitial = p.MiddleInitial
	s.LastName = p.LastName
	s.College = fallback(p.College, "N/A")
	s.Program = fallback(p.Program, "N/A")
	s.Section = fallback(p.Section, "N/A")
	if p.YearLevel > 0 {
		s.YearLevel = p.YearLevel
	} else if s.YearLevel == 0 {
		s.YearLevel = 1
	}
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

func sumAmounts(txs []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}

func remainingBalance(price, totalPaid decimal.Decimal) decimal.Decimal {
	remaining := price.Sub(totalPaid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

func deriveStatus(totalPaid, price decimal.Decimal) models.PaymentStatus {
	switch {
	case totalPaid.GreaterThanOrEqual(price) && price.IsPositive():
		return models.StatusFullyPaid
	case totalPaid.IsPositive():
		return models.StatusPartial
	default:
		return models.StatusUnpaid
	}
}
