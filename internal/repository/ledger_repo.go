package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"feeledger/internal/models"
)

// LedgerRepository persists students and transactions. Writes that span both
// tables run inside one database transaction so a partial application can
// never be observed.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository returns repository.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// GetStudent fetches a student by id.
func (r *LedgerRepository) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	const query = `
		SELECT id, first_name, middle_initial, last_name, college, program, year_level, section,
		       package_type, total_paid, balance, payment_status, created_at, updated_at
		FROM students
		WHERE id = $1
	`
	var s models.Student
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.FirstName, &s.MiddleInitial, &s.LastName, &s.College, &s.Program,
		&s.YearLevel, &s.Section, &s.CurrentPackage, &s.TotalPaid, &s.Balance,
		&s.PaymentStatus, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SearchStudents returns up to limit students whose id contains the query.
func (r *LedgerRepository) SearchStudents(ctx context.Context, q string, limit int) ([]models.Student, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = `
		SELECT id, first_name, middle_initial, last_name, college, program, year_level, section,
		       package_type, total_paid, balance, payment_status, created_at, updated_at
		FROM students
		WHERE id ILIKE '%' || $1 || '%'
		ORDER BY id
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		var s models.Student
		if err := rows.Scan(
			&s.ID, &s.FirstName, &s.MiddleInitial, &s.LastName, &s.College, &s.Program,
			&s.YearLevel, &s.Section, &s.CurrentPackage, &s.TotalPaid, &s.Balance,
			&s.PaymentStatus, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// ListStudents returns every student row.
func (r *LedgerRepository) ListStudents(ctx context.Context) ([]models.Student, error) {
	const query = `
		SELECT id, first_name, middle_initial, last_name, college, program, year_level, section,
		       package_type, total_paid, balance, payment_status, created_at, updated_at
		FROM students
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		var s models.Student
		if err := rows.Scan(
			&s.ID, &s.FirstName, &s.MiddleInitial, &s.LastName, &s.College, &s.Program,
			&s.YearLevel, &s.Section, &s.CurrentPackage, &s.TotalPaid, &s.Balance,
			&s.PaymentStatus, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// GetTransaction fetches a transaction by id, voided or not.
func (r *LedgerRepository) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	const query = `
		SELECT id, student_id, staff_id, amount, package_snapshot, payment_mode, reference_number, is_void, created_at
		FROM transactions
		WHERE id = $1
	`
	var t models.Transaction
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.StudentID, &t.StaffID, &t.Amount, &t.PackageSnapshot,
		&t.PaymentMode, &t.ReferenceNumber, &t.IsVoid, &t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListStudentTransactions returns the non-voided transactions for one student,
// or all of them when includeVoid is set.
func (r *LedgerRepository) ListStudentTransactions(ctx context.Context, studentID string, includeVoid bool) ([]models.Transaction, error) {
	const query = `
		SELECT id, student_id, staff_id, amount, package_snapshot, payment_mode, reference_number, is_void, created_at
		FROM transactions
		WHERE student_id = $1 AND (is_void = FALSE OR $2)
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, studentID, includeVoid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// ListTransactions returns every transaction row, voided included.
func (r *LedgerRepository) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	const query = `
		SELECT id, student_id, staff_id, amount, package_snapshot, payment_mode, reference_number, is_void, created_at
		FROM transactions
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// LedgerFilter narrows the joined ledger listing.
type LedgerFilter struct {
	StudentID   string
	IncludeVoid bool
}

// ListLedger returns transactions joined with student and staff summaries,
// newest first.
func (r *LedgerRepository) ListLedger(ctx context.Context, filter LedgerFilter) ([]models.LedgerEntry, error) {
	const query = `
		SELECT t.id, t.student_id, t.staff_id, t.amount, t.package_snapshot, t.payment_mode,
		       t.reference_number, t.is_void, t.created_at,
		       TRIM(s.first_name || ' ' || s.last_name), s.college, s.balance, s.payment_status,
		       st.name
		FROM transactions t
		JOIN students s ON s.id = t.student_id
		JOIN staff st ON st.id = t.staff_id
		WHERE (t.is_void = FALSE OR $1)
		  AND ($2 = '' OR t.student_id = $2)
		ORDER BY t.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, filter.IncludeVoid, filter.StudentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(
			&e.ID, &e.StudentID, &e.StaffID, &e.Amount, &e.PackageSnapshot, &e.PaymentMode,
			&e.ReferenceNumber, &e.IsVoid, &e.CreatedAt,
			&e.StudentName, &e.College, &e.StudentBalance, &e.StudentStatus,
			&e.StaffName,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CreateTransaction inserts a transaction and upserts the owning student's
// profile and recomputed totals in one database transaction.
func (r *LedgerRepository) CreateTransaction(ctx context.Context, t *models.Transaction, s *models.Student) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	if err := upsertStudent(ctx, dbTx, s); err != nil {
		return fmt.Errorf("upsert student: %w", err)
	}

	const insertTx = `
		INSERT INTO transactions (student_id, staff_id, amount, package_snapshot, payment_mode, reference_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at
	`
	if err := dbTx.QueryRowContext(ctx, insertTx,
		t.StudentID, t.StaffID, t.Amount, t.PackageSnapshot, t.PaymentMode, t.ReferenceNumber,
	).Scan(&t.ID, &t.CreatedAt); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	return dbTx.Commit()
}

// UpdateTransaction overwrites the mutable transaction fields and persists the
// student's recomputed state atomically.
func (r *LedgerRepository) UpdateTransaction(ctx context.Context, t *models.Transaction, s *models.Student) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	const updateTx = `
		UPDATE transactions
		SET amount = $2, package_snapshot = $3, payment_mode = $4, reference_number = $5
		WHERE id = $1
	`
	res, err := dbTx.ExecContext(ctx, updateTx,
		t.ID, t.Amount, t.PackageSnapshot, t.PaymentMode, t.ReferenceNumber,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrTransactionNotFound
	}

	if err := upsertStudent(ctx, dbTx, s); err != nil {
		return fmt.Errorf("upsert student: %w", err)
	}

	return dbTx.Commit()
}

// VoidTransaction marks the transaction void and persists the student's
// recomputed state atomically.
func (r *LedgerRepository) VoidTransaction(ctx context.Context, txID int64, s *models.Student) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	res, err := dbTx.ExecContext(ctx, `UPDATE transactions SET is_void = TRUE WHERE id = $1`, txID)
	if err != nil {
		return fmt.Errorf("void transaction: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrTransactionNotFound
	}

	if err := upsertStudent(ctx, dbTx, s); err != nil {
		return fmt.Errorf("upsert student: %w", err)
	}

	return dbTx.Commit()
}

// ReplaceAll wipes and restores the staff, student and transaction sets inside
// one database transaction. Used by snapshot import.
func (r *LedgerRepository) ReplaceAll(ctx context.Context, staff []models.Staff, students []models.Student, transactions []models.Transaction) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	// Delete in dependency order.
	for _, stmt := range []string{
		`DELETE FROM transactions`,
		`DELETE FROM audit_logs`,
		`DELETE FROM students`,
		`DELETE FROM staff`,
	} {
		if _, err := dbTx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear tables: %w", err)
		}
	}

	const insertStaff = `
		INSERT INTO staff (id, name, position, username, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, m := range staff {
		if _, err := dbTx.ExecContext(ctx, insertStaff,
			m.ID, m.Name, m.Position, m.Username, m.PasswordHash, m.Role,
		); err != nil {
			return fmt.Errorf("restore staff: %w", err)
		}
	}

	for i := range students {
		if err := upsertStudent(ctx, dbTx, &students[i]); err != nil {
			return fmt.Errorf("restore student: %w", err)
		}
	}

	const insertTx = `
		INSERT INTO transactions (id, student_id, staff_id, amount, package_snapshot, payment_mode, reference_number, is_void, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, t := range transactions {
		if _, err := dbTx.ExecContext(ctx, insertTx,
			t.ID, t.StudentID, t.StaffID, t.Amount, t.PackageSnapshot,
			t.PaymentMode, t.ReferenceNumber, t.IsVoid, t.CreatedAt,
		); err != nil {
			return fmt.Errorf("restore transaction: %w", err)
		}
	}

	// Realign the serial sequences with the restored ids.
	for _, stmt := range []string{
		`SELECT setval(pg_get_serial_sequence('transactions', 'id'), COALESCE((SELECT MAX(id) FROM transactions), 0) + 1, false)`,
		`SELECT setval(pg_get_serial_sequence('staff', 'id'), COALESCE((SELECT MAX(id) FROM staff), 0) + 1, false)`,
	} {
		if _, err := dbTx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset sequence: %w", err)
		}
	}

	return dbTx.Commit()
}

func upsertStudent(ctx context.Context, dbTx *sql.Tx, s *models.Student) error {
	const query = `
		INSERT INTO students (id, first_name, middle_initial, last_name, college, program, year_level, section,
		                      package_type, total_paid, balance, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			middle_initial = EXCLUDED.middle_initial,
			last_name = EXCLUDED.last_name,
			college = EXCLUDED.college,
			program = EXCLUDED.program,
			year_level = EXCLUDED.year_level,
			section = EXCLUDED.section,
			package_type = EXCLUDED.package_type,
			total_paid = EXCLUDED.total_paid,
			balance = EXCLUDED.balance,
			payment_status = EXCLUDED.payment_status,
			updated_at = NOW()
	`
	_, err := dbTx.ExecContext(ctx, query,
		s.ID, s.FirstName, s.MiddleInitial, s.LastName, s.College, s.Program,
		s.YearLevel, s.Section, s.CurrentPackage, s.TotalPaid, s.Balance, s.PaymentStatus,
	)
	return err
}

func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(
			&t.ID, &t.StudentID, &t.StaffID, &t.Amount, &t.PackageSnapshot,
			&t.PaymentMode, &t.ReferenceNumber, &t.IsVoid, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
