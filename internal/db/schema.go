package db

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the ledger tables when they do not exist yet. Statements
// are idempotent so the service can run them on every start.
func EnsureSchema(ctx context.Context, conn *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS staff (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			position TEXT NOT NULL DEFAULT '',
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'STAFF',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS students (
			id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL DEFAULT '',
			middle_initial TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			college TEXT NOT NULL DEFAULT 'N/A',
			program TEXT NOT NULL DEFAULT 'N/A',
			year_level INT NOT NULL DEFAULT 1,
			section TEXT NOT NULL DEFAULT 'N/A',
			package_type TEXT NOT NULL DEFAULT '',
			total_paid NUMERIC(12,2) NOT NULL DEFAULT 0,
			balance NUMERIC(12,2) NOT NULL DEFAULT 0,
			payment_status TEXT NOT NULL DEFAULT 'UNPAID',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			student_id TEXT NOT NULL REFERENCES students(id),
			staff_id BIGINT NOT NULL REFERENCES staff(id),
			amount NUMERIC(12,2) NOT NULL,
			package_snapshot TEXT NOT NULL,
			payment_mode TEXT NOT NULL DEFAULT 'CASH',
			reference_number TEXT NOT NULL DEFAULT '',
			is_void BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_student ON transactions (student_id, is_void)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_created ON transactions (created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id BIGSERIAL PRIMARY KEY,
			staff_id BIGINT NOT NULL REFERENCES staff(id),
			action_type TEXT NOT NULL,
			description TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("db: ensure schema: %w", err)
		}
	}
	return nil
}
