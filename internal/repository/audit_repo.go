package repository

import (
	"context"
	"database/sql"

	"feeledger/internal/models"
)

// AuditRepository appends and reads the audit trail.
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository returns repository.
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create appends an audit entry.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	const query = `
		INSERT INTO audit_logs (staff_id, action_type, description, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		entry.StaffID, entry.ActionType, entry.Description,
	).Scan(&entry.ID, &entry.CreatedAt)
}

// ListRecent returns the newest audit entries with staff names attached.
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT a.id, a.staff_id, a.action_type, a.description, a.created_at, s.name
		FROM audit_logs a
		JOIN staff s ON s.id = a.staff_id
		ORDER BY a.created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.AuditLog
	for rows.Next() {
		var entry models.AuditLog
		if err := rows.Scan(&entry.ID, &entry.StaffID, &entry.ActionType, &entry.Description, &entry.CreatedAt, &entry.StaffName); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
