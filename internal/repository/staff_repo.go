package repository

import (
	"context"
	"database/sql"
	"errors"

	"feeledger/internal/models"
)

// StaffRepository persists staff accounts.
type StaffRepository struct {
	db *sql.DB
}

// NewStaffRepository returns repository.
func NewStaffRepository(db *sql.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// Create inserts a new staff account.
func (r *StaffRepository) Create(ctx context.Context, staff *models.Staff) error {
	const query = `
		INSERT INTO staff (name, position, username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		staff.Name, staff.Position, staff.Username, staff.PasswordHash, staff.Role,
	).Scan(&staff.ID, &staff.CreatedAt)
}

// GetByUsername fetches a staff account by username.
func (r *StaffRepository) GetByUsername(ctx context.Context, username string) (*models.Staff, error) {
	const query = `
		SELECT id, name, position, username, password_hash, role, created_at
		FROM staff
		WHERE username = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, username))
}

// GetByID fetches a staff account by id.
func (r *StaffRepository) GetByID(ctx context.Context, id int64) (*models.Staff, error) {
	const query = `
		SELECT id, name, position, username, password_hash, role, created_at
		FROM staff
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// FindAdmin returns the first configured administrator.
func (r *StaffRepository) FindAdmin(ctx context.Context) (*models.Staff, error) {
	const query = `
		SELECT id, name, position, username, password_hash, role, created_at
		FROM staff
		WHERE role = $1
		ORDER BY id
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, models.RoleAdmin))
}

// List returns all staff accounts.
func (r *StaffRepository) List(ctx context.Context) ([]models.Staff, error) {
	const query = `
		SELECT id, name, position, username, password_hash, role, created_at
		FROM staff
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var staff []models.Staff
	for rows.Next() {
		var m models.Staff
		if err := rows.Scan(&m.ID, &m.Name, &m.Position, &m.Username, &m.PasswordHash, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		staff = append(staff, m)
	}
	return staff, rows.Err()
}

func (r *StaffRepository) scanOne(row *sql.Row) (*models.Staff, error) {
	var m models.Staff
	err := row.Scan(&m.ID, &m.Name, &m.Position, &m.Username, &m.PasswordHash, &m.Role, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStaffNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
