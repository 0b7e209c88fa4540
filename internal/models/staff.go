package models

import "time"

// Staff roles.
const (
	RoleAdmin = "ADMIN"
	RoleStaff = "STAFF"
)

// Staff is a cashier or administrator operating the point of sale.
type Staff struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Position     string    `db:"position" json:"position"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
