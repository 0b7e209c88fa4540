package models

import "time"

// Audit action types recorded for privileged mutations.
const (
	ActionEdit   = "EDIT"
	ActionVoid   = "VOID"
	ActionImport = "IMPORT"
)

// AuditLog is an append-only note written for every privileged mutation.
type AuditLog struct {
	ID          int64     `db:"id" json:"id"`
	StaffID     int64     `db:"staff_id" json:"staff_id"`
	ActionType  string    `db:"action_type" json:"action_type"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	StaffName   string    `db:"-" json:"staff_name,omitempty"`
}
