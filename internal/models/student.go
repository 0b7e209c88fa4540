package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is derived from totals, never set directly by callers.
type PaymentStatus string

const (
	StatusUnpaid    PaymentStatus = "UNPAID"
	StatusPartial   PaymentStatus = "PARTIAL"
	StatusFullyPaid PaymentStatus = "FULLY_PAID"
)

// Student is the fee-paying subject tracked by the ledger. TotalPaid, Balance
// and PaymentStatus are recomputed from the non-voided transaction set on
// every mutation.
type Student struct {
	ID             string          `db:"id" json:"id"`
	FirstName      string          `db:"first_name" json:"first_name"`
	MiddleInitial  string          `db:"middle_initial" json:"middle_initial"`
	LastName       string          `db:"last_name" json:"last_name"`
	College        string          `db:"college" json:"college"`
	Program        string          `db:"program" json:"program"`
	YearLevel      int             `db:"year_level" json:"year_level"`
	Section        string          `db:"section" json:"section"`
	CurrentPackage string          `db:"package_type" json:"package_type"`
	TotalPaid      decimal.Decimal `db:"total_paid" json:"total_paid"`
	Balance        decimal.Decimal `db:"balance" json:"balance"`
	PaymentStatus  PaymentStatus   `db:"payment_status" json:"payment_status"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// StudentProfile carries the caller-supplied mutable profile fields. Every
// create call re-sends the full current profile state.
type StudentProfile struct {
	FirstName     string `json:"first_name"`
	MiddleInitial string `json:"middle_initial"`
	LastName      string `json:"last_name"`
	College       string `json:"college"`
	Program       string `json:"program"`
	YearLevel     int    `json:"year_level"`
	Section       string `json:"section"`
}
