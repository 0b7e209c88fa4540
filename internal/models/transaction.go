package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMode is how the payment was tendered.
type PaymentMode string

const (
	ModeCash         PaymentMode = "CASH"
	ModeBankTransfer PaymentMode = "BANK_TRANSFER"
)

// Transaction is one recorded payment event against a student. Amount is the
// amount actually applied toward the balance, which may be less than the
// amount tendered (the capping rule). Voided transactions are retained for
// audit but excluded from all balance math.
type Transaction struct {
	ID              int64           `db:"id" json:"id"`
	StudentID       string          `db:"student_id" json:"student_id"`
	StaffID         int64           `db:"staff_id" json:"staff_id"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	PackageSnapshot string          `db:"package_snapshot" json:"package_snapshot"`
	PaymentMode     PaymentMode     `db:"payment_mode" json:"payment_mode"`
	ReferenceNumber string          `db:"reference_number" json:"reference_number"`
	IsVoid          bool            `db:"is_void" json:"is_void"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// LedgerEntry is a transaction joined with its student and staff summaries for
// ledger listing.
type LedgerEntry struct {
	Transaction
	StudentName    string          `json:"student_name"`
	College        string          `json:"college"`
	StudentBalance decimal.Decimal `json:"student_balance"`
	StudentStatus  PaymentStatus   `json:"student_status"`
	StaffName      string          `json:"staff_name"`
}
