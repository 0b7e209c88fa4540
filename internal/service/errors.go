package service

import "errors"

var (
	// ErrEntityNotFound is returned when a payment references an unknown
	// student and no profile payload was supplied to create one.
	ErrEntityNotFound = errors.New("ledger: student not found")
	// ErrNotFound is returned when a referenced transaction is absent.
	ErrNotFound = errors.New("ledger: transaction not found")
	// ErrAlreadySettled is returned when a payment is attempted against a
	// fully-paid package without a package change.
	ErrAlreadySettled = errors.New("ledger: student is already fully paid")
	// ErrInvalidAmount is returned when the applied amount would be
	// non-positive.
	ErrInvalidAmount = errors.New("ledger: invalid amount")
	// ErrUnknownPackage is returned for a package identifier with no price.
	ErrUnknownPackage = errors.New("ledger: unknown package")
	// ErrForbidden is returned when the second-factor check fails.
	ErrForbidden = errors.New("ledger: admin pin rejected")
)
