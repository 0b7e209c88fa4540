package repository

import "errors"

var (
	// ErrStudentNotFound is returned when no student matches the given id.
	ErrStudentNotFound = errors.New("repository: student not found")
	// ErrTransactionNotFound is returned when no transaction matches the given id.
	ErrTransactionNotFound = errors.New("repository: transaction not found")
	// ErrStaffNotFound is returned when no staff row matches.
	ErrStaffNotFound = errors.New("repository: staff not found")
)
