package prep

import "errors"

// Fatal preparation errors. Callers match them with errors.Is.
var (
	// ErrMissingColumn is returned when a structurally required column is absent.
	ErrMissingColumn = errors.New("required column missing")

	// ErrColumnKind is returned when a column has the wrong kind for its role.
	ErrColumnKind = errors.New("column has wrong kind")

	// ErrNoCustomersInRange is returned when the period filter leaves no customers.
	ErrNoCustomersInRange = errors.New("no customers in date range")

	// ErrInsufficientHistory is returned when no customer has enough months of data.
	ErrInsufficientHistory = errors.New("no customers had enough months of data")

	// ErrNoRowsInWindow is returned when no customer has data inside its observation window.
	ErrNoRowsInWindow = errors.New("no customers had data within the observation window")
)
