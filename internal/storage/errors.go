package storage

import (
	"errors"
	"fmt"

	"attrition-prep/internal/domain"
)

// Storage errors shared by all backends.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a record with the same key already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidateArtifact checks the fields every schema store requires.
func ValidateArtifact(a *domain.SchemaArtifact) error {
	switch {
	case a == nil:
		return fmt.Errorf("%w: nil schema artifact", ErrInvalidInput)
	case a.Name == "":
		return fmt.Errorf("%w: schema artifact without name", ErrInvalidInput)
	case len(a.Columns) == 0:
		return fmt.Errorf("%w: schema artifact without columns", ErrInvalidInput)
	}
	return nil
}
