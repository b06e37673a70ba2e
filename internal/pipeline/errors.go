package pipeline

import "errors"

var (
	// ErrSchemaRequired is returned by scoring runs without a saved training schema.
	ErrSchemaRequired = errors.New("scoring requires a saved training schema")

	// ErrConfigMismatch is returned when strict scoring finds configuration
	// that differs from the training run.
	ErrConfigMismatch = errors.New("scoring configuration differs from training")
)
