package storage

import (
	"context"

	"attrition-prep/internal/domain"
	"attrition-prep/internal/frame"
)

// SnapshotSource provides the raw monthly customer snapshots.
type SnapshotSource interface {
	// Load reads every snapshot row into a frame. Column kinds are inferred
	// by the source; period end columns must come back as time.
	Load(ctx context.Context) (*frame.Frame, error)
}

// SchemaStore persists the training schema artifact.
type SchemaStore interface {
	// Save stores an artifact. Returns ErrInvalidInput for an artifact without columns.
	Save(ctx context.Context, a *domain.SchemaArtifact) error

	// Load returns the most recently saved artifact. Returns ErrNotFound if none exists.
	Load(ctx context.Context) (*domain.SchemaArtifact, error)
}

// DatasetSink receives a prepared dataset.
type DatasetSink interface {
	// Write stores the dataset, replacing any previous output of the sink.
	Write(ctx context.Context, d *domain.PreparedDataset) error
}
