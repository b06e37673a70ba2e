package memory

import (
	"context"

	"attrition-prep/internal/frame"
	"attrition-prep/internal/storage"
)

// SnapshotSource serves a fixed frame.
type SnapshotSource struct {
	frame *frame.Frame
}

// NewSnapshotSource creates a source that always returns f.
func NewSnapshotSource(f *frame.Frame) *SnapshotSource {
	return &SnapshotSource{frame: f}
}

var _ storage.SnapshotSource = (*SnapshotSource)(nil)

// Load returns the frame. Frames are immutable so no copy is made.
func (s *SnapshotSource) Load(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.frame == nil {
		return nil, storage.ErrNotFound
	}
	return s.frame, nil
}
