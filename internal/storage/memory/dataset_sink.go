package memory

import (
	"context"
	"sync"

	"attrition-prep/internal/domain"
	"attrition-prep/internal/storage"
)

// DatasetSink keeps the last written dataset in memory.
type DatasetSink struct {
	mu      sync.RWMutex
	dataset *domain.PreparedDataset
}

// NewDatasetSink creates a new in-memory dataset sink.
func NewDatasetSink() *DatasetSink {
	return &DatasetSink{}
}

var _ storage.DatasetSink = (*DatasetSink)(nil)

// Write replaces the stored dataset.
func (s *DatasetSink) Write(_ context.Context, d *domain.PreparedDataset) error {
	if d == nil || d.Frame == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *d
	cp.CustomerIDs = append([]string(nil), d.CustomerIDs...)
	s.dataset = &cp
	return nil
}

// Last returns the last written dataset. Returns ErrNotFound if nothing was written.
func (s *DatasetSink) Last() (*domain.PreparedDataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dataset == nil {
		return nil, storage.ErrNotFound
	}
	cp := *s.dataset
	return &cp, nil
}
