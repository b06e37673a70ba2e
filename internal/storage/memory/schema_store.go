package memory

import (
	"context"
	"sync"

	"attrition-prep/internal/domain"
	"attrition-prep/internal/storage"
)

// SchemaStore is an in-memory implementation of storage.SchemaStore.
// It keeps every saved artifact; Load returns the last one.
type SchemaStore struct {
	mu        sync.RWMutex
	artifacts []*domain.SchemaArtifact
}

// NewSchemaStore creates a new in-memory schema store.
func NewSchemaStore() *SchemaStore {
	return &SchemaStore{}
}

// Compile-time interface check.
var _ storage.SchemaStore = (*SchemaStore)(nil)

// Save stores a copy of the artifact.
func (s *SchemaStore) Save(_ context.Context, a *domain.SchemaArtifact) error {
	if err := storage.ValidateArtifact(a); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.artifacts = append(s.artifacts, copyArtifact(a))
	return nil
}

// Load returns a copy of the most recently saved artifact. Returns ErrNotFound if none exists.
func (s *SchemaStore) Load(_ context.Context) (*domain.SchemaArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.artifacts) == 0 {
		return nil, storage.ErrNotFound
	}
	return copyArtifact(s.artifacts[len(s.artifacts)-1]), nil
}

// Count returns the number of saved artifacts.
func (s *SchemaStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artifacts)
}

func copyArtifact(a *domain.SchemaArtifact) *domain.SchemaArtifact {
	cp := *a
	cp.Config = a.Config.Clone()
	cp.Columns = append([]string(nil), a.Columns...)
	return &cp
}
