package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"attrition-prep/internal/domain"
	"attrition-prep/internal/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SchemaStore keeps the training schema artifact in a single JSON file.
// Each Save replaces the file.
type SchemaStore struct {
	path string
}

// NewSchemaStore creates a schema store backed by path.
func NewSchemaStore(path string) *SchemaStore {
	return &SchemaStore{path: path}
}

var _ storage.SchemaStore = (*SchemaStore)(nil)

// Save writes the artifact. The file is written next to its destination and
// renamed into place, so readers never see a partial artifact.
func (s *SchemaStore) Save(_ context.Context, a *domain.SchemaArtifact) error {
	if err := storage.ValidateArtifact(a); err != nil {
		return err
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encode schema artifact: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create schema dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write schema artifact: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace schema artifact: %w", err)
	}
	return nil
}

// Load reads the artifact. Returns ErrNotFound if the file does not exist.
func (s *SchemaStore) Load(_ context.Context) (*domain.SchemaArtifact, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read schema artifact: %w", err)
	}

	var a domain.SchemaArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: decode schema artifact: %v", storage.ErrInvalidInput, err)
	}
	return &a, nil
}
