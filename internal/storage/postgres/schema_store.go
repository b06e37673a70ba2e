package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"attrition-prep/internal/config"
	"attrition-prep/internal/domain"
	"attrition-prep/internal/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SchemaStore implements storage.SchemaStore using the training_schemas table.
// Artifacts are append-only; Load returns the newest artifact for the store's name.
type SchemaStore struct {
	pool *Pool
	name string
}

// NewSchemaStore creates a schema store for the named model.
func NewSchemaStore(pool *Pool, name string) *SchemaStore {
	return &SchemaStore{pool: pool, name: name}
}

// Compile-time interface check.
var _ storage.SchemaStore = (*SchemaStore)(nil)

// Save inserts the artifact under the store's name. Returns ErrDuplicateKey if
// the run id was already saved and ErrInvalidInput if it is not a UUID.
func (s *SchemaStore) Save(ctx context.Context, a *domain.SchemaArtifact) error {
	if err := storage.ValidateArtifact(a); err != nil {
		return err
	}
	runID, err := uuid.Parse(a.RunID)
	if err != nil {
		return fmt.Errorf("%w: run id %q: %v", storage.ErrInvalidInput, a.RunID, err)
	}

	cfg, err := json.Marshal(a.Config)
	if err != nil {
		return fmt.Errorf("encode schema config: %w", err)
	}
	cols, err := json.Marshal(a.Columns)
	if err != nil {
		return fmt.Errorf("encode schema columns: %w", err)
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO training_schemas (name, run_id, created_at, config, columns)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.pool.Exec(ctx, query, s.name, runID.String(), createdAt, string(cfg), string(cols))
	if err != nil {
		return storageError(err, "insert schema artifact")
	}
	return nil
}

// Load returns the newest artifact for the store's name. Returns ErrNotFound if none exists.
func (s *SchemaStore) Load(ctx context.Context) (*domain.SchemaArtifact, error) {
	query := `
		SELECT name, run_id::text, created_at, config, columns
		FROM training_schemas
		WHERE name = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var (
		a         domain.SchemaArtifact
		cfg, cols []byte
	)
	err := s.pool.QueryRow(ctx, query, s.name).Scan(&a.Name, &a.RunID, &a.CreatedAt, &cfg, &cols)
	if err != nil {
		return nil, storageError(err, "get schema artifact")
	}

	var prep config.Prep
	if err := json.Unmarshal(cfg, &prep); err != nil {
		return nil, fmt.Errorf("decode schema config: %w", err)
	}
	if err := json.Unmarshal(cols, &a.Columns); err != nil {
		return nil, fmt.Errorf("decode schema columns: %w", err)
	}
	a.Config = prep
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}
