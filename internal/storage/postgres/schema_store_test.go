package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attrition-prep/internal/config"
	"attrition-prep/internal/domain"
	"attrition-prep/internal/storage"
)

func newArtifact(createdAt time.Time, columns ...string) *domain.SchemaArtifact {
	return &domain.SchemaArtifact{
		Name:      "attrition",
		RunID:     uuid.NewString(),
		CreatedAt: createdAt,
		Config:    config.DefaultPrep(),
		Columns:   columns,
	}
}

func TestSchemaStore(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSchemaStore(pool, "attrition")

	t.Run("load empty", func(t *testing.T) {
		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	older := newArtifact(base, "A", "TARGET")
	newer := newArtifact(base.Add(time.Hour), "A", "B", "TARGET")

	t.Run("latest wins", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newer))
		require.NoError(t, store.Save(ctx, older))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, newer.RunID, got.RunID)
		assert.Equal(t, []string{"A", "B", "TARGET"}, got.Columns)
		assert.True(t, newer.CreatedAt.Equal(got.CreatedAt))
		assert.Equal(t, newer.Config.DeriveColumns, got.Config.DeriveColumns)
		assert.Equal(t, newer.Config.ObservationWindow, got.Config.ObservationWindow)
	})

	t.Run("names are separate", func(t *testing.T) {
		_, err := NewSchemaStore(pool, "other").Load(ctx)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("duplicate run id", func(t *testing.T) {
		err := store.Save(ctx, newer)
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("invalid run id", func(t *testing.T) {
		a := newArtifact(base, "A")
		a.RunID = "not-a-uuid"
		assert.ErrorIs(t, store.Save(ctx, a), storage.ErrInvalidInput)
	})
}
