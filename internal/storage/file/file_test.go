package file

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"attrition-prep/internal/config"
	"attrition-prep/internal/domain"
	"attrition-prep/internal/frame"
	"attrition-prep/internal/storage"
)

const snapshotsCSV = `ID,END,STATUS,FUNDS
1,2018-01-31,Active,100
1,2018-02-28,Active,NA
2,2018-01-31,Inactive,50.5
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVSource_Load(t *testing.T) {
	path := writeFile(t, "snapshots.csv", snapshotsCSV)

	f, err := NewCSVSource(path, map[string]frame.Kind{"ID": frame.Text}).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"ID", "END", "STATUS", "FUNDS"}, f.Names())
	assert.Equal(t, 3, f.Len())

	id, _ := f.Column("ID")
	assert.Equal(t, frame.Text, id.Kind())
	end, _ := f.Column("END")
	assert.Equal(t, frame.Time, end.Kind())
	assert.Equal(t, time.Date(2018, 2, 28, 0, 0, 0, 0, time.UTC), end.Time(1))
	funds, _ := f.Column("FUNDS")
	assert.True(t, funds.IsNull(1))
	assert.Equal(t, 50.5, funds.Float(2))
}

func TestCSVSource_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewCSVSource(filepath.Join(t.TempDir(), "missing.csv"), nil).Load(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = NewCSVSource(writeFile(t, "empty.csv", ""), nil).Load(ctx)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	_, err = NewCSVSource(writeFile(t, "dup.csv", "A,A\n1,2\n"), nil).Load(ctx)
	assert.ErrorIs(t, err, frame.ErrDuplicateColumn)
}

func TestXLSXSource_Load(t *testing.T) {
	wb := excelize.NewFile()
	sheet := "Snapshots"
	require.NoError(t, wb.SetSheetName(wb.GetSheetName(0), sheet))
	rows := [][]any{
		{"ID", "END", "FUNDS"},
		{"a", "2018-01-31", 10},
		{"b", "2018-02-28", 20.25},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "snapshots.xlsx")
	require.NoError(t, wb.SaveAs(path))

	f, err := NewXLSXSource(path, "", nil).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"ID", "END", "FUNDS"}, f.Names())
	funds, _ := f.Column("FUNDS")
	assert.Equal(t, []float64{10, 20.25}, funds.Floats())
	end, _ := f.Column("END")
	assert.Equal(t, frame.Time, end.Kind())

	_, err = NewXLSXSource(path, "Nope", nil).Load(context.Background())
	assert.Error(t, err)
}

func TestSchemaStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSchemaStore(filepath.Join(t.TempDir(), "data", "schema.json"))

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, storage.ErrNotFound)

	cfg := config.DefaultPrep()
	cfg.Mode = config.ModeScore
	cfg.Workers = 7
	a := &domain.SchemaArtifact{
		Name:      "attrition",
		RunID:     "run-1",
		CreatedAt: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		Config:    cfg,
		Columns:   []string{"A", "B", "TARGET"},
	}
	require.NoError(t, store.Save(ctx, a))

	got, err := store.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, a.Columns, got.Columns)
	assert.Equal(t, a.RunID, got.RunID)
	assert.True(t, a.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, cfg.DeriveColumns, got.Config.DeriveColumns)
	assert.Equal(t, cfg.FundsDropThreshold, got.Config.FundsDropThreshold)
	// run-local settings are not persisted
	assert.Empty(t, got.Config.Mode)
	assert.Zero(t, got.Config.Workers)
}

func TestSchemaStore_FileLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	a := &domain.SchemaArtifact{Name: "attrition", Config: config.DefaultPrep(), Columns: []string{"A"}}
	require.NoError(t, NewSchemaStore(path).Save(context.Background(), a))

	var raw map[string]any
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Contains(t, raw, "user_inputs")
	assert.Contains(t, raw, "cols_used_for_training")
	inputs := raw["user_inputs"].(map[string]any)
	assert.Equal(t, 0.75, inputs["AUM_reduction_threshold"])
}

func TestSchemaStore_CorruptFile(t *testing.T) {
	path := writeFile(t, "schema.json", "{not json")

	_, err := NewSchemaStore(path).Load(context.Background())
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestCSVSink_Write(t *testing.T) {
	f, err := frame.New(
		frame.NewNumeric("FUNDS_mean", []float64{1.5, 1e21}),
		frame.NewNumeric("TENURE", []float64{12, math.NaN()}),
	)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "out", "prepared.csv")

	err = NewCSVSink(path).Write(context.Background(), &domain.PreparedDataset{
		Frame:       f,
		CustomerIDs: []string{"c1", "c2"},
		KeyColumn:   "ID",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ID,FUNDS_mean,TENURE\nc1,1.5,12\nc2,1e+21,\n", string(data))
}

func TestCSVSink_MisalignedIDs(t *testing.T) {
	f, err := frame.New(frame.NewNumeric("X", []float64{1, 2}))
	require.NoError(t, err)

	err = NewCSVSink(filepath.Join(t.TempDir(), "x.csv")).Write(context.Background(),
		&domain.PreparedDataset{Frame: f, CustomerIDs: []string{"only-one"}})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
