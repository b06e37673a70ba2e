package file

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"attrition-prep/internal/domain"
	"attrition-prep/internal/frame"
	"attrition-prep/internal/storage"
)

// CSVSink writes the prepared dataset as CSV. The first column holds the
// customer identifiers under the dataset's key column name; nulls are
// written as empty cells.
type CSVSink struct {
	path string
}

// NewCSVSink creates a sink writing to path.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

var _ storage.DatasetSink = (*CSVSink)(nil)

// Write replaces the file with d.
func (s *CSVSink) Write(ctx context.Context, d *domain.PreparedDataset) error {
	if d == nil || d.Frame == nil {
		return storage.ErrInvalidInput
	}
	if len(d.CustomerIDs) != d.Frame.Len() {
		return fmt.Errorf("%w: %d customer ids for %d rows", storage.ErrInvalidInput, len(d.CustomerIDs), d.Frame.Len())
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dataset dir: %w", err)
		}
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create dataset file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	cols := d.Frame.Columns()

	header := make([]string, 0, len(cols)+1)
	header = append(header, d.KeyColumn)
	header = append(header, d.Frame.Names()...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rec := make([]string, len(header))
	for i := 0; i < d.Frame.Len(); i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		rec[0] = d.CustomerIDs[i]
		for j, c := range cols {
			rec[j+1] = formatCell(c, i)
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush dataset: %w", err)
	}
	return f.Close()
}

func formatCell(c *frame.Column, i int) string {
	if c.IsNull(i) {
		return ""
	}
	switch c.Kind() {
	case frame.Numeric:
		return strconv.FormatFloat(c.Float(i), 'g', -1, 64)
	case frame.Time:
		return c.Time(i).Format(time.DateOnly)
	default:
		s, _ := c.Str(i)
		return s
	}
}
