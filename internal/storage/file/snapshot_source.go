// Package file implements snapshot sources, the dataset sink and the schema
// store on the local filesystem.
package file

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"attrition-prep/internal/frame"
	"attrition-prep/internal/storage"
)

// CSVSource reads snapshots from a CSV file with a header row.
type CSVSource struct {
	path  string
	kinds map[string]frame.Kind
}

// NewCSVSource creates a CSV source. kinds overrides inferred column kinds.
func NewCSVSource(path string, kinds map[string]frame.Kind) *CSVSource {
	return &CSVSource{path: path, kinds: kinds}
}

var _ storage.SnapshotSource = (*CSVSource)(nil)

// Load reads the whole file.
func (s *CSVSource) Load(ctx context.Context) (*frame.Frame, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("open snapshots: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s is empty", storage.ErrInvalidInput, s.path)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var records [][]string
	for {
		if len(records)%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s.path, err)
		}
		records = append(records, rec)
	}

	out, err := frame.FromRecords(header, records, s.kinds)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return out, nil
}

// XLSXSource reads snapshots from one sheet of an Excel workbook. The first
// row of the sheet is the header.
type XLSXSource struct {
	path  string
	sheet string
	kinds map[string]frame.Kind
}

// NewXLSXSource creates a workbook source. An empty sheet selects the first sheet.
func NewXLSXSource(path, sheet string, kinds map[string]frame.Kind) *XLSXSource {
	return &XLSXSource{path: path, sheet: sheet, kinds: kinds}
}

var _ storage.SnapshotSource = (*XLSXSource)(nil)

// Load reads the sheet.
func (s *XLSXSource) Load(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wb, err := excelize.OpenFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	sheet := s.sheet
	if sheet == "" {
		sheet = wb.GetSheetName(0)
	}
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", storage.ErrInvalidInput, sheet)
	}

	out, err := frame.FromRecords(rows[0], rows[1:], s.kinds)
	if err != nil {
		return nil, fmt.Errorf("parse sheet %q: %w", sheet, err)
	}
	return out, nil
}
