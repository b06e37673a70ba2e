// Package frame provides a small typed column table used by every pipeline stage.
//
// A Frame is never modified after construction: all operations return a new
// Frame that shares unchanged columns with its parent.
package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrLengthMismatch is returned when columns of different lengths are combined.
	ErrLengthMismatch = errors.New("column length mismatch")

	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrNoColumn is returned when a named column does not exist.
	ErrNoColumn = errors.New("no such column")
)

// Frame is an ordered set of uniquely named, equal-length columns.
type Frame struct {
	cols []*Column
	pos  map[string]int
	rows int
}

// New builds a frame from columns. All columns must have the same length.
func New(cols ...*Column) (*Frame, error) {
	rows := 0
	if len(cols) > 0 {
		rows = cols[0].Len()
	}
	return build(rows, cols)
}

// Empty returns a frame with n rows and no columns.
func Empty(n int) *Frame {
	f, _ := build(n, nil)
	return f
}

func build(rows int, cols []*Column) (*Frame, error) {
	f := &Frame{
		cols: make([]*Column, 0, len(cols)),
		pos:  make(map[string]int, len(cols)),
		rows: rows,
	}
	for _, c := range cols {
		if c.Len() != rows {
			return nil, fmt.Errorf("%w: %s has %d rows, want %d", ErrLengthMismatch, c.Name(), c.Len(), rows)
		}
		if _, dup := f.pos[c.Name()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, c.Name())
		}
		f.pos[c.Name()] = len(f.cols)
		f.cols = append(f.cols, c)
	}
	return f, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.rows }

// Width returns the number of columns.
func (f *Frame) Width() int { return len(f.cols) }

// Names returns the column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name()
	}
	return names
}

// Columns returns the columns in order.
func (f *Frame) Columns() []*Column {
	out := make([]*Column, len(f.cols))
	copy(out, f.cols)
	return out
}

// Has reports whether a column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.pos[name]
	return ok
}

// Column returns the named column.
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.pos[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// With returns a frame with c appended, or replacing the column of the same name in place.
func (f *Frame) With(c *Column) (*Frame, error) {
	if c.Len() != f.rows {
		return nil, fmt.Errorf("%w: %s has %d rows, want %d", ErrLengthMismatch, c.Name(), c.Len(), f.rows)
	}
	cols := f.Columns()
	if i, ok := f.pos[c.Name()]; ok {
		cols[i] = c
	} else {
		cols = append(cols, c)
	}
	return build(f.rows, cols)
}

// Without returns a frame without the named columns. Unknown names are ignored.
func (f *Frame) Without(names ...string) *Frame {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	cols := make([]*Column, 0, len(f.cols))
	for _, c := range f.cols {
		if _, ok := drop[c.Name()]; !ok {
			cols = append(cols, c)
		}
	}
	out, _ := build(f.rows, cols)
	return out
}

// Select returns a frame with exactly the named columns, in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		c, ok := f.Column(n)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoColumn, n)
		}
		cols = append(cols, c)
	}
	return build(f.rows, cols)
}

// Take returns a frame holding the rows at idx, in idx order.
func (f *Frame) Take(idx []int) *Frame {
	cols := make([]*Column, len(f.cols))
	for i, c := range f.cols {
		cols[i] = c.take(idx)
	}
	out, _ := build(len(idx), cols)
	return out
}

// Filter returns the rows for which keep returns true.
func (f *Frame) Filter(keep func(row int) bool) *Frame {
	idx := make([]int, 0, f.rows)
	for i := 0; i < f.rows; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	return f.Take(idx)
}
