package frame

import (
	"math"
	"strconv"
	"time"
)

// Kind is the storage type of a column.
type Kind uint8

const (
	// Numeric columns hold float64 values; NaN marks a null cell.
	Numeric Kind = iota
	// Text columns hold strings with a validity mask.
	Text
	// Time columns hold timestamps; the zero time marks a null cell.
	Time
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Text:
		return "text"
	case Time:
		return "time"
	default:
		return "unknown"
	}
}

// Column is an immutable named vector of a single kind.
// Constructors copy their input so callers may reuse their slices.
type Column struct {
	name  string
	kind  Kind
	num   []float64
	str   []string
	valid []bool
	tm    []time.Time
}

// NewNumeric creates a numeric column. NaN values are nulls.
func NewNumeric(name string, values []float64) *Column {
	num := make([]float64, len(values))
	copy(num, values)
	return &Column{name: name, kind: Numeric, num: num}
}

// NewText creates a text column. A nil valid mask marks every cell valid.
func NewText(name string, values []string, valid []bool) *Column {
	str := make([]string, len(values))
	copy(str, values)
	mask := make([]bool, len(values))
	for i := range mask {
		mask[i] = valid == nil || (i < len(valid) && valid[i])
	}
	return &Column{name: name, kind: Text, str: str, valid: mask}
}

// NewTime creates a time column. Zero times are nulls.
func NewTime(name string, values []time.Time) *Column {
	tm := make([]time.Time, len(values))
	copy(tm, values)
	return &Column{name: name, kind: Time, tm: tm}
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Kind returns the column kind.
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of cells.
func (c *Column) Len() int {
	switch c.kind {
	case Numeric:
		return len(c.num)
	case Text:
		return len(c.str)
	default:
		return len(c.tm)
	}
}

// IsNull reports whether cell i is null.
func (c *Column) IsNull(i int) bool {
	switch c.kind {
	case Numeric:
		return math.IsNaN(c.num[i])
	case Text:
		return !c.valid[i]
	default:
		return c.tm[i].IsZero()
	}
}

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			n++
		}
	}
	return n
}

// Float returns cell i of a numeric column. Other kinds return NaN.
func (c *Column) Float(i int) float64 {
	if c.kind != Numeric {
		return math.NaN()
	}
	return c.num[i]
}

// Str returns cell i of a text column and whether it is non-null.
// Numeric cells are formatted without trailing zeros so that numeric
// identifiers can be used as keys.
func (c *Column) Str(i int) (string, bool) {
	switch c.kind {
	case Text:
		return c.str[i], c.valid[i]
	case Numeric:
		if math.IsNaN(c.num[i]) {
			return "", false
		}
		return strconv.FormatFloat(c.num[i], 'f', -1, 64), true
	default:
		if c.tm[i].IsZero() {
			return "", false
		}
		return c.tm[i].Format(time.RFC3339), true
	}
}

// Time returns cell i of a time column. Other kinds return the zero time.
func (c *Column) Time(i int) time.Time {
	if c.kind != Time {
		return time.Time{}
	}
	return c.tm[i]
}

// Floats returns a copy of the numeric values.
func (c *Column) Floats() []float64 {
	out := make([]float64, len(c.num))
	copy(out, c.num)
	return out
}

// Times returns a copy of the time values.
func (c *Column) Times() []time.Time {
	out := make([]time.Time, len(c.tm))
	copy(out, c.tm)
	return out
}

// Renamed returns the same data under a new name.
func (c *Column) Renamed(name string) *Column {
	cp := *c
	cp.name = name
	return &cp
}

// take returns a new column holding the cells at idx, in idx order.
func (c *Column) take(idx []int) *Column {
	out := &Column{name: c.name, kind: c.kind}
	switch c.kind {
	case Numeric:
		out.num = make([]float64, len(idx))
		for k, i := range idx {
			out.num[k] = c.num[i]
		}
	case Text:
		out.str = make([]string, len(idx))
		out.valid = make([]bool, len(idx))
		for k, i := range idx {
			out.str[k] = c.str[i]
			out.valid[k] = c.valid[i]
		}
	default:
		out.tm = make([]time.Time, len(idx))
		for k, i := range idx {
			out.tm[k] = c.tm[i]
		}
	}
	return out
}
