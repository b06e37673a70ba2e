package frame

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := New(
		NewText("id", []string{"a", "b", "c"}, nil),
		NewNumeric("funds", []float64{1, math.NaN(), 3}),
		NewTime("end", []time.Time{
			time.Date(2018, 1, 31, 0, 0, 0, 0, time.UTC),
			{},
			time.Date(2018, 3, 31, 0, 0, 0, 0, time.UTC),
		}),
	)
	require.NoError(t, err)
	return f
}

func TestNew_RejectsMismatchedLengths(t *testing.T) {
	_, err := New(
		NewNumeric("a", []float64{1, 2}),
		NewNumeric("b", []float64{1}),
	)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestNew_RejectsDuplicateNames(t *testing.T) {
	_, err := New(
		NewNumeric("a", []float64{1}),
		NewNumeric("a", []float64{2}),
	)
	assert.ErrorIs(t, err, ErrDuplicateColumn)
}

func TestColumn_Nulls(t *testing.T) {
	f := sampleFrame(t)

	funds, ok := f.Column("funds")
	require.True(t, ok)
	assert.False(t, funds.IsNull(0))
	assert.True(t, funds.IsNull(1))
	assert.Equal(t, 1, funds.NullCount())

	end, _ := f.Column("end")
	assert.True(t, end.IsNull(1))

	text := NewText("s", []string{"x", ""}, []bool{true, false})
	assert.True(t, text.IsNull(1))
	v, ok := text.Str(0)
	assert.True(t, ok)
	assert.Equal(t, "x", v)
}

func TestColumn_StrFormatsNumericKeys(t *testing.T) {
	c := NewNumeric("id", []float64{1001, 12.5, math.NaN()})

	s, ok := c.Str(0)
	assert.True(t, ok)
	assert.Equal(t, "1001", s)

	s, _ = c.Str(1)
	assert.Equal(t, "12.5", s)

	_, ok = c.Str(2)
	assert.False(t, ok)
}

func TestFrame_OperationsDoNotMutate(t *testing.T) {
	f := sampleFrame(t)

	g, err := f.With(NewNumeric("extra", []float64{7, 8, 9}))
	require.NoError(t, err)
	h := g.Without("funds")
	k := h.Take([]int{2, 0})

	assert.Equal(t, []string{"id", "funds", "end"}, f.Names())
	assert.Equal(t, []string{"id", "funds", "end", "extra"}, g.Names())
	assert.Equal(t, []string{"id", "end", "extra"}, h.Names())
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 2, k.Len())

	id, _ := k.Column("id")
	first, _ := id.Str(0)
	assert.Equal(t, "c", first)
}

func TestFrame_WithReplacesInPlace(t *testing.T) {
	f := sampleFrame(t)

	g, err := f.With(NewNumeric("funds", []float64{0, 0, 0}))
	require.NoError(t, err)

	assert.Equal(t, f.Names(), g.Names())
	funds, _ := g.Column("funds")
	assert.Equal(t, []float64{0, 0, 0}, funds.Floats())

	orig, _ := f.Column("funds")
	assert.Equal(t, 1.0, orig.Float(0))
}

func TestFrame_SelectOrdersAndReportsMissing(t *testing.T) {
	f := sampleFrame(t)

	g, err := f.Select("end", "id")
	require.NoError(t, err)
	assert.Equal(t, []string{"end", "id"}, g.Names())

	_, err = f.Select("missing")
	assert.ErrorIs(t, err, ErrNoColumn)
}

func TestFrame_WithoutKeepsRowCount(t *testing.T) {
	f := sampleFrame(t)
	g := f.Without(f.Names()...)
	assert.Equal(t, 0, g.Width())
	assert.Equal(t, 3, g.Len())
}

func TestFrame_Filter(t *testing.T) {
	f := sampleFrame(t)
	funds, _ := f.Column("funds")

	g := f.Filter(func(i int) bool { return !funds.IsNull(i) })
	assert.Equal(t, 2, g.Len())
}
