package cleaning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attrition-prep/internal/frame"
)

func TestReconcile(t *testing.T) {
	score := mustFrame(t,
		frame.NewNumeric("B", []float64{1, 2}),
		frame.NewNumeric("EXTRA", []float64{9, 9}),
		frame.NewNumeric("A", []float64{3, 4}),
	)

	out, r, err := Reconcile(score, []string{"A", "TARGET", "B", "C_new"}, "TARGET")
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C_new"}, out.Names())
	assert.Equal(t, []float64{3, 4}, floats(t, out, "A"))
	assert.Equal(t, []float64{0, 0}, floats(t, out, "C_new"))
	assert.Equal(t, []string{"C_new"}, r.Added)
	assert.Equal(t, []string{"EXTRA"}, r.Dropped)
	assert.True(t, r.Changed())
}

func TestReconcile_AlreadyAligned(t *testing.T) {
	score := mustFrame(t,
		frame.NewNumeric("A", []float64{1}),
		frame.NewNumeric("B", []float64{2}),
	)

	out, r, err := Reconcile(score, []string{"A", "B"}, "TARGET")
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, out.Names())
	assert.False(t, r.Changed())
}

func TestReconcile_DuplicateTrainingColumn(t *testing.T) {
	score := mustFrame(t, frame.NewNumeric("A", []float64{1}))

	_, _, err := Reconcile(score, []string{"A", "A"}, "TARGET")
	assert.ErrorIs(t, err, frame.ErrDuplicateColumn)
}
