package cleaning

import (
	"fmt"

	"attrition-prep/internal/frame"
)

// Reconciliation lists the columns changed while aligning a scoring frame
// with the training columns.
type Reconciliation struct {
	// Added are training columns absent from the scoring frame; they are zero-filled.
	Added []string
	// Dropped are scoring columns the model was not trained on.
	Dropped []string
}

// Changed reports whether the scoring frame needed any alignment.
func (r *Reconciliation) Changed() bool {
	return len(r.Added) > 0 || len(r.Dropped) > 0
}

// Reconcile returns f with exactly the training columns, minus target, in
// training order.
func Reconcile(f *frame.Frame, training []string, target string) (*frame.Frame, *Reconciliation, error) {
	r := &Reconciliation{}

	want := make(map[string]struct{}, len(training))
	cols := make([]*frame.Column, 0, len(training))
	for _, name := range training {
		if name == target {
			continue
		}
		if _, dup := want[name]; dup {
			return nil, nil, fmt.Errorf("%w: %s in training columns", frame.ErrDuplicateColumn, name)
		}
		want[name] = struct{}{}

		if c, ok := f.Column(name); ok {
			cols = append(cols, c)
			continue
		}
		cols = append(cols, frame.NewNumeric(name, make([]float64, f.Len())))
		r.Added = append(r.Added, name)
	}

	for _, name := range f.Names() {
		if _, ok := want[name]; !ok {
			r.Dropped = append(r.Dropped, name)
		}
	}

	if len(cols) == 0 {
		return frame.Empty(f.Len()), r, nil
	}
	out, err := frame.New(cols...)
	if err != nil {
		return nil, nil, fmt.Errorf("reconcile: %w", err)
	}
	return out, r, nil
}
