package prep

import (
	"math"

	"attrition-prep/internal/calendar"
	"attrition-prep/internal/config"
	"attrition-prep/internal/domain"
	"attrition-prep/internal/frame"
)

// AddTenure appends the tenure column: whole months from the join date to
// the period end of each row. Rows missing either date get a null tenure.
// Without a time-typed join date column f is returned unchanged.
func AddTenure(f *frame.Frame, cfg config.Prep) (*frame.Frame, bool, error) {
	join, ok := f.Column(cfg.JoinDateAttribute)
	if !ok || join.Kind() != frame.Time {
		return f, false, nil
	}
	end, ok := f.Column(cfg.PeriodEndAttribute)
	if !ok || end.Kind() != frame.Time {
		return f, false, nil
	}

	tenure := make([]float64, f.Len())
	for i := range tenure {
		if join.IsNull(i) || end.IsNull(i) {
			tenure[i] = math.NaN()
			continue
		}
		tenure[i] = float64(calendar.MonthsBetween(end.Time(i), join.Time(i)))
	}
	out, err := f.With(frame.NewNumeric(cfg.TenureAttribute, tenure))
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// AddTarget appends the 0/1 training label aligned with the cutoff records.
func AddTarget(f *frame.Frame, name string, cutoffs []domain.CutoffRecord) (*frame.Frame, error) {
	target := make([]float64, len(cutoffs))
	for i, c := range cutoffs {
		if c.Attrited {
			target[i] = 1
		}
	}
	return f.With(frame.NewNumeric(name, target))
}

// CustomerIDs returns the customer identifiers of the cutoff records, in order.
func CustomerIDs(cutoffs []domain.CutoffRecord) []string {
	ids := make([]string, len(cutoffs))
	for i, c := range cutoffs {
		ids[i] = c.CustomerID
	}
	return ids
}
