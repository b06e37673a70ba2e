// Package prep turns raw monthly snapshots into one observation row per
// customer: column selection, join-date repair, attrition labeling, cutoff
// sampling and window feature derivation.
//
// Every function takes frames and timelines by reference and returns new
// values; inputs are never modified.
package prep

import (
	"fmt"
	"time"

	"attrition-prep/internal/config"
	"attrition-prep/internal/frame"
)

// SelectColumns keeps the requested columns that exist in f, in request
// order, and returns the names that were requested but absent.
func SelectColumns(f *frame.Frame, names []string) (*frame.Frame, []string) {
	present := make([]string, 0, len(names))
	var missing []string
	for _, n := range names {
		if f.Has(n) {
			present = append(present, n)
		} else {
			missing = append(missing, n)
		}
	}
	out, _ := f.Select(present...)
	return out, missing
}

// RequireColumns checks the columns every later stage depends on: the
// granularity key and a time-typed period end.
func RequireColumns(f *frame.Frame, cfg config.Prep) error {
	if !f.Has(cfg.GranularityKey) {
		return fmt.Errorf("%w: %s", ErrMissingColumn, cfg.GranularityKey)
	}
	end, ok := f.Column(cfg.PeriodEndAttribute)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingColumn, cfg.PeriodEndAttribute)
	}
	if end.Kind() != frame.Time {
		return fmt.Errorf("%w: %s is %s, want time", ErrColumnKind, cfg.PeriodEndAttribute, end.Kind())
	}
	return nil
}

// DropNullKeys removes rows without a customer identifier and returns how
// many were removed.
func DropNullKeys(f *frame.Frame, key string) (*frame.Frame, int) {
	col, ok := f.Column(key)
	if !ok {
		return f, 0
	}
	n := col.NullCount()
	if n == 0 {
		return f, 0
	}
	return f.Filter(func(i int) bool { return !col.IsNull(i) }), n
}

// FillJoinDates fills null join dates per customer: with the earliest join
// date recorded on another row of the same customer when there is one,
// otherwise with the customer's earliest period start. It returns the number
// of customers that had at least one null join date. Without a time-typed
// join column the frame is returned unchanged.
func FillJoinDates(f *frame.Frame, cfg config.Prep) (*frame.Frame, int, error) {
	key, ok := f.Column(cfg.GranularityKey)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrMissingColumn, cfg.GranularityKey)
	}
	join, ok := f.Column(cfg.JoinDateAttribute)
	if !ok || join.Kind() != frame.Time {
		return f, 0, nil
	}
	start, ok := f.Column(cfg.PeriodStartAttribute)
	if ok && start.Kind() != frame.Time {
		start = nil
	}

	minJoin := make(map[string]time.Time)
	minStart := make(map[string]time.Time)
	missing := make(map[string]struct{})
	for i := 0; i < f.Len(); i++ {
		id, ok := key.Str(i)
		if !ok {
			continue
		}
		if join.IsNull(i) {
			missing[id] = struct{}{}
		} else {
			keepEarliest(minJoin, id, join.Time(i))
		}
		if start != nil && !start.IsNull(i) {
			keepEarliest(minStart, id, start.Time(i))
		}
	}
	if len(missing) == 0 {
		return f, 0, nil
	}

	filled := join.Times()
	for i := range filled {
		if !filled[i].IsZero() {
			continue
		}
		id, ok := key.Str(i)
		if !ok {
			continue
		}
		if t, ok := minJoin[id]; ok {
			filled[i] = t
		} else if t, ok := minStart[id]; ok {
			filled[i] = t
		}
	}

	out, err := f.With(frame.NewTime(cfg.JoinDateAttribute, filled))
	if err != nil {
		return nil, 0, fmt.Errorf("replace %s: %w", cfg.JoinDateAttribute, err)
	}
	return out, len(missing), nil
}

func keepEarliest(m map[string]time.Time, id string, t time.Time) {
	if cur, ok := m[id]; !ok || t.Before(cur) {
		m[id] = t
	}
}

// FilterPeriod keeps rows whose period end lies in [from, to]. A zero from
// leaves the range open below. Rows without a period end are dropped.
// It fails with ErrNoCustomersInRange when nothing is left.
func FilterPeriod(f *frame.Frame, periodEnd string, from, to time.Time) (*frame.Frame, error) {
	end, ok := f.Column(periodEnd)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, periodEnd)
	}
	out := f.Filter(func(i int) bool {
		if end.IsNull(i) {
			return false
		}
		t := end.Time(i)
		if !from.IsZero() && t.Before(from) {
			return false
		}
		return !t.After(to)
	})
	if out.Len() == 0 {
		return nil, fmt.Errorf("%w: %s to %s", ErrNoCustomersInRange, formatBound(from), to.Format(config.DateLayout))
	}
	return out, nil
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "start of data"
	}
	return t.Format(config.DateLayout)
}
