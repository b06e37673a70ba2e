package prep

import (
	"fmt"
	"sort"
	"time"

	"attrition-prep/internal/domain"
	"attrition-prep/internal/frame"
)

// OrderSnapshots sorts row indexes by (customer key ASC, period end ASC).
// The sort is stable: rows with the same key and period end keep their
// input order, so the later input row is the "latest" one. Numeric keys
// compare numerically, text keys lexically.
func OrderSnapshots(rows []int, key, periodEnd *frame.Column) {
	sort.SliceStable(rows, func(a, b int) bool {
		i, j := rows[a], rows[b]
		if c := compareKeys(key, i, j); c != 0 {
			return c < 0
		}
		return periodEnd.Time(i).Before(periodEnd.Time(j))
	})
}

// compareKeys returns:
//   - negative if key[i] < key[j]
//   - zero if key[i] == key[j]
//   - positive if key[i] > key[j]
func compareKeys(key *frame.Column, i, j int) int {
	if key.Kind() == frame.Numeric {
		a, b := key.Float(i), key.Float(j)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	a, _ := key.Str(i)
	b, _ := key.Str(j)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// BuildTimelines groups the rows of f into one timeline per customer, in
// customer key order. Rows with a null key or period end are skipped.
func BuildTimelines(f *frame.Frame, key, periodEnd string) ([]domain.Timeline, error) {
	keyCol, ok := f.Column(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, key)
	}
	endCol, ok := f.Column(periodEnd)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, periodEnd)
	}
	if endCol.Kind() != frame.Time {
		return nil, fmt.Errorf("%w: %s is %s, want time", ErrColumnKind, periodEnd, endCol.Kind())
	}

	rows := make([]int, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		if !keyCol.IsNull(i) && !endCol.IsNull(i) {
			rows = append(rows, i)
		}
	}
	OrderSnapshots(rows, keyCol, endCol)

	var timelines []domain.Timeline
	for start := 0; start < len(rows); {
		end := start + 1
		for end < len(rows) && compareKeys(keyCol, rows[start], rows[end]) == 0 {
			end++
		}
		id, _ := keyCol.Str(rows[start])
		tl := domain.Timeline{
			CustomerID: id,
			Rows:       append([]int(nil), rows[start:end]...),
			PeriodEnds: make([]time.Time, 0, end-start),
		}
		for _, r := range tl.Rows {
			tl.PeriodEnds = append(tl.PeriodEnds, endCol.Time(r))
		}
		timelines = append(timelines, tl)
		start = end
	}
	return timelines, nil
}
