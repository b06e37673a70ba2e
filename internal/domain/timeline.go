package domain

import (
	"sort"
	"time"

	"attrition-prep/internal/calendar"
)

// Timeline is one customer's snapshot rows ordered by period end ascending.
// Rows with equal period ends keep their input order.
// Timelines are derived per run and never persisted.
type Timeline struct {
	CustomerID string
	Rows       []int       // row indexes into the period-filtered frame
	PeriodEnds []time.Time // aligned with Rows
	Monthly    []bool      // attrition_this_month, aligned with Rows; nil until labeled
	Target     bool        // OR of Monthly
}

// Len returns the number of snapshots.
func (t Timeline) Len() int { return len(t.Rows) }

// Earliest returns the first period end.
func (t Timeline) Earliest() time.Time { return t.PeriodEnds[0] }

// Latest returns the last period end.
func (t Timeline) Latest() time.Time { return t.PeriodEnds[len(t.PeriodEnds)-1] }

// SpanMonths returns the whole months between the earliest and latest snapshot.
func (t Timeline) SpanMonths() int {
	if t.Len() == 0 {
		return 0
	}
	return calendar.MonthsBetween(t.Latest(), t.Earliest())
}

// FirstAttrition returns the earliest period end flagged as attrition.
func (t Timeline) FirstAttrition() (time.Time, bool) {
	for i, flagged := range t.Monthly {
		if flagged {
			return t.PeriodEnds[i], true
		}
	}
	return time.Time{}, false
}

// CountBefore returns how many snapshots end strictly before cutoff.
// They form a prefix of the timeline.
func (t Timeline) CountBefore(cutoff time.Time) int {
	return sort.Search(len(t.PeriodEnds), func(i int) bool {
		return !t.PeriodEnds[i].Before(cutoff)
	})
}

// Window returns the half-open index range [lo, hi) of snapshots with
// start <= period end < cutoff.
func (t Timeline) Window(start, cutoff time.Time) (lo, hi int) {
	hi = t.CountBefore(cutoff)
	lo = sort.Search(hi, func(i int) bool {
		return !t.PeriodEnds[i].Before(start)
	})
	return lo, hi
}

// Prefix returns the first n snapshots as a new timeline sharing no slices.
func (t Timeline) Prefix(n int) Timeline {
	out := Timeline{
		CustomerID: t.CustomerID,
		Rows:       append([]int(nil), t.Rows[:n]...),
		PeriodEnds: append([]time.Time(nil), t.PeriodEnds[:n]...),
		Target:     t.Target,
	}
	if t.Monthly != nil {
		out.Monthly = append([]bool(nil), t.Monthly[:n]...)
	}
	return out
}
