// Package calendar provides month arithmetic over snapshot dates.
//
// Go's time.AddDate normalizes overflowing days into the following month
// (Aug 31 - 6 months = Mar 3). Snapshot dates are month ends, so every shift
// here clamps the day to the last day of the target month instead.
package calendar

import "time"

// AddMonths shifts t by n calendar months, clamping the day of month.
// AddMonths(2018-08-31, -6) = 2018-02-28.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := y*12 + int(m) - 1 + n
	ty, tm := floorDiv(total, 12), time.Month(floorMod(total, 12)+1)

	if last := DaysIn(ty, tm); d > last {
		d = last
	}
	return time.Date(ty, tm, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// MonthsBetween returns the number of whole calendar months from b to a.
// The result is negative when a is before b. A month counts only once the
// day (and time) of month has been reached, with month-end clamping:
// MonthsBetween(2018-03-31, 2018-02-28) = 1, MonthsBetween(2018-03-30, 2018-02-28) = 1,
// MonthsBetween(2018-03-27, 2018-02-28) = 0.
func MonthsBetween(a, b time.Time) int {
	months := (a.Year()-b.Year())*12 + int(a.Month()) - int(b.Month())

	if a.Before(b) {
		for a.After(AddMonths(b, months)) {
			months++
		}
		return months
	}

	for a.Before(AddMonths(b, months)) {
		months--
	}
	return months
}

// FirstOfMonth truncates t to midnight on the first day of its month.
func FirstOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// DaysIn returns the number of days in month m of year y.
func DaysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
