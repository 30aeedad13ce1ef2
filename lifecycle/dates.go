// Package lifecycle derives rent facts from stored rows and a reference time: overdue
// rents, the virtual rents of the coming billing cycle, calendar projections and
// yearly charges figures. Nothing here touches the store.
package lifecycle

import "time"

// civil returns the calendar day of t, as it reads in t's own location, at UTC
// midnight. Comparing civil values ignores time of day and zone.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// occurrence returns paymentDay in the given month, clamped to its last day.
func occurrence(year int, month time.Month, paymentDay int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := daysIn(first.Year(), first.Month())
	if paymentDay > last {
		paymentDay = last
	}
	return time.Date(first.Year(), first.Month(), paymentDay, 0, 0, 0, 0, time.UTC)
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// NextDueDate returns the first occurrence of paymentDay on or after ref's calendar
// day. Days past the end of a month fall on its last day. A paymentDay outside 1..31
// yields the zero time.
func NextDueDate(paymentDay int, ref time.Time) time.Time {
	if paymentDay < 1 || paymentDay > 31 {
		return time.Time{}
	}
	today := civil(ref)
	due := occurrence(today.Year(), today.Month(), paymentDay)
	if due.Before(today) {
		due = occurrence(today.Year(), today.Month()+1, paymentDay)
	}
	return due
}
