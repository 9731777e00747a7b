// Package datemath provides the date-only arithmetic the schedulers
// share: adding day offsets, comparing dates while ignoring the time
// of day, and counting the days between two instants.
package datemath

import "time"

// AddDays returns t shifted by the given number of calendar days.
// Going through Date rather than Add keeps the result correct across
// DST transitions.
func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay normalizes t to the last representable instant of its day.
// Due-date comparisons run against this bound so an item due earlier
// today still counts as due.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// OnOrBefore reports whether a's calendar day is no later than b's.
func OnOrBefore(a, b time.Time) bool {
	return !StartOfDay(a).After(StartOfDay(b))
}

// DaysBetween returns the whole calendar days from a to b, negative
// when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)) / (24 * time.Hour))
}
