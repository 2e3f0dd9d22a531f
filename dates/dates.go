package dates

import "time"

// Location is the reference timezone for all calendar-day math. Streaks and
// reminders compare calendar days, not durations, so every instant is
// projected into this zone before truncation.
var Location = time.UTC

// Day identifies a calendar date as a count of days since the Unix epoch in
// the reference timezone.
type Day int

// DayOf projects an instant onto its calendar day. Two instants get the same
// Day iff they fall on the same date in the reference timezone.
func DayOf(t time.Time) Day {
	y, m, d := t.In(Location).Date()
	return Day(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// DaysBetween returns the signed number of calendar days from a to b,
// positive when b is later.
func DaysBetween(a, b Day) int {
	return int(b - a)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DayOf(a) == DayOf(b)
}
