package timeutil

import (
	"math"
	"time"
)

// WeekWindow returns the [start, end) interval of the week containing now,
// where a week runs from Sunday 00:00:00 to the following Sunday.
// Quota enforcement and weekly stats must both use this function so the
// two never disagree on week boundaries.
func WeekWindow(now time.Time) (start, end time.Time) {
	day := StartOfDay(now)
	start = day.AddDate(0, 0, -int(day.Weekday()))
	end = start.AddDate(0, 0, 7)
	return start, end
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}

// DaysBetween returns the number of calendar days from a to b
// (b later than a gives a positive count). Hours within the day are
// ignored; rounding absorbs DST-shortened or -lengthened days.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24))
}
