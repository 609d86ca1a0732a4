package utils

import "time"

const DateLayout = "2006-01-02"

// DateOf drops the time of day, keeping the calendar day as seen in t's own
// location. The result is always midnight UTC, so two dates compare equal
// exactly when they name the same day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func SameDay(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return DateOf(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonthsClamped moves date by months calendar months and places it on
// anchorDay, or on the last day of the target month when that month is
// shorter. Jan 31 + 1 month is Feb 28 (or 29), never Mar 3.
func AddMonthsClamped(date time.Time, months int, anchorDay int) time.Time {
	y, m, _ := date.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	day := anchorDay
	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}
