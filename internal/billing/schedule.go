// Package billing holds the attendance/payment reconciliation rules shared by
// the course status, portal and payment screens. Everything here is pure:
// inputs are plain values, "today" is always passed in by the caller.
package billing

import "time"

// MondayIndex converts a native weekday (0=Sunday) to Monday-first indexing
// where 0=Monday .. 6=Sunday.
func MondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// DayStart truncates a timestamp to local midnight. All interval comparisons
// in this package are done at day granularity.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two timestamps fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// CountWeekdayOccurrences counts calendar days in [start, end] (inclusive)
// whose Monday-first weekday equals the target.
func CountWeekdayOccurrences(weekday int, start, end time.Time) int {
	if weekday < 0 || weekday > 6 {
		return 0
	}
	day := DayStart(start)
	last := DayStart(end)
	if day.After(last) {
		return 0
	}
	count := 0
	for !day.After(last) {
		if MondayIndex(day) == weekday {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count
}

// AlignToWeekday returns the first occurrence of the target weekday on or
// after the given date. Out-of-range weekdays return the date unchanged.
func AlignToWeekday(date time.Time, weekday int) time.Time {
	if weekday < 0 || weekday > 6 {
		return date
	}
	day := DayStart(date)
	for MondayIndex(day) != weekday {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// EndByOccurrences returns the date of the n-th occurrence of the target
// weekday counting from start. Used to propose renewal end dates.
func EndByOccurrences(start time.Time, weekday, n int) time.Time {
	aligned := AlignToWeekday(start, weekday)
	if n <= 1 {
		return aligned
	}
	return aligned.AddDate(0, 0, 7*(n-1))
}

// WeeksInMonth counts the Mondays in a month, the convention the calendar
// views use for "weeks in this month".
func WeeksInMonth(year int, month time.Month) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return CountWeekdayOccurrences(0, first, last)
}
