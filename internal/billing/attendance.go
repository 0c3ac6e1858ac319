package billing

import (
	"time"

	"github.com/studioflow/pms-api/internal/models"
)

// Interval is an enrollment's active date range at day granularity.
type Interval struct {
	Start time.Time
	End   *time.Time
}

// EffectiveEnd returns the interval end, treating a nil end as single-day.
func (iv Interval) EffectiveEnd() time.Time {
	if iv.End != nil {
		return DayStart(*iv.End)
	}
	return DayStart(iv.Start)
}

// Tally sums a student's expectation and attendance for one course.
type Tally struct {
	// Expected is the number of scheduled class days inside the interval.
	Expected int
	// Attended is the number of attended class days inside the interval.
	Attended int
	// ExtraOutside counts attendances recorded after the interval's end,
	// i.e. classes taken beyond the contracted period.
	ExtraOutside int
}

// TallyCalendar walks per-day calendar entries and sums expected and attended
// days for the course. Days are considered from the interval start through
// the horizon; expectation only counts inside the interval, attendance after
// the interval end counts as extra.
func TallyCalendar(days []models.AttendanceDay, courseID string, iv Interval, horizon time.Time) Tally {
	var tally Tally
	start := DayStart(iv.Start)
	end := iv.EffectiveEnd()
	last := DayStart(horizon)
	if last.Before(end) {
		last = end
	}

	for _, day := range days {
		d := DayStart(day.Date)
		if d.Before(start) || d.After(last) {
			continue
		}
		attended := containsID(day.AttendedCourseIDs, courseID)
		if !d.After(end) {
			if containsID(day.ExpectedCourseIDs, courseID) {
				tally.Expected++
			}
			if attended {
				tally.Attended++
			}
		} else if attended {
			tally.ExtraOutside++
		}
	}
	return tally
}

// EstimateExpected is the cheaper approximation used by course listings:
// classes_per_week times the number of weeks in the interval, with weeks
// derived from the inclusive day count rounded up and never below one.
func EstimateExpected(classesPerWeek int, start, end time.Time) int {
	if classesPerWeek <= 0 {
		return 0
	}
	first := DayStart(start)
	last := DayStart(end)
	if last.Before(first) {
		return 0
	}
	days := int(last.Sub(first).Hours()/24) + 1
	weeks := (days + 6) / 7
	if weeks < 1 {
		weeks = 1
	}
	return classesPerWeek * weeks
}

// MonthsSpanned lists the (year, month) pairs the aggregator must fetch to
// cover the interval start through the horizon.
func MonthsSpanned(iv Interval, horizon time.Time) []time.Time {
	start := DayStart(iv.Start)
	last := DayStart(horizon)
	if end := iv.EffectiveEnd(); last.Before(end) {
		last = end
	}
	var months []time.Time
	cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
	stop := time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, last.Location())
	for !cursor.After(stop) {
		months = append(months, cursor)
		cursor = cursor.AddDate(0, 1, 0)
	}
	return months
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
