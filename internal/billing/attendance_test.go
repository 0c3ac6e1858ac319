package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studioflow/pms-api/internal/models"
)

func calendarDay(d time.Time, expected, attended []string) models.AttendanceDay {
	return models.AttendanceDay{Date: d, ExpectedCourseIDs: expected, AttendedCourseIDs: attended}
}

// Monday course from Jan 1st through Jan 29th 2024: five scheduled Mondays,
// three attended, one extra attendance after the contract ended.
func TestTallyCalendarEndToEnd(t *testing.T) {
	end := date(2024, time.January, 29)
	iv := Interval{Start: date(2024, time.January, 1), End: &end}

	days := []models.AttendanceDay{
		calendarDay(date(2024, time.January, 1), []string{"c1"}, []string{"c1"}),
		calendarDay(date(2024, time.January, 8), []string{"c1"}, []string{"c1"}),
		calendarDay(date(2024, time.January, 15), []string{"c1"}, nil),
		calendarDay(date(2024, time.January, 22), []string{"c1"}, []string{"c1"}),
		calendarDay(date(2024, time.January, 29), []string{"c1"}, nil),
		calendarDay(date(2024, time.February, 5), nil, []string{"c1"}),
	}

	tally := TallyCalendar(days, "c1", iv, date(2024, time.February, 28))
	assert.Equal(t, 5, tally.Expected)
	assert.Equal(t, 3, tally.Attended)
	assert.Equal(t, 1, tally.ExtraOutside)

	// The derived status: no payment wins over everything.
	status := Classify(ClassifyInput{
		HasPayment: false,
		Active:     true,
		EndDate:    &end,
		Expected:   tally.Expected,
		Attended:   tally.Attended,
		Today:      date(2024, time.January, 20),
	})
	assert.Equal(t, StatusPaymentDue, status)

	// With a payment and attended < expected the student is simply enrolled.
	status = Classify(ClassifyInput{
		HasPayment: true,
		Active:     true,
		EndDate:    &end,
		Expected:   tally.Expected,
		Attended:   tally.Attended,
		Today:      date(2024, time.January, 20),
	})
	assert.Equal(t, StatusEnrolled, status)
}

func TestTallyCalendarIgnoresOtherCoursesAndOutOfRangeDays(t *testing.T) {
	end := date(2024, time.January, 31)
	iv := Interval{Start: date(2024, time.January, 10), End: &end}

	days := []models.AttendanceDay{
		calendarDay(date(2024, time.January, 5), []string{"c1"}, []string{"c1"}),  // before start
		calendarDay(date(2024, time.January, 15), []string{"c2"}, []string{"c2"}), // other course
		calendarDay(date(2024, time.January, 20), []string{"c1"}, []string{"c1"}),
		calendarDay(date(2024, time.June, 1), nil, []string{"c1"}), // beyond horizon
	}

	tally := TallyCalendar(days, "c1", iv, date(2024, time.February, 29))
	assert.Equal(t, 1, tally.Expected)
	assert.Equal(t, 1, tally.Attended)
	assert.Equal(t, 0, tally.ExtraOutside)
}

func TestEstimateExpected(t *testing.T) {
	// 29 inclusive days round up to 5 weeks.
	assert.Equal(t, 5, EstimateExpected(1, date(2024, time.January, 1), date(2024, time.January, 29)))
	// Two classes a week over two exact weeks.
	assert.Equal(t, 4, EstimateExpected(2, date(2024, time.January, 1), date(2024, time.January, 14)))
	// Minimum one week even for a single day.
	assert.Equal(t, 3, EstimateExpected(3, date(2024, time.January, 1), date(2024, time.January, 1)))
	assert.Equal(t, 0, EstimateExpected(0, date(2024, time.January, 1), date(2024, time.January, 31)))
	assert.Equal(t, 0, EstimateExpected(1, date(2024, time.January, 31), date(2024, time.January, 1)))
}

func TestMonthsSpanned(t *testing.T) {
	end := date(2024, time.January, 29)
	iv := Interval{Start: date(2023, time.November, 20), End: &end}

	months := MonthsSpanned(iv, date(2024, time.February, 10))
	require.Len(t, months, 4)
	assert.Equal(t, date(2023, time.November, 1), months[0])
	assert.Equal(t, date(2024, time.February, 1), months[3])
}
