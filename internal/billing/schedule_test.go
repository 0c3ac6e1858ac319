package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCountWeekdayOccurrences(t *testing.T) {
	cases := []struct {
		name    string
		weekday int
		start   time.Time
		end     time.Time
		want    int
	}{
		{"saturdays in january 2024", 5, date(2024, time.January, 1), date(2024, time.January, 31), 4},
		{"mondays in january 2024", 0, date(2024, time.January, 1), date(2024, time.January, 31), 5},
		{"single matching day", 0, date(2024, time.January, 1), date(2024, time.January, 1), 1},
		{"single non-matching day", 3, date(2024, time.January, 1), date(2024, time.January, 1), 0},
		{"reversed range", 0, date(2024, time.January, 31), date(2024, time.January, 1), 0},
		{"weekday out of range", 7, date(2024, time.January, 1), date(2024, time.January, 31), 0},
		{"february leap year thursdays", 3, date(2024, time.February, 1), date(2024, time.February, 29), 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CountWeekdayOccurrences(tc.weekday, tc.start, tc.end))
		})
	}
}

func TestMondayIndex(t *testing.T) {
	// 2024-01-01 is a Monday, 2024-01-07 a Sunday.
	assert.Equal(t, 0, MondayIndex(date(2024, time.January, 1)))
	assert.Equal(t, 6, MondayIndex(date(2024, time.January, 7)))
}

func TestAlignToWeekday(t *testing.T) {
	// Align Tuesday Jan 2nd to the next Saturday (weekday 5).
	assert.Equal(t, date(2024, time.January, 6), AlignToWeekday(date(2024, time.January, 2), 5))
	// Already on target.
	assert.Equal(t, date(2024, time.January, 1), AlignToWeekday(date(2024, time.January, 1), 0))
	// Out of range leaves the date alone.
	assert.Equal(t, date(2024, time.January, 2), AlignToWeekday(date(2024, time.January, 2), -1))
}

func TestEndByOccurrences(t *testing.T) {
	// Four Mondays starting Jan 1st end on Jan 22nd.
	assert.Equal(t, date(2024, time.January, 22), EndByOccurrences(date(2024, time.January, 1), 0, 4))
	// n<=1 collapses to the aligned start.
	assert.Equal(t, date(2024, time.January, 1), EndByOccurrences(date(2024, time.January, 1), 0, 0))
}

func TestWeeksInMonth(t *testing.T) {
	assert.Equal(t, 5, WeeksInMonth(2024, time.January))
	assert.Equal(t, 4, WeeksInMonth(2024, time.March))
}
