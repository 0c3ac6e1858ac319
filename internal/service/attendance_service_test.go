package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/studioflow/pms-api/pkg/errors"

	"github.com/studioflow/pms-api/internal/models"
)

type mockAttendanceRepo struct {
	rows      []models.Attendance
	marked    []models.Attendance
	unmarked  int
	listCalls int
}

func (m *mockAttendanceRepo) Mark(ctx context.Context, attendance *models.Attendance) error {
	m.marked = append(m.marked, *attendance)
	m.rows = append(m.rows, *attendance)
	return nil
}

func (m *mockAttendanceRepo) Unmark(ctx context.Context, tenantID, studentID, courseID string, date time.Time) error {
	for i, row := range m.rows {
		if row.StudentID == studentID && row.CourseID == courseID && row.Date.Equal(date) {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			m.unmarked++
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockAttendanceRepo) ListRange(ctx context.Context, tenantID, studentID string, from, to time.Time) ([]models.Attendance, error) {
	m.listCalls++
	var out []models.Attendance
	for _, row := range m.rows {
		if row.StudentID != studentID || row.Date.Before(from) || row.Date.After(to) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

type mockEnrollmentLister struct {
	enrollments []models.Enrollment
}

func (m *mockEnrollmentLister) ListByStudent(ctx context.Context, tenantID, studentID string) ([]models.Enrollment, error) {
	var out []models.Enrollment
	for _, e := range m.enrollments {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockSlotLister struct {
	slots map[string][]models.CourseSlot
}

func (m *mockSlotLister) ListSlots(ctx context.Context, courseIDs []string) (map[string][]models.CourseSlot, error) {
	out := make(map[string][]models.CourseSlot)
	for _, id := range courseIDs {
		out[id] = m.slots[id]
	}
	return out, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newAttendanceFixture() (*AttendanceService, *mockAttendanceRepo) {
	end := day(2024, time.January, 31)
	repo := &mockAttendanceRepo{}
	enrollments := &mockEnrollmentLister{enrollments: []models.Enrollment{
		{ID: "enr-1", StudentID: "stu-1", CourseID: "crs-1", StartDate: day(2024, time.January, 1), EndDate: &end, Active: true},
	}}
	// Course meets Mondays (0) and Wednesdays (2).
	slots := &mockSlotLister{slots: map[string][]models.CourseSlot{
		"crs-1": {
			{CourseID: "crs-1", Position: 1, DayOfWeek: 0, StartTime: "17:00", EndTime: "18:00"},
			{CourseID: "crs-1", Position: 2, DayOfWeek: 2, StartTime: "17:00", EndTime: "18:00"},
		},
	}}
	return NewAttendanceService(repo, enrollments, slots, nil, time.Minute, nil, nil), repo
}

func TestAttendanceCalendarExpectedDays(t *testing.T) {
	svc, repo := newAttendanceFixture()
	repo.rows = []models.Attendance{
		{StudentID: "stu-1", CourseID: "crs-1", Date: day(2024, time.January, 8)},
	}

	calendar, err := svc.Calendar(context.Background(), "tn-1", "stu-1", 2024, time.January)
	require.NoError(t, err)
	require.Len(t, calendar.Days, 31)
	assert.Equal(t, 5, calendar.Weeks)

	// January 2024: Mondays are 1, 8, 15, 22, 29; Wednesdays 3, 10, 17, 24, 31.
	expectedDays := 0
	for _, entry := range calendar.Days {
		if len(entry.ExpectedCourseIDs) > 0 {
			expectedDays++
			assert.Equal(t, []string{"crs-1"}, entry.ExpectedCourseIDs)
		}
	}
	assert.Equal(t, 10, expectedDays)

	jan8 := calendar.Days[7]
	assert.Equal(t, []string{"crs-1"}, jan8.AttendedCourseIDs)
	jan9 := calendar.Days[8]
	assert.Empty(t, jan9.ExpectedCourseIDs)
	assert.Empty(t, jan9.AttendedCourseIDs)
}

func TestAttendanceCalendarRespectsEnrollmentRange(t *testing.T) {
	svc, _ := newAttendanceFixture()

	// February is outside the enrollment's range: nothing expected.
	calendar, err := svc.Calendar(context.Background(), "tn-1", "stu-1", 2024, time.February)
	require.NoError(t, err)
	for _, entry := range calendar.Days {
		assert.Empty(t, entry.ExpectedCourseIDs)
	}
}

func TestAttendanceCalendarMemoises(t *testing.T) {
	svc, repo := newAttendanceFixture()

	_, err := svc.Calendar(context.Background(), "tn-1", "stu-1", 2024, time.January)
	require.NoError(t, err)
	_, err = svc.Calendar(context.Background(), "tn-1", "stu-1", 2024, time.January)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)
}

func TestAttendanceMarkInvalidatesMemo(t *testing.T) {
	svc, repo := newAttendanceFixture()

	before, err := svc.Calendar(context.Background(), "tn-1", "stu-1", 2024, time.January)
	require.NoError(t, err)
	assert.Empty(t, before.Days[0].AttendedCourseIDs)

	_, err = svc.Mark(context.Background(), "tn-1", MarkAttendanceRequest{
		StudentID: "stu-1",
		CourseID:  "crs-1",
		Date:      day(2024, time.January, 1),
	})
	require.NoError(t, err)

	after, err := svc.Calendar(context.Background(), "tn-1", "stu-1", 2024, time.January)
	require.NoError(t, err)
	assert.Equal(t, []string{"crs-1"}, after.Days[0].AttendedCourseIDs)
	assert.Equal(t, 2, repo.listCalls)
}

func TestAttendanceUnmarkMissingReturnsNotFound(t *testing.T) {
	svc, _ := newAttendanceFixture()

	err := svc.Unmark(context.Background(), "tn-1", MarkAttendanceRequest{
		StudentID: "stu-1",
		CourseID:  "crs-1",
		Date:      day(2024, time.January, 10),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
