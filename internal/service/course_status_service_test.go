package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studioflow/pms-api/internal/billing"
	"github.com/studioflow/pms-api/internal/models"
)

type mockCourseFinder struct {
	courses map[string]models.CourseDetail
}

func (m *mockCourseFinder) FindByID(ctx context.Context, tenantID, id string) (*models.CourseDetail, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseFinder) List(ctx context.Context, tenantID string, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	ids := make([]string, 0, len(m.courses))
	for id := range m.courses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]models.CourseDetail, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.courses[id])
	}
	return out, len(out), nil
}

type mockCourseEnrollments struct {
	enrollments []models.Enrollment
}

func (m *mockCourseEnrollments) ListByCourse(ctx context.Context, tenantID, courseID string) ([]models.Enrollment, error) {
	var out []models.Enrollment
	for _, e := range m.enrollments {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockCoursePayments struct {
	payments []models.Payment
}

func (m *mockCoursePayments) ListByCourse(ctx context.Context, tenantID, courseID string) ([]models.Payment, error) {
	return m.payments, nil
}

type mockStudentBatch struct {
	students map[string]models.Student
}

func (m *mockStudentBatch) ListByIDs(ctx context.Context, tenantID string, ids []string) (map[string]models.Student, error) {
	out := make(map[string]models.Student)
	for _, id := range ids {
		if s, ok := m.students[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

type mockCalendars struct {
	months  map[string][]models.AttendanceDay
	failing map[string]bool
}

func (m *mockCalendars) Calendar(ctx context.Context, tenantID, studentID string, year int, month time.Month) (*models.AttendanceCalendar, error) {
	key := fmt.Sprintf("%s:%04d-%02d", studentID, year, int(month))
	if m.failing[key] {
		return nil, errors.New("calendar unavailable")
	}
	return &models.AttendanceCalendar{
		StudentID: studentID,
		Year:      year,
		Month:     int(month),
		Days:      m.months[key],
	}, nil
}

// mondayCalendar builds a month where the course expects the student every
// Monday and the student attended the listed days.
func mondayCalendar(courseID string, year int, month time.Month, attended ...int) []models.AttendanceDay {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	attendedSet := make(map[int]bool, len(attended))
	for _, d := range attended {
		attendedSet[d] = true
	}
	var days []models.AttendanceDay
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		entry := models.AttendanceDay{Date: d}
		if billing.MondayIndex(d) == 0 {
			entry.ExpectedCourseIDs = []string{courseID}
		}
		if attendedSet[d.Day()] {
			entry.AttendedCourseIDs = []string{courseID}
		}
		days = append(days, entry)
	}
	return days
}

func newStatusFixture(payments []models.Payment) (*CourseStatusService, *mockCalendars) {
	end := day(2024, time.January, 31)
	birthdate := day(1990, time.February, 5)
	courses := &mockCourseFinder{courses: map[string]models.CourseDetail{
		"crs-1": {Course: models.Course{ID: "crs-1", Name: "Ballet II", ClassesPerWeek: 1}},
	}}
	enrollments := &mockCourseEnrollments{enrollments: []models.Enrollment{
		{ID: "enr-1", StudentID: "stu-1", CourseID: "crs-1", StartDate: day(2024, time.January, 1), EndDate: &end, Active: true},
	}}
	students := &mockStudentBatch{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", FirstName: "Ana", LastName: "Flores", Birthdate: &birthdate, Active: true},
	}}
	calendars := &mockCalendars{
		months: map[string][]models.AttendanceDay{
			"stu-1:2024-01": mondayCalendar("crs-1", 2024, time.January, 1, 8, 15),
			"stu-1:2024-02": mondayCalendar("crs-1", 2024, time.February, 5),
		},
		failing: map[string]bool{},
	}

	svc := NewCourseStatusService(courses, enrollments, &mockCoursePayments{payments: payments}, students, calendars, nil, time.Minute, 6, time.UTC, nil)
	svc.now = func() time.Time { return day(2024, time.February, 5) }
	return svc, calendars
}

func TestCourseStatusTalliesAndPaymentDue(t *testing.T) {
	svc, _ := newStatusFixture(nil)

	status, err := svc.Compose(context.Background(), "tn-1", "crs-1")
	require.NoError(t, err)
	require.Len(t, status.Roster, 1)

	row := status.Roster[0]
	// January 2024 has 5 Mondays; 3 attended in period, Feb 5 is past the end.
	assert.Equal(t, 5, row.Expected)
	assert.Equal(t, 3, row.Attended)
	assert.Equal(t, 1, row.ExtraOutside)
	assert.Equal(t, string(billing.StatusPaymentDue), row.PaymentStatus)
	assert.True(t, row.BirthdayToday)
}

func TestCourseStatusRenewalDueAfterEnd(t *testing.T) {
	courseID := "crs-1"
	svc, _ := newStatusFixture([]models.Payment{
		{ID: "pay-1", StudentID: "stu-1", CourseID: &courseID, Type: models.PaymentTypeMonthly, PaymentDate: day(2024, time.January, 5)},
	})

	status, err := svc.Compose(context.Background(), "tn-1", "crs-1")
	require.NoError(t, err)
	require.Len(t, status.Roster, 1)
	assert.Equal(t, string(billing.StatusRenewalDue), status.Roster[0].PaymentStatus)
}

func TestCourseStatusSkipsFailingMonths(t *testing.T) {
	svc, calendars := newStatusFixture(nil)
	calendars.failing["stu-1:2024-02"] = true

	status, err := svc.Compose(context.Background(), "tn-1", "crs-1")
	require.NoError(t, err)
	require.Len(t, status.Roster, 1)

	// February could not be loaded: the extra attendance is lost but the
	// January tallies survive.
	row := status.Roster[0]
	assert.Equal(t, 5, row.Expected)
	assert.Equal(t, 3, row.Attended)
	assert.Equal(t, 0, row.ExtraOutside)
}

func TestCourseStatusEstimatesWhenNoMonthLoads(t *testing.T) {
	svc, calendars := newStatusFixture(nil)
	calendars.failing["stu-1:2024-01"] = true
	calendars.failing["stu-1:2024-02"] = true

	status, err := svc.Compose(context.Background(), "tn-1", "crs-1")
	require.NoError(t, err)
	require.Len(t, status.Roster, 1)

	// With every month unavailable the expected count falls back to the
	// schedule estimate: 1 class/week over Jan 1-31 is 5 weeks.
	row := status.Roster[0]
	assert.Equal(t, 5, row.Expected)
	assert.Equal(t, 0, row.Attended)
	assert.Equal(t, 0, row.ExtraOutside)
}

func TestCourseStatusDedupesReenrolledStudent(t *testing.T) {
	svc, _ := newStatusFixture(nil)
	oldEnd := day(2023, time.November, 30)
	enrollments := svc.enrollments.(*mockCourseEnrollments)
	enrollments.enrollments = append(enrollments.enrollments, models.Enrollment{
		ID: "enr-0", StudentID: "stu-1", CourseID: "crs-1",
		StartDate: day(2023, time.November, 1), EndDate: &oldEnd, Active: false,
	})

	status, err := svc.Compose(context.Background(), "tn-1", "crs-1")
	require.NoError(t, err)
	require.Len(t, status.Roster, 1)
	assert.Equal(t, "enr-1", status.Roster[0].Enrollment.ID)
}

func TestCourseStatusBoardFiltersByAttendanceDays(t *testing.T) {
	svc, _ := newStatusFixture(nil)

	board, pagination, err := svc.ComposeAll(context.Background(), "tn-1", models.CourseStatusFilter{Limit: 20})
	require.NoError(t, err)
	require.Len(t, board, 1)
	require.Len(t, board[0].Roster, 1)
	assert.Equal(t, 1, pagination.TotalCount)

	minDays := 4
	board, _, err = svc.ComposeAll(context.Background(), "tn-1", models.CourseStatusFilter{AttendanceDays: &minDays, Limit: 20})
	require.NoError(t, err)
	require.Len(t, board, 1)
	// Only 3 attended days in the period, below the threshold.
	assert.Empty(t, board[0].Roster)
}

func TestCourseStatusUnknownCourse(t *testing.T) {
	svc, _ := newStatusFixture(nil)

	_, err := svc.Compose(context.Background(), "tn-1", "crs-404")
	require.Error(t, err)
}
