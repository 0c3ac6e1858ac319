package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studioflow/pms-api/internal/billing"
	"github.com/studioflow/pms-api/internal/models"
)

type mockStudentFinder struct {
	students map[string]models.Student
}

func (m *mockStudentFinder) FindByID(ctx context.Context, tenantID, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockStudentPayments struct {
	payments []models.Payment
}

func (m *mockStudentPayments) ListByStudent(ctx context.Context, tenantID, studentID string) ([]models.Payment, error) {
	return m.payments, nil
}

func newPortalFixture(payments []models.Payment) *PortalService {
	end := day(2024, time.January, 31)
	students := &mockStudentFinder{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", FirstName: "Ana", LastName: "Flores", Active: true},
	}}
	enrollments := &mockEnrollmentLister{enrollments: []models.Enrollment{
		{ID: "enr-1", StudentID: "stu-1", CourseID: "crs-1", StartDate: day(2024, time.January, 1), EndDate: &end, Active: true},
	}}
	courses := &mockCourseFinder{courses: map[string]models.CourseDetail{
		"crs-1": {Course: models.Course{ID: "crs-1", Name: "Ballet II", ClassesPerWeek: 1}},
	}}
	calendars := &mockCalendars{
		months: map[string][]models.AttendanceDay{
			"stu-1:2024-01": mondayCalendar("crs-1", 2024, time.January, 1, 8),
		},
		failing: map[string]bool{},
	}

	svc := NewPortalService(students, enrollments, &mockStudentPayments{payments: payments}, courses, calendars, nil, nil, time.Minute, 6, time.UTC, nil)
	svc.now = func() time.Time { return day(2024, time.January, 20) }
	return svc
}

func TestPortalComposesCoursesAndTotals(t *testing.T) {
	courseID := "crs-1"
	enrollmentID := "enr-1"
	svc := newPortalFixture([]models.Payment{
		{ID: "pay-2", StudentID: "stu-1", CourseID: &courseID, EnrollmentID: &enrollmentID, Amount: 750, Type: models.PaymentTypeMonthly, PaymentDate: day(2024, time.January, 3)},
		{ID: "pay-1", StudentID: "stu-1", Amount: 120, Type: models.PaymentTypeSingleClass, PaymentDate: day(2023, time.December, 12)},
	})

	portal, err := svc.Portal(context.Background(), "tn-1", "stu-1")
	require.NoError(t, err)

	assert.Equal(t, "Ana Flores", portal.Student.FullName())
	assert.Equal(t, 870.0, portal.TotalPaid)
	require.Len(t, portal.Courses, 1)

	course := portal.Courses[0]
	assert.Equal(t, "Ballet II", course.Course.Name)
	assert.Equal(t, string(billing.StatusEnrolled), course.Status)
	assert.Equal(t, 5, course.Expected)
	assert.Equal(t, 2, course.Attended)

	require.NotNil(t, course.Period)
	assert.Equal(t, day(2024, time.January, 1), course.Period.Start)
	require.NotNil(t, course.Period.End)
	assert.Equal(t, day(2024, time.January, 31), *course.Period.End)

	require.Len(t, portal.Enrollments, 1)
	assert.Equal(t, "Ballet II", portal.Enrollments[0].CourseName)
}

func TestPortalWithoutPaymentsFlagsPaymentDue(t *testing.T) {
	svc := newPortalFixture(nil)

	portal, err := svc.Portal(context.Background(), "tn-1", "stu-1")
	require.NoError(t, err)
	require.Len(t, portal.Courses, 1)
	assert.Equal(t, string(billing.StatusPaymentDue), portal.Courses[0].Status)
	assert.Nil(t, portal.Courses[0].Period)
	assert.Zero(t, portal.TotalPaid)
}

func TestPortalUnknownStudent(t *testing.T) {
	svc := newPortalFixture(nil)

	_, err := svc.Portal(context.Background(), "tn-1", "stu-404")
	require.Error(t, err)
}
