package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/studioflow/pms-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func testEnrollment() *models.Enrollment {
	return &models.Enrollment{
		TenantID:  "tn-1",
		StudentID: "stu-1",
		CourseID:  "crs-1",
		StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Active:    true,
	}
}

func TestEnrollmentRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "tenant_id", "student_id", "course_id", "start_date", "end_date", "is_active", "created_at", "updated_at"}).
		AddRow("enr-2", "tn-1", "stu-1", "crs-1", now, nil, true, now, now).
		AddRow("enr-1", "tn-1", "stu-1", "crs-1", now.AddDate(0, -1, 0), now, false, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.tenant_id = $1 AND e.student_id = $2")).
		WithArgs("tn-1", "stu-1").
		WillReturnRows(rows)

	enrollments, err := repo.ListByStudent(context.Background(), "tn-1", "stu-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 2)
	require.Equal(t, "enr-2", enrollments[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "tenant_id", "student_id", "course_id", "start_date", "end_date", "is_active", "created_at", "updated_at"}).
		AddRow("enr-1", "tn-1", "stu-1", "crs-1", now, nil, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.tenant_id = $1 AND e.id = $2")).
		WithArgs("tn-1", "enr-1").
		WillReturnRows(rows)

	enrollment, err := repo.FindByID(context.Background(), "tn-1", "enr-1")
	require.NoError(t, err)
	require.Equal(t, "stu-1", enrollment.StudentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnResult(sqlmock.NewResult(1, 1))

	enrollment := testEnrollment()
	require.NoError(t, repo.Create(context.Background(), enrollment))
	require.NotEmpty(t, enrollment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
