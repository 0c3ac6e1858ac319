package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/studioflow/pms-api/internal/models"
)

func TestPaymentRepositoryListFiltersByDateRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "student_id", "course_id", "enrollment_id", "amount", "method", "type", "payment_date", "reference", "notes", "created_at", "student_name", "course_name"}).
		AddRow("pay-1", "tn-1", "stu-1", "crs-1", nil, 750.0, models.PaymentMethodCash, models.PaymentTypeMonthly, from, nil, nil, now, "Ana Flores", "Ballet II")
	mock.ExpectQuery(regexp.QuoteMeta("p.payment_date >= $2")).
		WithArgs("tn-1", from, to).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("tn-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	payments, total, err := repo.List(context.Background(), "tn-1", models.PaymentFilter{DateFrom: &from, DateTo: &to})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, payments, 1)
	require.Equal(t, "Ana Flores", payments[0].StudentName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryTotalsByTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	rows := sqlmock.NewRows([]string{"teacher_id", "teacher_name", "payment_count", "total"}).
		AddRow("tch-1", "Marta Ruiz", 12, 9000.0).
		AddRow("tch-2", "Luis Vega", 4, 3000.0)
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY c.teacher_id, t.full_name")).
		WithArgs("tn-1").
		WillReturnRows(rows)

	summaries, err := repo.TotalsByTeacher(context.Background(), "tn-1", nil, nil)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, 9000.0, summaries[0].Total)
	require.NoError(t, mock.ExpectationsWereMet())
}
