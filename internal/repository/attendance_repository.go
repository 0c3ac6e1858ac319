package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studioflow/pms-api/internal/models"
)

// AttendanceRepository handles persistence of attendance marks.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Mark records an attendance for (student, course, date). Re-marking the same
// day is a no-op.
func (r *AttendanceRepository) Mark(ctx context.Context, attendance *models.Attendance) error {
	if attendance.ID == "" {
		attendance.ID = uuid.NewString()
	}
	if attendance.CreatedAt.IsZero() {
		attendance.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendances (id, tenant_id, student_id, course_id, date, created_at)
        VALUES (:id, :tenant_id, :student_id, :course_id, :date, :created_at)
        ON CONFLICT (tenant_id, student_id, course_id, date) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, attendance); err != nil {
		return fmt.Errorf("mark attendance: %w", err)
	}
	return nil
}

// Unmark removes the attendance for (student, course, date). Returns
// sql.ErrNoRows when nothing was recorded.
func (r *AttendanceRepository) Unmark(ctx context.Context, tenantID, studentID, courseID string, date time.Time) error {
	const query = `DELETE FROM attendances WHERE tenant_id = $1 AND student_id = $2 AND course_id = $3 AND date = $4`
	result, err := r.db.ExecContext(ctx, query, tenantID, studentID, courseID, date)
	if err != nil {
		return fmt.Errorf("unmark attendance: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListRange returns a student's attendance rows with date in [from, to].
func (r *AttendanceRepository) ListRange(ctx context.Context, tenantID, studentID string, from, to time.Time) ([]models.Attendance, error) {
	const query = `SELECT id, tenant_id, student_id, course_id, date, created_at FROM attendances
        WHERE tenant_id = $1 AND student_id = $2 AND date >= $3 AND date <= $4
        ORDER BY date, course_id`
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query, tenantID, studentID, from, to); err != nil {
		return nil, fmt.Errorf("list attendance range: %w", err)
	}
	return rows, nil
}
