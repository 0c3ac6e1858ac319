package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studioflow/pms-api/internal/models"
)

// PaymentRepository handles persistence of payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `p.id, p.tenant_id, p.student_id, p.course_id, p.enrollment_id, p.amount, p.method, p.type, p.payment_date, p.reference, p.notes, p.created_at`

// List returns payments filtered by the provided criteria.
func (r *PaymentRepository) List(ctx context.Context, tenantID string, filter models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	base := `FROM payments p
LEFT JOIN students s ON s.id = p.student_id
LEFT JOIN courses c ON c.id = p.course_id`
	conditions := []string{"p.tenant_id = $1"}
	args := []interface{}{tenantID}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("p.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("p.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.StudentQuery != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(s.first_name ILIKE $%d OR s.last_name ILIKE $%d)", idx, idx))
		args = append(args, "%"+filter.StudentQuery+"%")
	}
	if filter.CourseQuery != "" {
		conditions = append(conditions, fmt.Sprintf("c.name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.CourseQuery+"%")
	}
	if filter.Query != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(s.first_name ILIKE $%d OR s.last_name ILIKE $%d OR c.name ILIKE $%d OR p.reference ILIKE $%d)", idx, idx, idx, idx))
		args = append(args, "%"+filter.Query+"%")
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("p.type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Method != "" {
		conditions = append(conditions, fmt.Sprintf("p.method = $%d", len(args)+1))
		args = append(args, filter.Method)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("p.payment_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("p.payment_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	clause := " WHERE " + strings.Join(conditions, " AND ")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s,
        s.first_name || ' ' || s.last_name AS student_name, c.name AS course_name
        %s ORDER BY p.payment_date DESC, p.id LIMIT %d OFFSET %d`,
		paymentColumns, base+clause, limit, offset)

	var payments []models.PaymentDetail
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return payments, total, nil
}

// FindByID returns a payment by id within a tenant.
func (r *PaymentRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments p WHERE p.tenant_id = $1 AND p.id = $2`, paymentColumns)
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, tenantID, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByStudent returns all payments for a student, latest first.
func (r *PaymentRepository) ListByStudent(ctx context.Context, tenantID, studentID string) ([]models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments p
        WHERE p.tenant_id = $1 AND p.student_id = $2 ORDER BY p.payment_date DESC, p.id`, paymentColumns)
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, tenantID, studentID); err != nil {
		return nil, fmt.Errorf("list student payments: %w", err)
	}
	return payments, nil
}

// ListByCourse returns all payments recorded against a course.
func (r *PaymentRepository) ListByCourse(ctx context.Context, tenantID, courseID string) ([]models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments p
        WHERE p.tenant_id = $1 AND p.course_id = $2 ORDER BY p.payment_date DESC, p.id`, paymentColumns)
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, tenantID, courseID); err != nil {
		return nil, fmt.Errorf("list course payments: %w", err)
	}
	return payments, nil
}

// Create persists a new payment record.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO payments (id, tenant_id, student_id, course_id, enrollment_id, amount, method, type, payment_date, reference, notes, created_at)
        VALUES (:id, :tenant_id, :student_id, :course_id, :enrollment_id, :amount, :method, :type, :payment_date, :reference, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of a payment.
func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	const query = `UPDATE payments SET course_id = :course_id, enrollment_id = :enrollment_id,
        amount = :amount, method = :method, type = :type, payment_date = :payment_date,
        reference = :reference, notes = :notes
        WHERE tenant_id = :tenant_id AND id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	return nil
}

// Delete removes a payment row.
func (r *PaymentRepository) Delete(ctx context.Context, tenantID, id string) error {
	const query = `DELETE FROM payments WHERE tenant_id = $1 AND id = $2`
	if _, err := r.db.ExecContext(ctx, query, tenantID, id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return nil
}

// TotalsByTeacher aggregates payment totals per teacher over an optional date range.
func (r *PaymentRepository) TotalsByTeacher(ctx context.Context, tenantID string, from, to *time.Time) ([]models.TeacherPaymentSummary, error) {
	conditions := []string{"p.tenant_id = $1", "c.teacher_id IS NOT NULL"}
	args := []interface{}{tenantID}
	if from != nil {
		conditions = append(conditions, fmt.Sprintf("p.payment_date >= $%d", len(args)+1))
		args = append(args, *from)
	}
	if to != nil {
		conditions = append(conditions, fmt.Sprintf("p.payment_date <= $%d", len(args)+1))
		args = append(args, *to)
	}

	query := fmt.Sprintf(`SELECT c.teacher_id, t.full_name AS teacher_name,
        COUNT(*) AS payment_count, COALESCE(SUM(p.amount), 0) AS total
        FROM payments p
        JOIN courses c ON c.id = p.course_id
        JOIN teachers t ON t.id = c.teacher_id
        WHERE %s
        GROUP BY c.teacher_id, t.full_name
        ORDER BY total DESC`, strings.Join(conditions, " AND "))

	var summaries []models.TeacherPaymentSummary
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, fmt.Errorf("aggregate payments by teacher: %w", err)
	}
	return summaries, nil
}
