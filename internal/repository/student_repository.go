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

// StudentRepository handles persistence of students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, tenant_id, first_name, last_name, email, phone, gender, birthdate, joined_at, is_active, photo_key, created_at, updated_at`

// List returns students for a tenant filtered by the provided criteria.
func (r *StudentRepository) List(ctx context.Context, tenantID string, filter models.StudentFilter) ([]models.Student, int, error) {
	conditions := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}

	if filter.Query != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)", idx, idx, idx, idx))
		args = append(args, "%"+filter.Query+"%")
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	clause := " WHERE " + strings.Join(conditions, " AND ")

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM students%s ORDER BY last_name, first_name LIMIT %d OFFSET %d`,
		studentColumns, clause, limit, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM students" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID returns a student by id within a tenant.
func (r *StudentRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE tenant_id = $1 AND id = $2`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, tenantID, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create persists a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.JoinedAt.IsZero() {
		student.JoinedAt = now
	}
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, tenant_id, first_name, last_name, email, phone, gender, birthdate, joined_at, is_active, photo_key, created_at, updated_at)
        VALUES (:id, :tenant_id, :first_name, :last_name, :email, :phone, :gender, :birthdate, :joined_at, :is_active, :photo_key, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of a student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET first_name = :first_name, last_name = :last_name, email = :email,
        phone = :phone, gender = :gender, birthdate = :birthdate, is_active = :is_active,
        photo_key = :photo_key, updated_at = :updated_at
        WHERE tenant_id = :tenant_id AND id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student row.
func (r *StudentRepository) Delete(ctx context.Context, tenantID, id string) error {
	const query = `DELETE FROM students WHERE tenant_id = $1 AND id = $2`
	if _, err := r.db.ExecContext(ctx, query, tenantID, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// SetPhotoKey stores the object-store key of the student's photo.
func (r *StudentRepository) SetPhotoKey(ctx context.Context, tenantID, id string, key *string) error {
	const query = `UPDATE students SET photo_key = $3, updated_at = $4 WHERE tenant_id = $1 AND id = $2`
	if _, err := r.db.ExecContext(ctx, query, tenantID, id, key, time.Now().UTC()); err != nil {
		return fmt.Errorf("set student photo: %w", err)
	}
	return nil
}

// ListByIDs loads a set of students keyed by id.
func (r *StudentRepository) ListByIDs(ctx context.Context, tenantID string, ids []string) (map[string]models.Student, error) {
	result := make(map[string]models.Student, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`SELECT %s FROM students WHERE tenant_id = ? AND id IN (?)`, studentColumns), tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("build student id query: %w", err)
	}
	query = r.db.Rebind(query)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("load students by ids: %w", err)
	}
	for _, s := range students {
		result[s.ID] = s
	}
	return result, nil
}
