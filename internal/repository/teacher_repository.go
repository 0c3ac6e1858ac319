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

// TeacherRepository handles persistence of teachers and rooms.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs the repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers for a tenant.
func (r *TeacherRepository) List(ctx context.Context, tenantID string, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	conditions := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}

	if filter.Query != "" {
		conditions = append(conditions, fmt.Sprintf("full_name ILIKE $%d", len(args)+1))
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

	query := fmt.Sprintf(`SELECT id, tenant_id, full_name, email, phone, is_active, created_at
        FROM teachers%s ORDER BY full_name LIMIT %d OFFSET %d`, clause, limit, offset)

	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM teachers" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// FindByID returns a teacher by id within a tenant.
func (r *TeacherRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Teacher, error) {
	const query = `SELECT id, tenant_id, full_name, email, phone, is_active, created_at
        FROM teachers WHERE tenant_id = $1 AND id = $2`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, tenantID, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// Create persists a new teacher record.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teachers (id, tenant_id, full_name, email, phone, is_active, created_at)
        VALUES (:id, :tenant_id, :full_name, :email, :phone, :is_active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// ListRooms returns all rooms for a tenant.
func (r *TeacherRepository) ListRooms(ctx context.Context, tenantID string) ([]models.Room, error) {
	const query = `SELECT id, tenant_id, name, capacity, notes FROM rooms WHERE tenant_id = $1 ORDER BY name`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, tenantID); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}
