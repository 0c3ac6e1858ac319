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

// CourseRepository handles persistence of courses and their weekly slots.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses with teacher/room names, slots attached.
func (r *CourseRepository) List(ctx context.Context, tenantID string, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	base := `FROM courses c
LEFT JOIN teachers t ON t.id = c.teacher_id
LEFT JOIN rooms rm ON rm.id = c.room_id`
	conditions := []string{"c.tenant_id = $1"}
	args := []interface{}{tenantID}

	if filter.Query != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(c.name ILIKE $%d OR c.level ILIKE $%d)", idx, idx))
		args = append(args, "%"+filter.Query+"%")
	}
	if filter.TeacherQuery != "" {
		conditions = append(conditions, fmt.Sprintf("t.full_name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.TeacherQuery+"%")
	}
	if filter.CourseType != "" {
		conditions = append(conditions, fmt.Sprintf("c.course_type = $%d", len(args)+1))
		args = append(args, filter.CourseType)
	}
	if filter.DayOfWeek != nil {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM course_slots cs WHERE cs.course_id = c.id AND cs.day_of_week = $%d)", len(args)+1))
		args = append(args, *filter.DayOfWeek)
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

	query := fmt.Sprintf(`SELECT c.id, c.tenant_id, c.name, c.level, c.course_type, c.price, c.class_price,
        c.classes_per_week, c.teacher_id, c.room_id, c.start_date, c.created_at, c.updated_at,
        t.full_name AS teacher_name, rm.name AS room_name
        %s ORDER BY c.name LIMIT %d OFFSET %d`, base+clause, limit, offset)

	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	if err := r.attachSlots(ctx, courses); err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

// FindByID returns a course with teacher/room names and slots.
func (r *CourseRepository) FindByID(ctx context.Context, tenantID, id string) (*models.CourseDetail, error) {
	const query = `SELECT c.id, c.tenant_id, c.name, c.level, c.course_type, c.price, c.class_price,
        c.classes_per_week, c.teacher_id, c.room_id, c.start_date, c.created_at, c.updated_at,
        t.full_name AS teacher_name, rm.name AS room_name
        FROM courses c
        LEFT JOIN teachers t ON t.id = c.teacher_id
        LEFT JOIN rooms rm ON rm.id = c.room_id
        WHERE c.tenant_id = $1 AND c.id = $2`
	var course models.CourseDetail
	if err := r.db.GetContext(ctx, &course, query, tenantID, id); err != nil {
		return nil, err
	}
	slots, err := r.ListSlots(ctx, []string{course.ID})
	if err != nil {
		return nil, err
	}
	course.Slots = slots[course.ID]
	return &course, nil
}

// Create persists a course and its slots.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, tenant_id, name, level, course_type, price, class_price, classes_per_week, teacher_id, room_id, start_date, created_at, updated_at)
        VALUES (:id, :tenant_id, :name, :level, :course_type, :price, :class_price, :classes_per_week, :teacher_id, :room_id, :start_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return r.replaceSlots(ctx, course.ID, course.Slots)
}

// Update replaces the mutable fields of a course and rewrites its slots.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET name = :name, level = :level, course_type = :course_type,
        price = :price, class_price = :class_price, classes_per_week = :classes_per_week,
        teacher_id = :teacher_id, room_id = :room_id, start_date = :start_date, updated_at = :updated_at
        WHERE tenant_id = :tenant_id AND id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return r.replaceSlots(ctx, course.ID, course.Slots)
}

// Delete removes a course and its slots.
func (r *CourseRepository) Delete(ctx context.Context, tenantID, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM course_slots WHERE course_id = $1`, id); err != nil {
		return fmt.Errorf("delete course slots: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE tenant_id = $1 AND id = $2`, tenantID, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

// ListSlots loads slots for a set of courses grouped by course id.
func (r *CourseRepository) ListSlots(ctx context.Context, courseIDs []string) (map[string][]models.CourseSlot, error) {
	result := make(map[string][]models.CourseSlot, len(courseIDs))
	if len(courseIDs) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(`SELECT id, course_id, position, day_of_week, start_time, end_time
        FROM course_slots WHERE course_id IN (?) ORDER BY course_id, position`, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("build slot query: %w", err)
	}
	query = r.db.Rebind(query)
	var slots []models.CourseSlot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, fmt.Errorf("list course slots: %w", err)
	}
	for _, slot := range slots {
		result[slot.CourseID] = append(result[slot.CourseID], slot)
	}
	return result, nil
}

func (r *CourseRepository) attachSlots(ctx context.Context, courses []models.CourseDetail) error {
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	slots, err := r.ListSlots(ctx, ids)
	if err != nil {
		return err
	}
	for i := range courses {
		courses[i].Slots = slots[courses[i].ID]
	}
	return nil
}

func (r *CourseRepository) replaceSlots(ctx context.Context, courseID string, slots []models.CourseSlot) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM course_slots WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("clear course slots: %w", err)
	}
	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		slot.CourseID = courseID
		if slot.Position == 0 {
			slot.Position = i + 1
		}
		const query = `INSERT INTO course_slots (id, course_id, position, day_of_week, start_time, end_time)
            VALUES (:id, :course_id, :position, :day_of_week, :start_time, :end_time)`
		if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
			return fmt.Errorf("insert course slot: %w", err)
		}
	}
	return nil
}
