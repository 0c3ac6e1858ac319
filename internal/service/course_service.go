package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studioflow/pms-api/internal/models"
	appErrors "github.com/studioflow/pms-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, tenantID string, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	FindByID(ctx context.Context, tenantID, id string) (*models.CourseDetail, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, tenantID, id string) error
}

// CourseSlotRequest is one weekly slot in a course payload.
type CourseSlotRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// CourseRequest holds payload for creating and updating courses. The number of
// slots must match classes_per_week so the calendar expectation stays consistent.
type CourseRequest struct {
	Name           string              `json:"name" validate:"required"`
	Level          *string             `json:"level"`
	CourseType     string              `json:"course_type" validate:"required,oneof=regular choreography"`
	Price          float64             `json:"price" validate:"min=0"`
	ClassPrice     float64             `json:"class_price" validate:"min=0"`
	ClassesPerWeek int                 `json:"classes_per_week" validate:"min=1,max=5"`
	TeacherID      *string             `json:"teacher_id"`
	RoomID         *string             `json:"room_id"`
	StartDate      *time.Time          `json:"start_date"`
	Slots          []CourseSlotRequest `json:"slots" validate:"required,min=1,max=5,dive"`
}

// CourseService handles catalog use-cases.
type CourseService struct {
	repo      courseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// List returns courses and pagination metadata.
func (s *CourseService) List(ctx context.Context, tenantID string, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, tenantID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	return courses, &models.Pagination{Limit: limit, Offset: offset, TotalCount: total}, nil
}

// Get returns one course with its slots.
func (s *CourseService) Get(ctx context.Context, tenantID, id string) (*models.CourseDetail, error) {
	course, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create registers a new course with its weekly slots.
func (s *CourseService) Create(ctx context.Context, tenantID string, req CourseRequest) (*models.Course, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	course := &models.Course{
		TenantID:       tenantID,
		Name:           req.Name,
		Level:          req.Level,
		CourseType:     models.CourseType(req.CourseType),
		Price:          req.Price,
		ClassPrice:     req.ClassPrice,
		ClassesPerWeek: req.ClassesPerWeek,
		TeacherID:      req.TeacherID,
		RoomID:         req.RoomID,
		StartDate:      req.StartDate,
		Slots:          buildSlots(req.Slots),
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Update modifies an existing course and rewrites its slots.
func (s *CourseService) Update(ctx context.Context, tenantID, id string, req CourseRequest) (*models.Course, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	course := existing.Course
	course.Name = req.Name
	course.Level = req.Level
	course.CourseType = models.CourseType(req.CourseType)
	course.Price = req.Price
	course.ClassPrice = req.ClassPrice
	course.ClassesPerWeek = req.ClassesPerWeek
	course.TeacherID = req.TeacherID
	course.RoomID = req.RoomID
	course.StartDate = req.StartDate
	course.Slots = buildSlots(req.Slots)
	if err := s.repo.Update(ctx, &course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return &course, nil
}

// Delete removes a course.
func (s *CourseService) Delete(ctx context.Context, tenantID, id string) error {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}

func (s *CourseService) validateRequest(req CourseRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if len(req.Slots) != req.ClassesPerWeek {
		return appErrors.Clone(appErrors.ErrValidation, "slot count must match classes_per_week")
	}
	return nil
}

func buildSlots(reqs []CourseSlotRequest) []models.CourseSlot {
	slots := make([]models.CourseSlot, len(reqs))
	for i, r := range reqs {
		slots[i] = models.CourseSlot{
			Position:  i + 1,
			DayOfWeek: r.DayOfWeek,
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
		}
	}
	return slots
}
