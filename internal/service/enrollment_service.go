package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studioflow/pms-api/internal/billing"
	"github.com/studioflow/pms-api/internal/models"
	appErrors "github.com/studioflow/pms-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, tenantID string, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, tenantID, id string) (*models.Enrollment, error)
	ListByStudent(ctx context.Context, tenantID, studentID string) ([]models.Enrollment, error)
	ListByCourse(ctx context.Context, tenantID, courseID string) ([]models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, enrollment *models.Enrollment) error
	Delete(ctx context.Context, tenantID, id string) error
}

type courseFinder interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.CourseDetail, error)
}

// EnrollmentRequest holds payload for creating enrollments.
type EnrollmentRequest struct {
	StudentID string     `json:"student_id" validate:"required"`
	CourseID  string     `json:"course_id" validate:"required"`
	StartDate time.Time  `json:"start_date" validate:"required"`
	EndDate   *time.Time `json:"end_date"`
	Active    bool       `json:"is_active"`
}

// UpdateEnrollmentRequest adjusts the date range and active flag.
type UpdateEnrollmentRequest struct {
	StartDate time.Time  `json:"start_date" validate:"required"`
	EndDate   *time.Time `json:"end_date"`
	Active    bool       `json:"is_active"`
}

// RenewRequest asks for a renewal of an enrollment. When EndDate is absent the
// end is proposed from the course schedule: Occurrences class days counting
// from the aligned start.
type RenewRequest struct {
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Occurrences int        `json:"occurrences"`
}

// RenewalPlan is the proposed date range for a renewal.
type RenewalPlan struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// EnrollmentService handles enrollment lifecycle use-cases.
type EnrollmentService struct {
	repo      enrollmentRepository
	courses   courseFinder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(repo enrollmentRepository, courses courseFinder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, courses: courses, cache: cache, validator: validate, logger: logger}
}

// List returns enrollments and pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, tenantID string, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, tenantID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	return enrollments, &models.Pagination{Limit: limit, Offset: offset, TotalCount: total}, nil
}

// Get returns one enrollment.
func (s *EnrollmentService) Get(ctx context.Context, tenantID, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// Create registers a new enrollment.
func (s *EnrollmentService) Create(ctx context.Context, tenantID string, req EnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}
	enrollment := &models.Enrollment{
		TenantID:  tenantID,
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		StartDate: billing.DayStart(req.StartDate),
		Active:    req.Active,
	}
	if req.EndDate != nil {
		end := billing.DayStart(*req.EndDate)
		enrollment.EndDate = &end
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	s.invalidate(ctx, tenantID, enrollment.StudentID, enrollment.CourseID)
	return enrollment, nil
}

// Update adjusts the date range and active flag of an enrollment.
func (s *EnrollmentService) Update(ctx context.Context, tenantID, id string, req UpdateEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}
	enrollment, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	enrollment.StartDate = billing.DayStart(req.StartDate)
	enrollment.EndDate = nil
	if req.EndDate != nil {
		end := billing.DayStart(*req.EndDate)
		enrollment.EndDate = &end
	}
	enrollment.Active = req.Active
	if err := s.repo.Update(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
	s.invalidate(ctx, tenantID, enrollment.StudentID, enrollment.CourseID)
	return enrollment, nil
}

// Plan proposes a renewal date range without persisting anything. The start is
// aligned to the course's first scheduled weekday on or after the requested
// date; the end is the n-th class day counting from that start.
func (s *EnrollmentService) Plan(ctx context.Context, tenantID, id string, from *time.Time, occurrences int) (*RenewalPlan, error) {
	enrollment, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.FindByID(ctx, tenantID, enrollment.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if len(course.Slots) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course has no weekly slots")
	}
	if occurrences <= 0 {
		occurrences = 4
	}

	start := enrollment.EffectiveEnd().AddDate(0, 0, 1)
	if from != nil {
		start = billing.DayStart(*from)
	}
	weekday := course.Slots[0].DayOfWeek
	aligned := billing.AlignToWeekday(start, weekday)
	end := billing.EndByOccurrences(aligned, weekday, occurrences)
	return &RenewalPlan{StartDate: aligned, EndDate: end}, nil
}

// Renew extends an enrollment in place. Explicit dates win; otherwise the plan
// derived from the course schedule is applied.
func (s *EnrollmentService) Renew(ctx context.Context, tenantID, id string, req RenewRequest) (*models.Enrollment, error) {
	enrollment, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	var start, end time.Time
	if req.StartDate != nil && req.EndDate != nil {
		start = billing.DayStart(*req.StartDate)
		end = billing.DayStart(*req.EndDate)
	} else {
		plan, err := s.Plan(ctx, tenantID, id, req.StartDate, req.Occurrences)
		if err != nil {
			return nil, err
		}
		start, end = plan.StartDate, plan.EndDate
		if req.EndDate != nil {
			end = billing.DayStart(*req.EndDate)
		}
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}

	enrollment.StartDate = start
	enrollment.EndDate = &end
	enrollment.Active = true
	if err := s.repo.Update(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to renew enrollment")
	}
	s.invalidate(ctx, tenantID, enrollment.StudentID, enrollment.CourseID)
	return enrollment, nil
}

// Delete removes an enrollment row.
func (s *EnrollmentService) Delete(ctx context.Context, tenantID, id string) error {
	enrollment, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	s.invalidate(ctx, tenantID, enrollment.StudentID, enrollment.CourseID)
	return nil
}

func (s *EnrollmentService) invalidate(ctx context.Context, tenantID, studentID, courseID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, courseStatusCacheKey(tenantID, courseID)+"*")
	_ = s.cache.Invalidate(ctx, portalCacheKey(tenantID, studentID))
}
