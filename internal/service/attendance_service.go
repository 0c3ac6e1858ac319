package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/studioflow/pms-api/internal/billing"
	"github.com/studioflow/pms-api/internal/models"
	appErrors "github.com/studioflow/pms-api/pkg/errors"
)

type attendanceRepository interface {
	Mark(ctx context.Context, attendance *models.Attendance) error
	Unmark(ctx context.Context, tenantID, studentID, courseID string, date time.Time) error
	ListRange(ctx context.Context, tenantID, studentID string, from, to time.Time) ([]models.Attendance, error)
}

type studentEnrollmentLister interface {
	ListByStudent(ctx context.Context, tenantID, studentID string) ([]models.Enrollment, error)
}

type courseSlotLister interface {
	ListSlots(ctx context.Context, courseIDs []string) (map[string][]models.CourseSlot, error)
}

// MarkAttendanceRequest identifies one attendance cell.
type MarkAttendanceRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	CourseID  string    `json:"course_id" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
}

// AttendanceService composes the per-student month calendar and records marks.
// Month documents are memoised in-process because the roster screens request
// the same months repeatedly while taking attendance.
type AttendanceService struct {
	repo        attendanceRepository
	enrollments studentEnrollmentLister
	slots       courseSlotLister
	cache       *CacheService
	memo        *gocache.Cache
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, enrollments studentEnrollmentLister, slots courseSlotLister, cache *CacheService, memoTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if memoTTL <= 0 {
		memoTTL = time.Minute
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:        repo,
		enrollments: enrollments,
		slots:       slots,
		cache:       cache,
		memo:        gocache.New(memoTTL, 2*memoTTL),
		validator:   validate,
		logger:      logger,
	}
}

// Mark records an attendance. Re-marking the same day is a no-op.
func (s *AttendanceService) Mark(ctx context.Context, tenantID string, req MarkAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	attendance := &models.Attendance{
		TenantID:  tenantID,
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		Date:      billing.DayStart(req.Date),
	}
	if err := s.repo.Mark(ctx, attendance); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
	}
	s.forget(ctx, tenantID, req.StudentID, req.CourseID, attendance.Date)
	return attendance, nil
}

// Unmark removes an attendance mark.
func (s *AttendanceService) Unmark(ctx context.Context, tenantID string, req MarkAttendanceRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	date := billing.DayStart(req.Date)
	if err := s.repo.Unmark(ctx, tenantID, req.StudentID, req.CourseID, date); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "attendance not recorded")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unmark attendance")
	}
	s.forget(ctx, tenantID, req.StudentID, req.CourseID, date)
	return nil
}

// Calendar builds the student's month view: for every day of the month, which
// courses expected the student (an enrollment covering the day whose course
// has a slot on that weekday) and which were actually attended.
func (s *AttendanceService) Calendar(ctx context.Context, tenantID, studentID string, year int, month time.Month) (*models.AttendanceCalendar, error) {
	key := calendarMemoKey(tenantID, studentID, year, month)
	if cached, ok := s.memo.Get(key); ok {
		if calendar, ok := cached.(*models.AttendanceCalendar); ok {
			return calendar, nil
		}
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	enrollments, err := s.enrollments.ListByStudent(ctx, tenantID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	courseIDs := make([]string, 0, len(enrollments))
	seen := make(map[string]bool, len(enrollments))
	for _, e := range enrollments {
		if !seen[e.CourseID] {
			seen[e.CourseID] = true
			courseIDs = append(courseIDs, e.CourseID)
		}
	}
	slots, err := s.slots.ListSlots(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course slots")
	}

	rows, err := s.repo.ListRange(ctx, tenantID, studentID, first, last)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	attendedByDay := make(map[string][]string)
	for _, row := range rows {
		day := billing.DayStart(row.Date).Format("2006-01-02")
		attendedByDay[day] = append(attendedByDay[day], row.CourseID)
	}

	calendar := &models.AttendanceCalendar{
		StudentID: studentID,
		Year:      year,
		Month:     int(month),
		Weeks:     billing.WeeksInMonth(year, month),
	}
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		entry := models.AttendanceDay{Date: day}
		weekday := billing.MondayIndex(day)

		expected := make(map[string]bool)
		for _, e := range enrollments {
			if expected[e.CourseID] || !enrollmentCovers(e, day) {
				continue
			}
			for _, slot := range slots[e.CourseID] {
				if slot.DayOfWeek == weekday {
					expected[e.CourseID] = true
					entry.ExpectedCourseIDs = append(entry.ExpectedCourseIDs, e.CourseID)
					break
				}
			}
		}
		sort.Strings(entry.ExpectedCourseIDs)
		entry.AttendedCourseIDs = attendedByDay[day.Format("2006-01-02")]

		calendar.Days = append(calendar.Days, entry)
	}

	s.memo.SetDefault(key, calendar)
	return calendar, nil
}

func (s *AttendanceService) forget(ctx context.Context, tenantID, studentID, courseID string, date time.Time) {
	s.memo.Delete(calendarMemoKey(tenantID, studentID, date.Year(), date.Month()))
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, courseStatusCacheKey(tenantID, courseID)+"*")
		_ = s.cache.Invalidate(ctx, portalCacheKey(tenantID, studentID))
	}
}

func enrollmentCovers(e models.Enrollment, day time.Time) bool {
	d := billing.DayStart(day)
	if d.Before(billing.DayStart(e.StartDate)) {
		return false
	}
	if e.EndDate == nil {
		return true
	}
	return !d.After(billing.DayStart(*e.EndDate))
}

func calendarMemoKey(tenantID, studentID string, year int, month time.Month) string {
	return fmt.Sprintf("cal:%s:%s:%04d-%02d", tenantID, studentID, year, int(month))
}
