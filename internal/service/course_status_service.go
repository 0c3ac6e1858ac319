package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/studioflow/pms-api/internal/billing"
	"github.com/studioflow/pms-api/internal/models"
	appErrors "github.com/studioflow/pms-api/pkg/errors"
)

type courseCatalog interface {
	courseFinder
	List(ctx context.Context, tenantID string, filter models.CourseFilter) ([]models.CourseDetail, int, error)
}

type courseEnrollmentLister interface {
	ListByCourse(ctx context.Context, tenantID, courseID string) ([]models.Enrollment, error)
}

type coursePaymentLister interface {
	ListByCourse(ctx context.Context, tenantID, courseID string) ([]models.Payment, error)
}

type studentBatchLoader interface {
	ListByIDs(ctx context.Context, tenantID string, ids []string) (map[string]models.Student, error)
}

type calendarProvider interface {
	Calendar(ctx context.Context, tenantID, studentID string, year int, month time.Month) (*models.AttendanceCalendar, error)
}

// CourseStatusService composes the per-course roster with derived billing
// state: payment status, expected versus attended class days, and extra
// classes taken past the contracted period.
type CourseStatusService struct {
	courses       courseCatalog
	enrollments   courseEnrollmentLister
	payments      coursePaymentLister
	students      studentBatchLoader
	calendars     calendarProvider
	cache         *CacheService
	cacheTTL      time.Duration
	horizonMonths int
	location      *time.Location
	now           func() time.Time
	logger        *zap.Logger
}

// NewCourseStatusService constructs the course-status service. The location is
// the studio's reference timezone for "today".
func NewCourseStatusService(courses courseCatalog, enrollments courseEnrollmentLister, payments coursePaymentLister, students studentBatchLoader, calendars calendarProvider, cache *CacheService, cacheTTL time.Duration, horizonMonths int, location *time.Location, logger *zap.Logger) *CourseStatusService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if horizonMonths <= 0 {
		horizonMonths = 6
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseStatusService{
		courses:       courses,
		enrollments:   enrollments,
		payments:      payments,
		students:      students,
		calendars:     calendars,
		cache:         cache,
		cacheTTL:      cacheTTL,
		horizonMonths: horizonMonths,
		location:      location,
		now:           time.Now,
		logger:        logger,
	}
}

// Compose builds the enriched roster for one course. Each student appears once
// through their most relevant enrollment. Months whose calendar cannot be
// loaded are skipped so one bad month degrades the tallies instead of failing
// the whole screen.
func (s *CourseStatusService) Compose(ctx context.Context, tenantID, courseID string) (*models.CourseStatus, error) {
	cacheKey := courseStatusCacheKey(tenantID, courseID)
	if s.cache != nil {
		var cached models.CourseStatus
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	course, err := s.courses.FindByID(ctx, tenantID, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	enrollments, err := s.enrollments.ListByCourse(ctx, tenantID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	payments, err := s.payments.ListByCourse(ctx, tenantID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}

	byStudent := make(map[string][]models.Enrollment)
	for _, e := range enrollments {
		byStudent[e.StudentID] = append(byStudent[e.StudentID], e)
	}
	studentIDs := make([]string, 0, len(byStudent))
	for id := range byStudent {
		studentIDs = append(studentIDs, id)
	}
	students, err := s.students.ListByIDs(ctx, tenantID, studentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}

	today := billing.DayStart(s.now().In(s.location))

	status := &models.CourseStatus{Course: *course}
	for studentID, group := range byStudent {
		current, ok := billing.CurrentEnrollment(group)
		if !ok {
			continue
		}
		student, ok := students[studentID]
		if !ok {
			continue
		}

		tally := tallyEnrollment(ctx, s.calendars, s.logger, tenantID, studentID, courseID, current, course.ClassesPerWeek, today, s.horizonMonths)
		hasPayment, _ := billing.HasMonthlyPayment(current, payments)
		label := billing.Classify(billing.ClassifyInput{
			HasPayment: hasPayment,
			Active:     current.Active,
			EndDate:    current.EndDate,
			Expected:   tally.Expected,
			Attended:   tally.Attended,
			Today:      today,
		})

		status.Roster = append(status.Roster, models.CourseStatusRow{
			Student:       student,
			Enrollment:    current,
			PaymentStatus: string(label),
			Expected:      tally.Expected,
			Attended:      tally.Attended,
			ExtraOutside:  tally.ExtraOutside,
			BirthdayToday: birthdayToday(student, today),
		})
	}

	sort.Slice(status.Roster, func(i, j int) bool {
		a, b := status.Roster[i].Student, status.Roster[j].Student
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.ID < b.ID
	})

	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, status, s.cacheTTL)
	}
	return status, nil
}

// ComposeAll builds the roster board for every course matching the filter.
// The attendance-days filter keeps only roster rows with at least that many
// attended classes.
func (s *CourseStatusService) ComposeAll(ctx context.Context, tenantID string, filter models.CourseStatusFilter) ([]models.CourseStatus, *models.Pagination, error) {
	courses, total, err := s.courses.List(ctx, tenantID, models.CourseFilter{
		DayOfWeek: filter.DayOfWeek,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	board := make([]models.CourseStatus, 0, len(courses))
	for _, course := range courses {
		status, err := s.Compose(ctx, tenantID, course.ID)
		if err != nil {
			return nil, nil, err
		}
		if filter.AttendanceDays != nil {
			kept := status.Roster[:0]
			for _, row := range status.Roster {
				if row.Attended >= *filter.AttendanceDays {
					kept = append(kept, row)
				}
			}
			status.Roster = kept
		}
		board = append(board, *status)
	}

	pagination := &models.Pagination{Limit: filter.Limit, Offset: filter.Offset, TotalCount: total}
	return board, pagination, nil
}

// tallyEnrollment walks the months spanned by the enrollment and sums the
// calendar days. The horizon caps how far past the enrollment's end extra
// attendances count. When no month at all could be loaded the expected count
// falls back to the schedule-based estimate so the roster still shows a
// plausible figure instead of zeros.
func tallyEnrollment(ctx context.Context, calendars calendarProvider, logger *zap.Logger, tenantID, studentID, courseID string, enrollment models.Enrollment, classesPerWeek int, today time.Time, horizonMonths int) billing.Tally {
	iv := billing.Interval{Start: enrollment.StartDate, End: enrollment.EndDate}

	horizon := today
	if capped := iv.EffectiveEnd().AddDate(0, horizonMonths, 0); capped.Before(horizon) {
		horizon = capped
	}

	var days []models.AttendanceDay
	loaded := 0
	for _, month := range billing.MonthsSpanned(iv, horizon) {
		calendar, err := calendars.Calendar(ctx, tenantID, studentID, month.Year(), month.Month())
		if err != nil {
			logger.Warn("skipping month in attendance tally",
				zap.String("student_id", studentID),
				zap.String("course_id", courseID),
				zap.Int("year", month.Year()),
				zap.Int("month", int(month.Month())),
				zap.Error(err))
			continue
		}
		loaded++
		days = append(days, calendar.Days...)
	}
	if loaded == 0 {
		return billing.Tally{Expected: billing.EstimateExpected(classesPerWeek, iv.Start, iv.EffectiveEnd())}
	}
	return billing.TallyCalendar(days, courseID, iv, horizon)
}

func birthdayToday(student models.Student, today time.Time) bool {
	if student.Birthdate == nil {
		return false
	}
	return student.Birthdate.Month() == today.Month() && student.Birthdate.Day() == today.Day()
}

func courseStatusCacheKey(tenantID, courseID string) string {
	return fmt.Sprintf("course_status:%s:%s", tenantID, courseID)
}
