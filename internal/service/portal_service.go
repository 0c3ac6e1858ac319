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

type studentFinder interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.Student, error)
}

type studentPaymentLister interface {
	ListByStudent(ctx context.Context, tenantID, studentID string) ([]models.Payment, error)
}

// PortalService aggregates everything the student detail view shows: the
// student record, their courses with derived billing state, and the payment
// history with the period each payment covers.
type PortalService struct {
	students      studentFinder
	enrollments   studentEnrollmentLister
	payments      studentPaymentLister
	courses       courseFinder
	calendars     calendarProvider
	photos        PhotoBackend
	cache         *CacheService
	cacheTTL      time.Duration
	horizonMonths int
	location      *time.Location
	now           func() time.Time
	logger        *zap.Logger
}

// NewPortalService constructs the portal service. The photo store may be nil.
func NewPortalService(students studentFinder, enrollments studentEnrollmentLister, payments studentPaymentLister, courses courseFinder, calendars calendarProvider, photos PhotoBackend, cache *CacheService, cacheTTL time.Duration, horizonMonths int, location *time.Location, logger *zap.Logger) *PortalService {
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
	return &PortalService{
		students:      students,
		enrollments:   enrollments,
		payments:      payments,
		courses:       courses,
		calendars:     calendars,
		photos:        photos,
		cache:         cache,
		cacheTTL:      cacheTTL,
		horizonMonths: horizonMonths,
		location:      location,
		now:           time.Now,
		logger:        logger,
	}
}

// Portal composes the student detail document.
func (s *PortalService) Portal(ctx context.Context, tenantID, studentID string) (*models.StudentPortal, error) {
	cacheKey := portalCacheKey(tenantID, studentID)
	if s.cache != nil {
		var cached models.StudentPortal
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	student, err := s.students.FindByID(ctx, tenantID, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	enrollments, err := s.enrollments.ListByStudent(ctx, tenantID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	payments, err := s.payments.ListByStudent(ctx, tenantID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}

	today := billing.DayStart(s.now().In(s.location))

	portal := &models.StudentPortal{
		Student:  *student,
		Payments: payments,
	}
	for _, p := range payments {
		portal.TotalPaid += p.Amount
	}

	byCourse := make(map[string][]models.Enrollment)
	for _, e := range enrollments {
		byCourse[e.CourseID] = append(byCourse[e.CourseID], e)
	}

	for courseID, group := range byCourse {
		course, err := s.courses.FindByID(ctx, tenantID, courseID)
		if err != nil {
			if err == sql.ErrNoRows {
				s.logger.Warn("portal references missing course", zap.String("course_id", courseID))
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}

		current, ok := billing.CurrentEnrollment(group)
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

		portal.Courses = append(portal.Courses, models.PortalCourse{
			Course:       course.Course,
			Enrollment:   current,
			Status:       string(label),
			Expected:     tally.Expected,
			Attended:     tally.Attended,
			ExtraOutside: tally.ExtraOutside,
			Period:       coveredPeriod(current, group, payments),
		})

		for _, e := range group {
			portal.Enrollments = append(portal.Enrollments, models.EnrollmentDetail{
				Enrollment:  e,
				StudentName: student.FullName(),
				CourseName:  course.Name,
			})
		}
	}

	sort.Slice(portal.Courses, func(i, j int) bool {
		return portal.Courses[i].Course.Name < portal.Courses[j].Course.Name
	})
	sort.Slice(portal.Enrollments, func(i, j int) bool {
		a, b := portal.Enrollments[i], portal.Enrollments[j]
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.After(b.StartDate)
		}
		return a.ID < b.ID
	})

	if s.photos != nil && student.PhotoKey != nil {
		if url, err := s.photos.PresignedURL(ctx, *student.PhotoKey, 15*time.Minute); err == nil {
			portal.PhotoURL = &url
		} else {
			s.logger.Warn("failed to sign portal photo url", zap.String("student_id", studentID), zap.Error(err))
		}
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, portal, s.cacheTTL)
	}
	return portal, nil
}

// coveredPeriod resolves the interval the student's latest matching monthly
// payment is believed to cover. Payments arrive latest first.
func coveredPeriod(current models.Enrollment, group []models.Enrollment, payments []models.Payment) *models.PaymentRange {
	for _, p := range payments {
		if billing.MatchPayment(current, p) == billing.MatchNone {
			continue
		}
		if period, ok := billing.FindPeriod(p, group); ok {
			return &models.PaymentRange{Start: period.Start, End: period.End}
		}
	}
	return nil
}

func portalCacheKey(tenantID, studentID string) string {
	return fmt.Sprintf("portal:%s:%s", tenantID, studentID)
}
