package billing

import (
	"sort"
	"time"

	"github.com/studioflow/pms-api/internal/models"
)

// Period is the date interval a payment is believed to cover. A nil End means
// the covering enrollment is open-ended.
type Period struct {
	Start time.Time
	End   *time.Time
}

// FindPeriod locates the enrollment interval covering a payment.
//
// Candidates are the enrollments for the payment's student and course; when
// the payment carries an enrollment id only that enrollment qualifies. The
// containing interval wins, then the most recent enrollment starting on or
// before the payment date, then the earliest candidate. Candidate order is
// normalised before matching so repeated calls always agree.
func FindPeriod(payment models.Payment, enrollments []models.Enrollment) (Period, bool) {
	candidates := filterCandidates(payment, enrollments)
	if len(candidates) == 0 {
		return Period{}, false
	}

	// Latest start first; ties broken by id so overlapping intervals resolve
	// the same way every time.
	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].StartDate.Equal(candidates[j].StartDate) {
			return candidates[i].StartDate.After(candidates[j].StartDate)
		}
		return candidates[i].ID < candidates[j].ID
	})

	date := DayStart(payment.PaymentDate)

	for _, e := range candidates {
		if contains(e, date) {
			return periodOf(e), true
		}
	}
	for _, e := range candidates {
		if !DayStart(e.StartDate).After(date) {
			return periodOf(e), true
		}
	}
	return periodOf(candidates[len(candidates)-1]), true
}

func filterCandidates(payment models.Payment, enrollments []models.Enrollment) []models.Enrollment {
	var out []models.Enrollment
	for _, e := range enrollments {
		if payment.EnrollmentID != nil {
			if e.ID == *payment.EnrollmentID {
				out = append(out, e)
			}
			continue
		}
		if e.StudentID != payment.StudentID {
			continue
		}
		if payment.CourseID != nil && e.CourseID != *payment.CourseID {
			continue
		}
		out = append(out, e)
	}
	return out
}

// contains checks interval membership at day granularity. A nil end date is
// open-ended and matches any date on or after the start.
func contains(e models.Enrollment, date time.Time) bool {
	start := DayStart(e.StartDate)
	if date.Before(start) {
		return false
	}
	if e.EndDate == nil {
		return true
	}
	return !date.After(DayStart(*e.EndDate))
}

func periodOf(e models.Enrollment) Period {
	p := Period{Start: DayStart(e.StartDate)}
	if e.EndDate != nil {
		end := DayStart(*e.EndDate)
		p.End = &end
	}
	return p
}

// CurrentEnrollment picks the most relevant enrollment per (student, course)
// pair: the one with the latest end date, falling back to start date for
// open-ended or single-day rows. This is the dedupe rule the roster screens
// apply when a student has re-enrolled over time.
func CurrentEnrollment(enrollments []models.Enrollment) (models.Enrollment, bool) {
	if len(enrollments) == 0 {
		return models.Enrollment{}, false
	}
	best := enrollments[0]
	for _, e := range enrollments[1:] {
		if sortKey(e).After(sortKey(best)) {
			best = e
		} else if sortKey(e).Equal(sortKey(best)) && e.ID > best.ID {
			best = e
		}
	}
	return best, true
}

func sortKey(e models.Enrollment) time.Time {
	if e.EndDate != nil {
		return *e.EndDate
	}
	return e.StartDate
}
