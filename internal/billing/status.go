package billing

import (
	"time"

	"github.com/studioflow/pms-api/internal/models"
)

// Status labels a student's state on a course. The values are the literal
// strings the console displays.
type Status string

const (
	StatusEnrolled   Status = "Inscrito"
	StatusPaymentDue Status = "Pendiente de pago"
	StatusRenewalDue Status = "Pendiente de renovación"
	StatusCompleted  Status = "Completado"
	StatusInactive   Status = "Inactivo"
)

// ClassifyInput carries everything the classifier needs. Today must already be
// in the studio's reference timezone.
type ClassifyInput struct {
	HasPayment bool
	Active     bool
	EndDate    *time.Time
	Expected   int
	Attended   int
	Today      time.Time
}

// Classify labels a course enrollment. First match wins; a missing payment
// outranks every other condition.
func Classify(in ClassifyInput) Status {
	if !in.HasPayment {
		return StatusPaymentDue
	}
	if in.EndDate != nil && DayStart(in.Today).After(DayStart(*in.EndDate)) {
		return StatusRenewalDue
	}
	if in.Expected > 0 && in.Attended >= in.Expected {
		return StatusCompleted
	}
	if !in.Active {
		return StatusInactive
	}
	return StatusEnrolled
}

// MatchStrength grades how firmly a payment is linked to an enrollment.
type MatchStrength int

const (
	MatchNone MatchStrength = iota
	MatchByRange
	MatchByEnrollmentID
)

// MatchPayment grades one monthly payment against an enrollment using the
// strictest evidence the record carries: an explicit enrollment id is
// authoritative and never falls back to weaker matching; payments without one
// are matched by student, course and date range. Non-monthly payments never
// match.
func MatchPayment(enrollment models.Enrollment, payment models.Payment) MatchStrength {
	if payment.Type != models.PaymentTypeMonthly {
		return MatchNone
	}
	if payment.EnrollmentID != nil {
		if *payment.EnrollmentID == enrollment.ID {
			return MatchByEnrollmentID
		}
		return MatchNone
	}
	if payment.StudentID != enrollment.StudentID {
		return MatchNone
	}
	if payment.CourseID == nil || *payment.CourseID != enrollment.CourseID {
		return MatchNone
	}
	if contains(enrollment, DayStart(payment.PaymentDate)) {
		return MatchByRange
	}
	return MatchNone
}

// HasMonthlyPayment reports whether any payment in the set matches the
// enrollment, and the strongest evidence found.
func HasMonthlyPayment(enrollment models.Enrollment, payments []models.Payment) (bool, MatchStrength) {
	strongest := MatchNone
	for _, p := range payments {
		if s := MatchPayment(enrollment, p); s > strongest {
			strongest = s
		}
	}
	return strongest > MatchNone, strongest
}
