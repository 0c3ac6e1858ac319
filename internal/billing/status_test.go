package billing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/studioflow/pms-api/internal/models"
)

func TestClassifyTotality(t *testing.T) {
	today := date(2024, time.June, 15)
	before := date(2024, time.June, 20)
	equal := today
	after := date(2024, time.June, 1)

	ends := map[string]*time.Time{"before": &before, "equal": &equal, "after": &after, "null": nil}
	known := map[Status]bool{
		StatusEnrolled:   true,
		StatusPaymentDue: true,
		StatusRenewalDue: true,
		StatusCompleted:  true,
		StatusInactive:   true,
	}

	for _, hasPayment := range []bool{true, false} {
		for endName, end := range ends {
			for _, completed := range []bool{true, false} {
				for _, active := range []bool{true, false} {
					expected, attended := 4, 2
					if completed {
						attended = 4
					}
					in := ClassifyInput{
						HasPayment: hasPayment,
						Active:     active,
						EndDate:    end,
						Expected:   expected,
						Attended:   attended,
						Today:      today,
					}
					name := fmt.Sprintf("payment=%v end=%s completed=%v active=%v", hasPayment, endName, completed, active)
					t.Run(name, func(t *testing.T) {
						got := Classify(in)
						assert.True(t, known[got], "unknown status %q", got)
						if !hasPayment {
							assert.Equal(t, StatusPaymentDue, got, "payment absence must take precedence")
						}
					})
				}
			}
		}
	}
}

func TestClassifyDecisionOrder(t *testing.T) {
	today := date(2024, time.June, 15)
	past := date(2024, time.June, 1)

	// Paid but past the end date: renewal outranks completion and inactivity.
	got := Classify(ClassifyInput{HasPayment: true, Active: false, EndDate: &past, Expected: 4, Attended: 4, Today: today})
	assert.Equal(t, StatusRenewalDue, got)

	// Paid, current, all expected classes attended.
	future := date(2024, time.June, 30)
	got = Classify(ClassifyInput{HasPayment: true, Active: false, EndDate: &future, Expected: 4, Attended: 4, Today: today})
	assert.Equal(t, StatusCompleted, got)

	// Paid, current, incomplete, inactive enrollment.
	got = Classify(ClassifyInput{HasPayment: true, Active: false, EndDate: &future, Expected: 4, Attended: 1, Today: today})
	assert.Equal(t, StatusInactive, got)

	// Open-ended enrollment with zero expectation stays enrolled.
	got = Classify(ClassifyInput{HasPayment: true, Active: true, EndDate: nil, Expected: 0, Attended: 0, Today: today})
	assert.Equal(t, StatusEnrolled, got)
}

func TestMatchPayment(t *testing.T) {
	end := date(2024, time.January, 31)
	e := models.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1", StartDate: date(2024, time.January, 1), EndDate: &end}
	course := "c1"
	otherCourse := "c2"
	pinned := "e1"
	otherEnrollment := "e9"

	cases := []struct {
		name string
		p    models.Payment
		want MatchStrength
	}{
		{
			"enrollment id match",
			models.Payment{StudentID: "s1", CourseID: &course, EnrollmentID: &pinned, Type: models.PaymentTypeMonthly, PaymentDate: date(2024, time.March, 1)},
			MatchByEnrollmentID,
		},
		{
			"enrollment id mismatch never falls back",
			models.Payment{StudentID: "s1", CourseID: &course, EnrollmentID: &otherEnrollment, Type: models.PaymentTypeMonthly, PaymentDate: date(2024, time.January, 10)},
			MatchNone,
		},
		{
			"range match without enrollment id",
			models.Payment{StudentID: "s1", CourseID: &course, Type: models.PaymentTypeMonthly, PaymentDate: date(2024, time.January, 10)},
			MatchByRange,
		},
		{
			"date outside range",
			models.Payment{StudentID: "s1", CourseID: &course, Type: models.PaymentTypeMonthly, PaymentDate: date(2024, time.February, 10)},
			MatchNone,
		},
		{
			"wrong course",
			models.Payment{StudentID: "s1", CourseID: &otherCourse, Type: models.PaymentTypeMonthly, PaymentDate: date(2024, time.January, 10)},
			MatchNone,
		},
		{
			"single class payments never match",
			models.Payment{StudentID: "s1", CourseID: &course, Type: models.PaymentTypeSingleClass, PaymentDate: date(2024, time.January, 10)},
			MatchNone,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MatchPayment(e, tc.p))
		})
	}
}

func TestHasMonthlyPaymentReportsStrongestEvidence(t *testing.T) {
	end := date(2024, time.January, 31)
	e := models.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1", StartDate: date(2024, time.January, 1), EndDate: &end}
	course := "c1"
	pinned := "e1"

	payments := []models.Payment{
		{StudentID: "s1", CourseID: &course, Type: models.PaymentTypeMonthly, PaymentDate: date(2024, time.January, 10)},
		{StudentID: "s1", CourseID: &course, EnrollmentID: &pinned, Type: models.PaymentTypeMonthly, PaymentDate: date(2024, time.January, 12)},
	}

	ok, strength := HasMonthlyPayment(e, payments)
	assert.True(t, ok)
	assert.Equal(t, MatchByEnrollmentID, strength)

	ok, strength = HasMonthlyPayment(e, nil)
	assert.False(t, ok)
	assert.Equal(t, MatchNone, strength)
}
