package models

import "time"

// PaymentMethod enumerates accepted payment methods. "agreement" (convenio)
// covers institutional or negotiated arrangements and is reported like the rest.
type PaymentMethod string

const (
	PaymentMethodCash      PaymentMethod = "cash"
	PaymentMethodCard      PaymentMethod = "card"
	PaymentMethodTransfer  PaymentMethod = "transfer"
	PaymentMethodAgreement PaymentMethod = "agreement"
)

// Valid returns true when the method is a supported value.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer, PaymentMethodAgreement:
		return true
	default:
		return false
	}
}

// PaymentType categorises what a payment covers.
type PaymentType string

const (
	PaymentTypeMonthly     PaymentType = "monthly"
	PaymentTypeSingleClass PaymentType = "single_class"
	PaymentTypeRental      PaymentType = "rental"
	PaymentTypeOther       PaymentType = "other"
)

// Payment is a ledger entry. EnrollmentID is optional; when absent the payment
// is soft-linked to an enrollment by student, course and date range.
type Payment struct {
	ID           string        `db:"id" json:"id"`
	TenantID     string        `db:"tenant_id" json:"-"`
	StudentID    string        `db:"student_id" json:"student_id"`
	CourseID     *string       `db:"course_id" json:"course_id,omitempty"`
	EnrollmentID *string       `db:"enrollment_id" json:"enrollment_id,omitempty"`
	Amount       float64       `db:"amount" json:"amount"`
	Method       PaymentMethod `db:"method" json:"method"`
	Type         PaymentType   `db:"type" json:"type"`
	PaymentDate  time.Time     `db:"payment_date" json:"payment_date"`
	Reference    *string       `db:"reference" json:"reference,omitempty"`
	Notes        *string       `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// PaymentDetail enriches Payment with display names.
type PaymentDetail struct {
	Payment
	StudentName string  `db:"student_name" json:"student_name"`
	CourseName  *string `db:"course_name" json:"course_name,omitempty"`
}

// PaymentFilter scopes payment listing queries.
type PaymentFilter struct {
	StudentID    string
	CourseID     string
	StudentQuery string
	CourseQuery  string
	Query        string
	Type         PaymentType
	Method       PaymentMethod
	DateFrom     *time.Time
	DateTo       *time.Time
	Limit        int
	Offset       int
}

// TeacherPaymentSummary is a pre-aggregated total per teacher.
type TeacherPaymentSummary struct {
	TeacherID    string  `db:"teacher_id" json:"teacher_id"`
	TeacherName  string  `db:"teacher_name" json:"teacher_name"`
	PaymentCount int     `db:"payment_count" json:"payment_count"`
	Total        float64 `db:"total" json:"total"`
}
