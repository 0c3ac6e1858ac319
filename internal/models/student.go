package models

import "time"

// Gender enumerates the roster gender values.
type Gender string

const (
	GenderFemale Gender = "F"
	GenderMale   Gender = "M"
	GenderOther  Gender = "O"
)

// Student represents a studio roster member.
type Student struct {
	ID        string     `db:"id" json:"id"`
	TenantID  string     `db:"tenant_id" json:"-"`
	FirstName string     `db:"first_name" json:"first_name"`
	LastName  string     `db:"last_name" json:"last_name"`
	Email     *string    `db:"email" json:"email,omitempty"`
	Phone     *string    `db:"phone" json:"phone,omitempty"`
	Gender    *Gender    `db:"gender" json:"gender,omitempty"`
	Birthdate *time.Time `db:"birthdate" json:"birthdate,omitempty"`
	JoinedAt  time.Time  `db:"joined_at" json:"joined_at"`
	Active    bool       `db:"is_active" json:"is_active"`
	PhotoKey  *string    `db:"photo_key" json:"photo_key,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name for display and exports.
func (s Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// StudentFilter captures filtering criteria for listing students.
type StudentFilter struct {
	Query  string
	Active *bool
	Limit  int
	Offset int
}

// StudentPortal aggregates everything the student detail view needs.
type StudentPortal struct {
	Student     Student            `json:"student"`
	PhotoURL    *string            `json:"photo_url,omitempty"`
	Courses     []PortalCourse     `json:"courses"`
	Payments    []Payment          `json:"payments"`
	TotalPaid   float64            `json:"total_paid"`
	Enrollments []EnrollmentDetail `json:"enrollments"`
}

// PortalCourse is one course row on the student portal with derived billing state.
type PortalCourse struct {
	Course       Course        `json:"course"`
	Enrollment   Enrollment    `json:"enrollment"`
	Status       string        `json:"status"`
	Expected     int           `json:"expected"`
	Attended     int           `json:"attended"`
	ExtraOutside int           `json:"extra_outside"`
	Period       *PaymentRange `json:"period,omitempty"`
}

// PaymentRange is the interval a payment is believed to cover.
type PaymentRange struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}
