package models

import "time"

// CourseType distinguishes regular weekly courses from choreography projects.
type CourseType string

const (
	CourseTypeRegular      CourseType = "regular"
	CourseTypeChoreography CourseType = "choreography"
)

// Course represents an entry in the course catalog.
type Course struct {
	ID             string     `db:"id" json:"id"`
	TenantID       string     `db:"tenant_id" json:"-"`
	Name           string     `db:"name" json:"name"`
	Level          *string    `db:"level" json:"level,omitempty"`
	CourseType     CourseType `db:"course_type" json:"course_type"`
	Price          float64    `db:"price" json:"price"`
	ClassPrice     float64    `db:"class_price" json:"class_price"`
	ClassesPerWeek int        `db:"classes_per_week" json:"classes_per_week"`
	TeacherID      *string    `db:"teacher_id" json:"teacher_id,omitempty"`
	RoomID         *string    `db:"room_id" json:"room_id,omitempty"`
	StartDate      *time.Time `db:"start_date" json:"start_date,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`

	Slots []CourseSlot `db:"-" json:"slots"`
}

// CourseSlot is one of up to five weekly time slots for a course.
// DayOfWeek uses Monday-first indexing: 0=Monday .. 6=Sunday.
type CourseSlot struct {
	ID        string `db:"id" json:"id"`
	CourseID  string `db:"course_id" json:"course_id"`
	Position  int    `db:"position" json:"position"`
	DayOfWeek int    `db:"day_of_week" json:"day_of_week"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}

// CourseDetail enriches Course with teacher and room display names.
type CourseDetail struct {
	Course
	TeacherName *string `db:"teacher_name" json:"teacher_name,omitempty"`
	RoomName    *string `db:"room_name" json:"room_name,omitempty"`
}

// CourseFilter scopes course listing queries.
type CourseFilter struct {
	Query        string
	TeacherQuery string
	DayOfWeek    *int
	CourseType   CourseType
	Limit        int
	Offset       int
}
