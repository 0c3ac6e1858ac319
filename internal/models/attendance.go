package models

import "time"

// Attendance is one recorded attendance for (student, course, date).
type Attendance struct {
	ID        string    `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"-"`
	StudentID string    `db:"student_id" json:"student_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Date      time.Time `db:"date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AttendanceDay is one calendar day of a student's month view: which courses
// expected the student that day and which the student actually attended.
type AttendanceDay struct {
	Date              time.Time `json:"date"`
	ExpectedCourseIDs []string  `json:"expected_course_ids"`
	AttendedCourseIDs []string  `json:"attended_course_ids"`
}

// AttendanceCalendar is the month document returned to the calendar view.
// Weeks counts the Mondays in the month, the convention the calendar grid
// uses for its row count.
type AttendanceCalendar struct {
	StudentID string          `json:"student_id"`
	Year      int             `json:"year"`
	Month     int             `json:"month"`
	Weeks     int             `json:"weeks"`
	Days      []AttendanceDay `json:"days"`
}
