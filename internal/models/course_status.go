package models

// CourseStatusRow is one roster row of the course-status screen: the student's
// current enrollment on a course enriched with derived billing state.
type CourseStatusRow struct {
	Student       Student    `json:"student"`
	Enrollment    Enrollment `json:"enrollment"`
	PaymentStatus string     `json:"payment_status"`
	Expected      int        `json:"expected"`
	Attended      int        `json:"attended"`
	ExtraOutside  int        `json:"extra_outside"`
	BirthdayToday bool       `json:"birthday_today"`
}

// CourseStatus groups the enriched roster under its course.
type CourseStatus struct {
	Course CourseDetail      `json:"course"`
	Roster []CourseStatusRow `json:"roster"`
}

// CourseStatusFilter scopes the course-status board composition.
type CourseStatusFilter struct {
	DayOfWeek      *int
	AttendanceDays *int
	Limit          int
	Offset         int
}
