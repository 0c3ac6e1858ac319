package models

import "time"

// Teacher represents a studio instructor.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"-"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Active    bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TeacherFilter scopes teacher listing queries.
type TeacherFilter struct {
	Query  string
	Active *bool
	Limit  int
	Offset int
}

// Room is a physical studio room courses are scheduled into.
type Room struct {
	ID       string  `db:"id" json:"id"`
	TenantID string  `db:"tenant_id" json:"-"`
	Name     string  `db:"name" json:"name"`
	Capacity *int    `db:"capacity" json:"capacity,omitempty"`
	Notes    *string `db:"notes" json:"notes,omitempty"`
}
