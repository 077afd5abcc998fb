package models

import "time"

// Teacher represents an instructor record. External teachers are on-call staff
// who are not part of the permanent faculty.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Active    bool      `db:"active" json:"active"`
	External  bool      `db:"external" json:"external"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
