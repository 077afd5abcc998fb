package models

import "time"

// Substitution is the permanent record of a substitute covering an absent teacher's period.
type Substitution struct {
	ID                  string    `db:"id" json:"id"`
	AbsentTeacherID     string    `db:"absent_teacher_id" json:"absent_teacher_id"`
	Period              int       `db:"period" json:"period"`
	Date                time.Time `db:"substitution_date" json:"date"`
	SubstituteTeacherID string    `db:"substitute_teacher_id" json:"substitute_teacher_id"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}
