package models

// Class represents an academic class or section.
type Class struct {
	ID                string  `db:"id" json:"id"`
	Name              string  `db:"name" json:"name"`
	Grade             string  `db:"grade" json:"grade"`
	HomeroomTeacherID *string `db:"homeroom_teacher_id" json:"homeroom_teacher_id,omitempty"`
	AssistantID       *string `db:"assistant_id" json:"assistant_id,omitempty"`
}

// HasAssistant reports whether a classroom assistant is configured.
func (c Class) HasAssistant() bool {
	return c.AssistantID != nil && *c.AssistantID != ""
}

// IsHomeroomOf reports whether teacherID owns the class as homeroom teacher.
func (c Class) IsHomeroomOf(teacherID string) bool {
	return c.HomeroomTeacherID != nil && *c.HomeroomTeacherID == teacherID
}
