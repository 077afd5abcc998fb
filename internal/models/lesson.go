package models

// LessonKind distinguishes ordinary instruction from supervision-style lessons.
type LessonKind string

const (
	LessonOrdinary          LessonKind = "ORDINARY"
	LessonIndividualSupport LessonKind = "INDIVIDUAL_SUPPORT"
	LessonStay              LessonKind = "STAY"
	LessonSharedSupport     LessonKind = "SHARED_SUPPORT"
)

// Lesson is a recurring timetable entry: a teacher teaching a class at a period on a weekday.
type Lesson struct {
	ID        string     `db:"id" json:"id"`
	TeacherID string     `db:"teacher_id" json:"teacher_id"`
	ClassID   string     `db:"class_id" json:"class_id"`
	Subject   string     `db:"subject" json:"subject"`
	DayOfWeek string     `db:"day_of_week" json:"day_of_week"`
	Period    int        `db:"period" json:"period"`
	Kind      LessonKind `db:"lesson_kind" json:"lesson_kind"`
}

// RequiresContinuity reports whether the lesson must stay with institutional staff.
func (l Lesson) RequiresContinuity() bool {
	return l.Kind == LessonStay || l.Kind == LessonIndividualSupport
}
