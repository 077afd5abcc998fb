package substitution

import (
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

var monday = time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)

func teacher(id, name string) models.Teacher {
	return models.Teacher{ID: id, FullName: name, Active: true}
}

func external(id, name string) models.Teacher {
	return models.Teacher{ID: id, FullName: name, Active: true, External: true}
}

func class(id string) models.Class {
	return models.Class{ID: id, Name: id}
}

func lesson(teacherID, classID, subject string, period int, kind models.LessonKind) models.Lesson {
	return models.Lesson{TeacherID: teacherID, ClassID: classID, Subject: subject, DayOfWeek: "MONDAY", Period: period, Kind: kind}
}

func absentAllDay(teacherID string) models.Absence {
	return models.Absence{EmployeeID: teacherID, Date: monday}
}

func exam(id, subject string, periods []int64, classes ...string) models.CalendarOverlay {
	return models.CalendarOverlay{
		ID:               id,
		Date:             monday,
		EventType:        models.OverlayExam,
		AffectedPeriods:  pq.Int64Array(periods),
		AffectedClasses:  pq.StringArray(classes),
		GoverningSubject: strPtr(subject),
	}
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

// baseInput is a Monday where Adi (t-adi) is absent with ordinary lessons at periods 1, 3 and 4.
//
//	Budi  teaches 1 and 5, free at 3 and 4
//	Citra teaches 1, 3 and 4
//	Dewi  teaches 1 and a stay lesson at 3
//	Eko   teaches 5 and 6 only
//	Xena  is external without lessons
func baseInput() BoardInput {
	return BoardInput{
		Date:          monday,
		PeriodsPerDay: 8,
		Teachers: []models.Teacher{
			teacher("t-adi", "Adi"),
			teacher("t-budi", "Budi"),
			teacher("t-citra", "Citra"),
			teacher("t-dewi", "Dewi"),
			teacher("t-eko", "Eko"),
			external("x-xena", "Xena"),
		},
		Classes: []models.Class{class("10A"), class("10B"), class("10C"), class("10D")},
		Lessons: []models.Lesson{
			lesson("t-adi", "10A", "Math", 1, models.LessonOrdinary),
			lesson("t-adi", "10A", "Math", 3, models.LessonOrdinary),
			lesson("t-adi", "10B", "Math", 4, models.LessonOrdinary),
			lesson("t-budi", "10B", "Physics", 1, models.LessonOrdinary),
			lesson("t-budi", "10B", "Physics", 5, models.LessonOrdinary),
			lesson("t-citra", "10C", "Biology", 1, models.LessonOrdinary),
			lesson("t-citra", "10C", "Biology", 3, models.LessonOrdinary),
			lesson("t-citra", "10C", "Biology", 4, models.LessonOrdinary),
			lesson("t-dewi", "10D", "Art", 1, models.LessonOrdinary),
			lesson("t-dewi", "10D", "", 3, models.LessonStay),
			lesson("t-eko", "10D", "History", 5, models.LessonOrdinary),
			lesson("t-eko", "10D", "History", 6, models.LessonOrdinary),
		},
		Absences: []models.Absence{absentAllDay("t-adi")},
	}
}

func ids(list []CandidateAssessment) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.TeacherID)
	}
	return out
}

func find(list []CandidateAssessment, id string) (CandidateAssessment, bool) {
	for _, c := range list {
		if c.TeacherID == id {
			return c, true
		}
	}
	return CandidateAssessment{}, false
}
