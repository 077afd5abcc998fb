package substitution

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

var dayNameIndex = map[string]string{
	"1": "MONDAY", "MON": "MONDAY", "MONDAY": "MONDAY", "SENIN": "MONDAY",
	"2": "TUESDAY", "TUE": "TUESDAY", "TUESDAY": "TUESDAY", "SELASA": "TUESDAY",
	"3": "WEDNESDAY", "WED": "WEDNESDAY", "WEDNESDAY": "WEDNESDAY", "RABU": "WEDNESDAY",
	"4": "THURSDAY", "THU": "THURSDAY", "THURSDAY": "THURSDAY", "KAMIS": "THURSDAY",
	"5": "FRIDAY", "FRI": "FRIDAY", "FRIDAY": "FRIDAY", "JUMAT": "FRIDAY", "JUM'AT": "FRIDAY",
	"6": "SATURDAY", "SAT": "SATURDAY", "SATURDAY": "SATURDAY", "SABTU": "SATURDAY",
	"7": "SUNDAY", "SUN": "SUNDAY", "SUNDAY": "SUNDAY", "MINGGU": "SUNDAY",
}

// NormalizeDayName maps english, indonesian, abbreviated and numeric (1=Monday)
// day names onto the canonical upper-case english name. Unknown input yields "".
func NormalizeDayName(raw string) string {
	return dayNameIndex[strings.ToUpper(strings.TrimSpace(raw))]
}

// WeekdayOf returns the canonical day name for a calendar date.
func WeekdayOf(date time.Time) string {
	return NormalizeDayName(strings.ToUpper(date.Weekday().String()))
}

// Span is the inclusive range between a teacher's first and last lesson of a day.
type Span struct {
	First int
	Last  int
}

// Contains reports whether period lies inside the span.
func (s Span) Contains(period int) bool {
	return period >= s.First && period <= s.Last
}

// String renders the span as "first-last".
func (s Span) String() string {
	return strconv.Itoa(s.First) + "-" + strconv.Itoa(s.Last)
}

// TimetableIndex is a read-only view over the weekly timetable.
type TimetableIndex struct {
	byTeacher map[string]map[string][]models.Lesson
	subjects  map[string]map[string]struct{}
}

// NewTimetableIndex indexes lessons by teacher and weekday. Day names are normalised on the way in.
func NewTimetableIndex(lessons []models.Lesson) *TimetableIndex {
	idx := &TimetableIndex{
		byTeacher: make(map[string]map[string][]models.Lesson),
		subjects:  make(map[string]map[string]struct{}),
	}
	for _, lesson := range lessons {
		day := NormalizeDayName(lesson.DayOfWeek)
		if day == "" {
			continue
		}
		lesson.DayOfWeek = day
		if lesson.Kind == "" {
			lesson.Kind = models.LessonOrdinary
		}
		days, ok := idx.byTeacher[lesson.TeacherID]
		if !ok {
			days = make(map[string][]models.Lesson)
			idx.byTeacher[lesson.TeacherID] = days
		}
		days[day] = append(days[day], lesson)

		if lesson.Subject != "" {
			subs, ok := idx.subjects[lesson.TeacherID]
			if !ok {
				subs = make(map[string]struct{})
				idx.subjects[lesson.TeacherID] = subs
			}
			subs[strings.ToLower(lesson.Subject)] = struct{}{}
		}
	}
	for _, days := range idx.byTeacher {
		for day := range days {
			list := days[day]
			sort.SliceStable(list, func(i, j int) bool { return list[i].Period < list[j].Period })
		}
	}
	return idx
}

// LessonsFor returns the teacher's lessons for the weekday ordered by period.
func (t *TimetableIndex) LessonsFor(teacherID, weekday string) []models.Lesson {
	return t.byTeacher[teacherID][NormalizeDayName(weekday)]
}

// LessonAt returns the lesson a teacher gives at the period, if any.
func (t *TimetableIndex) LessonAt(teacherID, weekday string, period int) (models.Lesson, bool) {
	for _, lesson := range t.LessonsFor(teacherID, weekday) {
		if lesson.Period == period {
			return lesson, true
		}
	}
	return models.Lesson{}, false
}

// HasLessons reports whether the teacher teaches at all on the weekday.
func (t *TimetableIndex) HasLessons(teacherID, weekday string) bool {
	return len(t.LessonsFor(teacherID, weekday)) > 0
}

// DailySpan returns the first and last period the teacher teaches on the weekday.
func (t *TimetableIndex) DailySpan(teacherID, weekday string) (Span, bool) {
	lessons := t.LessonsFor(teacherID, weekday)
	if len(lessons) == 0 {
		return Span{}, false
	}
	return Span{First: lessons[0].Period, Last: lessons[len(lessons)-1].Period}, true
}

// TeachesSubject reports whether the teacher has any lesson of the subject in the week.
func (t *TimetableIndex) TeachesSubject(teacherID, subject string) bool {
	if subject == "" {
		return false
	}
	_, ok := t.subjects[teacherID][strings.ToLower(subject)]
	return ok
}
