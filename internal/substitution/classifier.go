package substitution

import (
	"fmt"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

// slotContext holds what every candidate classification for one slot shares.
type slotContext struct {
	slot           SlotKey
	lesson         models.Lesson
	class          models.Class
	exam           *ExamGovernance
	freeSpecialist bool
}

// availability is a candidate's situation at the slot's period.
type availability struct {
	lesson     models.Lesson
	hasLesson  bool
	displaced  bool
	consumedBy *models.CalendarOverlay
	covering   *SlotKey
	span       Span
	hasSpan    bool
}

func (a availability) onDuty(period int) bool {
	return a.hasSpan && a.span.Contains(period)
}

func (a availability) free(period int) bool {
	if a.covering != nil || a.consumedBy != nil || !a.onDuty(period) {
		return false
	}
	return !a.hasLesson || a.displaced
}

func (b *Board) newSlotContext(slot SlotKey, lesson models.Lesson) slotContext {
	sc := slotContext{slot: slot, lesson: lesson, class: b.classes[lesson.ClassID]}
	if exam, ok := b.overlays.ExamFor(b.date, slot.Period, lesson.ClassID); ok {
		sc.exam = &exam
		sc.freeSpecialist = b.freeSpecialistExists(slot, exam)
	}
	return sc
}

func (b *Board) freeSpecialistExists(slot SlotKey, exam ExamGovernance) bool {
	if exam.Subject == "" {
		return false
	}
	for id := range b.teachers {
		if b.IsAbsent(id) || !b.timetable.TeachesSubject(id, exam.Subject) {
			continue
		}
		if b.availabilityOf(id, slot, exam.OverlayID).free(slot.Period) {
			return true
		}
	}
	return false
}

// availabilityOf ignores the overlay named by governing when deciding whether the teacher is consumed.
func (b *Board) availabilityOf(teacherID string, slot SlotKey, governing string) availability {
	var av availability
	period := slot.Period
	av.span, av.hasSpan = b.timetable.DailySpan(teacherID, b.weekday)
	if lesson, ok := b.timetable.LessonAt(teacherID, b.weekday, period); ok {
		av.lesson, av.hasLesson = lesson, true
		_, av.displaced = b.overlays.Displaces(b.date, period, lesson.ClassID)
	}
	if overlay, ok := b.overlays.Consumes(b.date, period, teacherID, governing); ok {
		av.consumedBy = &overlay
	}
	if held, ok := b.assignments.HeldBy(teacherID, period); ok && held != slot {
		av.covering = &held
	}
	return av
}

// classify derives the status tag of a candidate for the slot. First match wins.
func (b *Board) classify(t models.Teacher, sc slotContext) (StatusTag, string) {
	period := sc.slot.Period
	governing := ""
	if sc.exam != nil {
		governing = sc.exam.OverlayID
	}
	av := b.availabilityOf(t.ID, sc.slot, governing)

	if b.pool.Has(t.ID) && av.covering == nil {
		if av.consumedBy != nil {
			return StatusBusyEvent, fmt.Sprintf("in reserve pool but involved in %s", describeOverlay(*av.consumedBy))
		}
		return StatusPoolReady, "activated as reserve for the day"
	}

	if sc.exam != nil {
		if tag, why, ok := b.classifyExam(t, sc, av); ok {
			return tag, why
		}
	}

	switch {
	case av.covering != nil:
		return StatusBusyCoverage, fmt.Sprintf("already covering %s at period %d", b.teachers[av.covering.AbsentTeacherID].FullName, period)
	case av.consumedBy != nil:
		return StatusBusyEvent, fmt.Sprintf("involved in %s", describeOverlay(*av.consumedBy))
	case av.hasLesson && av.displaced:
		return StatusFreed, fmt.Sprintf("class %s is away at period %d", b.className(av.lesson.ClassID), period)
	case t.External:
		return StatusExternal, "external teacher, not activated in the reserve pool"
	case !av.hasLesson:
		if av.onDuty(period) {
			return StatusFreeWindow, fmt.Sprintf("free at period %d, teaching periods %s", period, av.span)
		}
		if av.hasSpan {
			return StatusOffDuty, fmt.Sprintf("outside teaching periods %s", av.span)
		}
		return StatusOffDuty, "no lessons today"
	}

	switch av.lesson.Kind {
	case models.LessonStay:
		return StatusStay, fmt.Sprintf("stay lesson with %s can be swapped", b.className(av.lesson.ClassID))
	case models.LessonIndividualSupport:
		return StatusIndividualSupport, fmt.Sprintf("individual support with %s can be swapped", b.className(av.lesson.ClassID))
	case models.LessonSharedSupport:
		return StatusSharedSupport, fmt.Sprintf("shared support with %s can be swapped", b.className(av.lesson.ClassID))
	default:
		return StatusBusy, fmt.Sprintf("teaching %s in %s", av.lesson.Subject, b.className(av.lesson.ClassID))
	}
}

func (b *Board) classifyExam(t models.Teacher, sc slotContext, av availability) (StatusTag, string, bool) {
	period := sc.slot.Period
	exam := sc.exam
	className := b.className(sc.lesson.ClassID)
	note := func(why string) string {
		if exam.PlannerID == t.ID {
			return why + ", planned this exam"
		}
		return why
	}

	if sc.class.IsHomeroomOf(t.ID) {
		if av.covering != nil || av.consumedBy != nil {
			return StatusBusyHomeroom, fmt.Sprintf("homeroom teacher of %s, busy elsewhere at period %d", className, period), true
		}
		switch {
		case av.hasLesson && av.lesson.Kind == models.LessonStay:
			return StatusHomeroomStay, note(fmt.Sprintf("homeroom teacher of %s, stay lesson can be swapped", className)), true
		case !av.hasLesson || av.displaced:
			if av.onDuty(period) {
				return StatusHomeroomFree, note(fmt.Sprintf("homeroom teacher of %s, free for the exam", className)), true
			}
		case av.lesson.Kind == models.LessonIndividualSupport:
			return StatusHomeroomSupport, note(fmt.Sprintf("homeroom teacher of %s, leaves individual support", className)), true
		default:
			return StatusBusyHomeroom, fmt.Sprintf("homeroom teacher of %s, teaching %s", className, b.className(av.lesson.ClassID)), true
		}
	}

	if b.timetable.TeachesSubject(t.ID, exam.Subject) {
		if av.free(period) {
			return StatusSpecialist, note(fmt.Sprintf("teaches %s, free for the exam", exam.Subject)), true
		}
		if av.covering != nil || (av.consumedBy != nil && av.consumedBy.EventType == models.OverlayExam) {
			return StatusBusySpecialist, fmt.Sprintf("teaches %s, busy with another exam section", exam.Subject), true
		}
	}

	if !sc.freeSpecialist && av.free(period) {
		return StatusSupportProctor, note(fmt.Sprintf("no free %s specialist, can proctor", subjectOrExam(exam.Subject))), true
	}
	return "", "", false
}

// assess classifies a candidate and applies the continuity rule for external teachers.
func (b *Board) assess(t models.Teacher, sc slotContext) CandidateAssessment {
	tag, why := b.classify(t, sc)
	if t.External && sc.lesson.RequiresContinuity() {
		tag = StatusBlockedContinuity
		why = fmt.Sprintf("%s lessons stay with school staff", sc.lesson.Kind)
	}
	return CandidateAssessment{
		TeacherID:   t.ID,
		TeacherName: t.FullName,
		External:    t.External,
		Status:      tag,
		Priority:    tag.Priority(),
		Label:       tag.Label(),
		Rationale:   why,
		Blocked:     tag.Blocked(),
	}
}

func (b *Board) className(classID string) string {
	if c, ok := b.classes[classID]; ok && c.Name != "" {
		return c.Name
	}
	return classID
}

func describeOverlay(o models.CalendarOverlay) string {
	if o.GoverningSubject != nil && *o.GoverningSubject != "" {
		return fmt.Sprintf("%s %s", o.EventType, *o.GoverningSubject)
	}
	return string(o.EventType)
}

func subjectOrExam(subject string) string {
	if subject == "" {
		return "exam"
	}
	return subject
}
