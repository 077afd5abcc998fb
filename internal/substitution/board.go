// Package substitution ranks and resolves cover for lessons left uncovered by absent teachers.
//
// A Board holds one date's state: the timetable, calendar overlays, the absentee set, the reserve
// pool and the assignment ledger. Every read is computed from the current state, so a mutation is
// visible to the next ranking call. A Board is not safe for concurrent use; callers serialise access.
package substitution

import (
	"errors"
	"sort"
	"time"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

// DefaultPeriodsPerDay bounds period numbers when the caller does not configure it.
const DefaultPeriodsPerDay = 10

// ErrInvalidMergeTarget is returned when a class is merged into itself.
var ErrInvalidMergeTarget = errors.New("merge target must be another class")

// BoardInput carries everything a Board is built from.
type BoardInput struct {
	Date          time.Time
	PeriodsPerDay int
	Teachers      []models.Teacher
	Classes       []models.Class
	Lessons       []models.Lesson
	Overlays      []models.CalendarOverlay
	Absences      []models.Absence
}

// Board is the working state for one date.
type Board struct {
	date        time.Time
	weekday     string
	periods     int
	teachers    map[string]models.Teacher
	classes     map[string]models.Class
	timetable   *TimetableIndex
	overlays    *OverlayResolver
	absences    map[string]models.Absence
	pool        *Pool
	assignments *AssignmentMap
	epoch       uint64
}

// SlotView describes one uncovered lesson and its current resolution.
type SlotView struct {
	Slot       SlotKey       `json:"slot"`
	Lesson     models.Lesson `json:"lesson"`
	Resolution Resolution    `json:"resolution"`
}

// NewBoard builds a board. Inactive teachers are left out of the roster.
func NewBoard(in BoardInput) *Board {
	if in.PeriodsPerDay <= 0 {
		in.PeriodsPerDay = DefaultPeriodsPerDay
	}
	b := &Board{
		date:        in.Date,
		weekday:     WeekdayOf(in.Date),
		periods:     in.PeriodsPerDay,
		teachers:    make(map[string]models.Teacher, len(in.Teachers)),
		classes:     make(map[string]models.Class, len(in.Classes)),
		timetable:   NewTimetableIndex(in.Lessons),
		absences:    make(map[string]models.Absence),
		pool:        NewPool(),
		assignments: NewAssignmentMap(),
	}
	for _, t := range in.Teachers {
		if t.Active {
			b.teachers[t.ID] = t
		}
	}
	for _, c := range in.Classes {
		b.classes[c.ID] = c
	}
	b.overlays = NewOverlayResolver(in.Overlays)
	for _, a := range in.Absences {
		if _, ok := b.teachers[a.EmployeeID]; ok && dateKey(a.Date) == dateKey(in.Date) {
			b.absences[a.EmployeeID] = a
		}
	}
	return b
}

// Date returns the board's date.
func (b *Board) Date() time.Time { return b.date }

// Weekday returns the canonical day name of the board's date.
func (b *Board) Weekday() string { return b.weekday }

// Timetable exposes the read-only timetable index.
func (b *Board) Timetable() *TimetableIndex { return b.timetable }

// Overlays exposes the calendar overlay resolver.
func (b *Board) Overlays() *OverlayResolver { return b.overlays }

// Version changes whenever anything that influences a ranking changes.
func (b *Board) Version() uint64 {
	return b.assignments.Version() + b.pool.Version() + b.epoch
}

// Teacher returns a roster entry.
func (b *Board) Teacher(id string) (models.Teacher, bool) {
	t, ok := b.teachers[id]
	return t, ok
}

// Class returns a class entry.
func (b *Board) Class(id string) (models.Class, bool) {
	c, ok := b.classes[id]
	return c, ok
}

// IsAbsent reports whether the teacher is in the absentee set.
func (b *Board) IsAbsent(teacherID string) bool {
	_, ok := b.absences[teacherID]
	return ok
}

// Absentees returns the absent teacher ids ordered by name.
func (b *Board) Absentees() []string {
	ids := make([]string, 0, len(b.absences))
	for id := range b.absences {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return b.lessTeacher(ids[i], ids[j]) })
	return ids
}

// Slots lists every uncovered lesson ordered by period, then absent teacher.
func (b *Board) Slots() []SlotView {
	var views []SlotView
	for _, id := range b.Absentees() {
		absence := b.absences[id]
		for _, lesson := range b.timetable.LessonsFor(id, b.weekday) {
			if !absence.CoversPeriod(lesson.Period) {
				continue
			}
			slot := SlotKey{AbsentTeacherID: id, Period: lesson.Period}
			views = append(views, SlotView{Slot: slot, Lesson: lesson, Resolution: b.assignments.Get(slot)})
		}
	}
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].Slot.Period != views[j].Slot.Period {
			return views[i].Slot.Period < views[j].Slot.Period
		}
		return b.lessTeacher(views[i].Slot.AbsentTeacherID, views[j].Slot.AbsentTeacherID)
	})
	return views
}

// SlotsFor lists the slots of one absent teacher in period order.
func (b *Board) SlotsFor(absentTeacherID string) ([]SlotView, error) {
	if _, ok := b.teachers[absentTeacherID]; !ok {
		return nil, ErrUnknownTeacher
	}
	var views []SlotView
	for _, view := range b.Slots() {
		if view.Slot.AbsentTeacherID == absentTeacherID {
			views = append(views, view)
		}
	}
	return views, nil
}

// Resolution returns the state of a slot.
func (b *Board) Resolution(slot SlotKey) (Resolution, error) {
	if _, err := b.slotLesson(slot); err != nil {
		return Resolution{}, err
	}
	return b.assignments.Get(slot), nil
}

// Snapshot returns the state of every slot on the board, unresolved slots included.
func (b *Board) Snapshot() map[SlotKey]Resolution {
	out := make(map[SlotKey]Resolution)
	for _, view := range b.Slots() {
		out[view.Slot] = view.Resolution
	}
	return out
}

// Assign makes substituteID cover the slot. ConflictError is reported before eligibility.
func (b *Board) Assign(slot SlotKey, substituteID string) error {
	lesson, err := b.slotLesson(slot)
	if err != nil {
		return err
	}
	candidate, ok := b.teachers[substituteID]
	if !ok {
		return ErrUnknownTeacher
	}
	if held, ok := b.assignments.HeldBy(substituteID, slot.Period); ok && held != slot {
		return &ConflictError{SubstituteID: substituteID, Period: slot.Period, HeldBy: held}
	}
	if b.IsAbsent(substituteID) {
		return &IneligibleCandidateError{CandidateID: substituteID, Slot: slot, Status: StatusAbsent}
	}
	assessment := b.assess(candidate, b.newSlotContext(slot, lesson))
	if assessment.Status.Blocked() {
		return &IneligibleCandidateError{CandidateID: substituteID, Slot: slot, Status: assessment.Status}
	}
	return b.assignments.Assign(slot, substituteID)
}

// Unassign clears the slot. It is idempotent.
func (b *Board) Unassign(slot SlotKey) error {
	if _, err := b.slotLesson(slot); err != nil {
		return err
	}
	b.assignments.Unassign(slot)
	return nil
}

// ToggleAssistantCoverage flips assistant coverage for the slot. When the class has no assistant the
// slot is left as is and a NoAssistantConfiguredError is returned alongside the unchanged state.
func (b *Board) ToggleAssistantCoverage(slot SlotKey) (Resolution, error) {
	lesson, err := b.slotLesson(slot)
	if err != nil {
		return Resolution{}, err
	}
	class, ok := b.classes[lesson.ClassID]
	if !ok || !class.HasAssistant() {
		return b.assignments.Get(slot), &NoAssistantConfiguredError{ClassID: lesson.ClassID}
	}
	return b.assignments.ToggleAssistant(slot), nil
}

// ToggleClassMerge merges the slot's class into targetClassID, or clears the merge.
func (b *Board) ToggleClassMerge(slot SlotKey, targetClassID string) (Resolution, error) {
	lesson, err := b.slotLesson(slot)
	if err != nil {
		return Resolution{}, err
	}
	if targetClassID != "" {
		if _, ok := b.classes[targetClassID]; !ok {
			return Resolution{}, ErrUnknownClass
		}
		if targetClassID == lesson.ClassID {
			return Resolution{}, ErrInvalidMergeTarget
		}
	}
	return b.assignments.ToggleMerge(slot, targetClassID), nil
}

// ActivatePool adds the teacher to the reserve pool. It reports whether membership changed.
func (b *Board) ActivatePool(teacherID string) (bool, error) {
	if _, ok := b.teachers[teacherID]; !ok {
		return false, ErrUnknownTeacher
	}
	if b.IsAbsent(teacherID) {
		return false, &IneligibleCandidateError{CandidateID: teacherID, Status: StatusAbsent}
	}
	return b.pool.Activate(teacherID), nil
}

// DeactivatePool removes the teacher from the reserve pool.
func (b *Board) DeactivatePool(teacherID string) (bool, error) {
	if _, ok := b.teachers[teacherID]; !ok {
		return false, ErrUnknownTeacher
	}
	return b.pool.Deactivate(teacherID), nil
}

// IsOnCall reports whether the teacher has no lessons on the board's weekday and would have to be summoned.
func (b *Board) IsOnCall(teacherID string) bool {
	return !b.timetable.HasLessons(teacherID, b.weekday)
}

// PoolPartition splits the reserve pool into available and on-call members.
func (b *Board) PoolPartition() PoolPartition {
	return b.pool.Partition(b.weekday, b.timetable)
}

// AddAbsence registers an absence on an open board. Slots the teacher was covering are released and
// returned, as are the teacher's own resolved slots that fall outside the new window.
func (b *Board) AddAbsence(absence models.Absence) ([]SlotKey, error) {
	id := absence.EmployeeID
	if _, ok := b.teachers[id]; !ok {
		return nil, ErrUnknownTeacher
	}
	for _, p := range []*int{absence.StartPeriod, absence.EndPeriod} {
		if p != nil && (*p < 1 || *p > b.periods) {
			return nil, ErrPeriodOutOfRange
		}
	}
	var released []SlotKey
	for _, slot := range b.assignments.SlotsCoveredBy(id) {
		b.assignments.Unassign(slot)
		released = append(released, slot)
	}
	for slot := range b.assignments.Snapshot() {
		if slot.AbsentTeacherID == id && !absence.CoversPeriod(slot.Period) {
			b.assignments.Unassign(slot)
			released = append(released, slot)
		}
	}
	sort.Slice(released, func(i, j int) bool { return released[i].Period < released[j].Period })
	b.pool.Deactivate(id)
	b.absences[id] = absence
	b.epoch++
	return released, nil
}

func (b *Board) slotLesson(slot SlotKey) (models.Lesson, error) {
	if _, ok := b.teachers[slot.AbsentTeacherID]; !ok {
		return models.Lesson{}, ErrUnknownTeacher
	}
	if slot.Period < 1 || slot.Period > b.periods {
		return models.Lesson{}, ErrPeriodOutOfRange
	}
	absence, ok := b.absences[slot.AbsentTeacherID]
	if !ok || !absence.CoversPeriod(slot.Period) {
		return models.Lesson{}, ErrUnknownSlot
	}
	lesson, ok := b.timetable.LessonAt(slot.AbsentTeacherID, b.weekday, slot.Period)
	if !ok {
		return models.Lesson{}, ErrUnknownSlot
	}
	return lesson, nil
}

func (b *Board) lessTeacher(a, c string) bool {
	na, nc := b.teachers[a].FullName, b.teachers[c].FullName
	if na != nc {
		return na < nc
	}
	return a < c
}
