package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/dto"
	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/substitution"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

const testDate = "2025-01-06"

type stubRoster struct {
	teachers []models.Teacher
	err      error
}

func (s *stubRoster) ListActive(context.Context) ([]models.Teacher, error) {
	return s.teachers, s.err
}

func (s *stubRoster) FindByID(_ context.Context, id string) (*models.Teacher, error) {
	for _, t := range s.teachers {
		if t.ID == id {
			t := t
			return &t, nil
		}
	}
	return nil, sql.ErrNoRows
}

type stubClasses struct{ classes []models.Class }

func (s *stubClasses) ListAll(context.Context) ([]models.Class, error) { return s.classes, nil }

type stubLessons struct{ lessons []models.Lesson }

func (s *stubLessons) ListAll(context.Context) ([]models.Lesson, error) { return s.lessons, nil }

type stubOverlays struct{}

func (stubOverlays) ListOn(context.Context, time.Time) ([]models.CalendarOverlay, error) {
	return nil, nil
}

type stubAbsences struct {
	items    []models.Absence
	upserted []models.Absence
}

func (s *stubAbsences) ListByDate(context.Context, time.Time) ([]models.Absence, error) {
	return s.items, nil
}

func (s *stubAbsences) Upsert(_ context.Context, a *models.Absence) error {
	a.ID = "abs-new"
	s.upserted = append(s.upserted, *a)
	s.items = append(s.items, *a)
	return nil
}

type stubSaver struct {
	date    time.Time
	records []models.Substitution
	err     error
}

func (s *stubSaver) SaveForDate(_ context.Context, date time.Time, records []models.Substitution) error {
	s.date = date
	s.records = records
	return s.err
}

type memoryCache struct {
	items       map[string][]byte
	invalidated []string
}

func newMemoryCache() *memoryCache { return &memoryCache{items: map[string][]byte{}} }

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	m.invalidated = append(m.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			delete(m.items, k)
		}
	}
	return nil
}

type serviceFixture struct {
	svc      *SubstitutionService
	roster   *stubRoster
	absences *stubAbsences
	saver    *stubSaver
}

func strRef(s string) *string { return &s }
func intRef(i int) *int       { return &i }

// Adi (10A, periods 1-2) and Fajar (10C, period 2) are absent. Budi and Citra teach periods 1 and 3,
// so both are free at period 2 and busy at period 1. Xena is external with no lessons.
func newServiceFixture(t *testing.T, cacheSvc *CacheService) *serviceFixture {
	t.Helper()
	monday := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	roster := &stubRoster{teachers: []models.Teacher{
		{ID: "adi", FullName: "Adi", Active: true},
		{ID: "budi", FullName: "Budi", Active: true},
		{ID: "citra", FullName: "Citra", Active: true},
		{ID: "fajar", FullName: "Fajar", Active: true},
		{ID: "xena", FullName: "Xena", Active: true, External: true},
		{ID: "gone", FullName: "Gone", Active: false},
	}}
	classes := &stubClasses{classes: []models.Class{
		{ID: "10A", Name: "X-A", AssistantID: strRef("asst-1")},
		{ID: "10B", Name: "X-B"},
		{ID: "10C", Name: "X-C"},
	}}
	lessons := &stubLessons{lessons: []models.Lesson{
		{ID: "l1", TeacherID: "adi", ClassID: "10A", Subject: "Math", DayOfWeek: "MONDAY", Period: 1},
		{ID: "l2", TeacherID: "adi", ClassID: "10A", Subject: "Math", DayOfWeek: "MONDAY", Period: 2},
		{ID: "l3", TeacherID: "budi", ClassID: "10B", Subject: "Physics", DayOfWeek: "MONDAY", Period: 1},
		{ID: "l4", TeacherID: "budi", ClassID: "10B", Subject: "Physics", DayOfWeek: "MONDAY", Period: 3},
		{ID: "l5", TeacherID: "citra", ClassID: "10B", Subject: "Biology", DayOfWeek: "MONDAY", Period: 1},
		{ID: "l6", TeacherID: "citra", ClassID: "10C", Subject: "Biology", DayOfWeek: "MONDAY", Period: 3},
		{ID: "l7", TeacherID: "fajar", ClassID: "10C", Subject: "History", DayOfWeek: "MONDAY", Period: 2},
	}}
	absences := &stubAbsences{items: []models.Absence{
		{ID: "a1", EmployeeID: "adi", Date: monday},
		{ID: "a2", EmployeeID: "fajar", Date: monday},
	}}
	saver := &stubSaver{}

	svc := NewSubstitutionService(SubstitutionSources{
		Teachers:      roster,
		Classes:       classes,
		Lessons:       lessons,
		Overlays:      stubOverlays{},
		Absences:      absences,
		Substitutions: saver,
	}, cacheSvc, nil, SubstitutionConfig{PeriodsPerDay: 8}, nil, nil)
	svc.now = func() time.Time { return monday.Add(7 * time.Hour) }

	return &serviceFixture{svc: svc, roster: roster, absences: absences, saver: saver}
}

func requireAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected app error, got %T", err)
	assert.Equal(t, code, appErr.Code)
}

func candidateIDs(list []substitution.CandidateAssessment) []string {
	ids := make([]string, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.TeacherID)
	}
	return ids
}

func TestSubstitutionServiceSlotsListsAbsentLessons(t *testing.T) {
	f := newServiceFixture(t, nil)

	resp, err := f.svc.Slots(context.Background(), testDate)
	require.NoError(t, err)
	require.Len(t, resp.Slots, 3)
	assert.Equal(t, "Adi", resp.Slots[0].AbsentTeacherName)
	assert.Equal(t, 1, resp.Slots[0].Period)
	assert.Equal(t, "X-A", resp.Slots[0].ClassName)
	assert.Equal(t, substitution.Unresolved, resp.Slots[0].Resolution.Kind)
	assert.Equal(t, "fajar", resp.Slots[2].AbsentTeacherID)
}

func TestSubstitutionServiceCandidatesRanksFreeTeachers(t *testing.T) {
	f := newServiceFixture(t, nil)

	resp, err := f.svc.Candidates(context.Background(), testDate, "adi", 2, "")
	require.NoError(t, err)
	assert.Equal(t, substitution.FilterRecommended, resp.Filter)
	assert.Equal(t, []string{"budi", "citra"}, candidateIDs(resp.Candidates))

	all, err := f.svc.Candidates(context.Background(), testDate, "adi", 2, "all")
	require.NoError(t, err)
	assert.Contains(t, candidateIDs(all.Candidates), "xena")
	assert.NotContains(t, candidateIDs(all.Candidates), "fajar")
}

func TestSubstitutionServiceCandidatesRejectsBadInput(t *testing.T) {
	f := newServiceFixture(t, nil)

	_, err := f.svc.Candidates(context.Background(), testDate, "adi", 2, "best")
	requireAppError(t, err, appErrors.ErrValidation.Code)

	_, err = f.svc.Candidates(context.Background(), "06/01/2025", "adi", 2, "")
	requireAppError(t, err, appErrors.ErrValidation.Code)

	_, err = f.svc.Candidates(context.Background(), testDate, "budi", 2, "")
	requireAppError(t, err, appErrors.ErrNotFound.Code)

	_, err = f.svc.Candidates(context.Background(), testDate, "adi", 9, "")
	requireAppError(t, err, appErrors.ErrValidation.Code)
}

func TestSubstitutionServiceAssignAndConflict(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	resp, err := f.svc.Assign(ctx, testDate, "adi", 2, dto.AssignRequest{SubstituteID: "budi"})
	require.NoError(t, err)
	assert.Equal(t, substitution.SubstituteAssigned, resp.Resolution.Kind)
	assert.Equal(t, "Budi", resp.Resolution.SubstituteName)
	assert.True(t, resp.Applied)

	_, err = f.svc.Assign(ctx, testDate, "fajar", 2, dto.AssignRequest{SubstituteID: "budi"})
	requireAppError(t, err, appErrors.ErrConflict.Code)

	ranked, err := f.svc.Candidates(ctx, testDate, "fajar", 2, "recommended")
	require.NoError(t, err)
	assert.Equal(t, []string{"citra", "budi"}, candidateIDs(ranked.Candidates))
	assert.Equal(t, substitution.StatusBusyCoverage, ranked.Candidates[1].Status)
	assert.True(t, ranked.Candidates[1].Blocked)
}

func TestSubstitutionServiceAssignRejectsIneligible(t *testing.T) {
	f := newServiceFixture(t, nil)

	_, err := f.svc.Assign(context.Background(), testDate, "adi", 1, dto.AssignRequest{SubstituteID: "budi"})
	requireAppError(t, err, appErrors.ErrIneligible.Code)

	_, err = f.svc.Assign(context.Background(), testDate, "adi", 1, dto.AssignRequest{})
	requireAppError(t, err, appErrors.ErrValidation.Code)
}

func TestSubstitutionServiceUnassignIsIdempotent(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Assign(ctx, testDate, "adi", 2, dto.AssignRequest{SubstituteID: "citra"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		resp, err := f.svc.Unassign(ctx, testDate, "adi", 2)
		require.NoError(t, err)
		assert.Equal(t, substitution.Unresolved, resp.Resolution.Kind)
	}
}

func TestSubstitutionServiceToggleAssistant(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	resp, err := f.svc.ToggleAssistant(ctx, testDate, "adi", 1)
	require.NoError(t, err)
	assert.True(t, resp.Applied)
	assert.Equal(t, substitution.AssistantCovered, resp.Resolution.Kind)

	resp, err = f.svc.ToggleAssistant(ctx, testDate, "fajar", 2)
	require.NoError(t, err)
	assert.False(t, resp.Applied)
	assert.Contains(t, resp.Reason, "10C")
	assert.Equal(t, substitution.Unresolved, resp.Resolution.Kind)
}

func TestSubstitutionServiceToggleMerge(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	resp, err := f.svc.ToggleMerge(ctx, testDate, "fajar", 2, dto.MergeRequest{TargetClassID: "10B"})
	require.NoError(t, err)
	assert.Equal(t, substitution.ClassMerged, resp.Resolution.Kind)
	assert.Equal(t, "X-B", resp.Resolution.TargetClassName)

	resp, err = f.svc.ToggleMerge(ctx, testDate, "fajar", 2, dto.MergeRequest{TargetClassID: "10B"})
	require.NoError(t, err)
	assert.Equal(t, substitution.Unresolved, resp.Resolution.Kind)

	_, err = f.svc.ToggleMerge(ctx, testDate, "fajar", 2, dto.MergeRequest{TargetClassID: "10C"})
	requireAppError(t, err, appErrors.ErrValidation.Code)
}

func TestSubstitutionServiceBulkAndAuto(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	bulk, err := f.svc.BulkAssign(ctx, testDate, dto.BulkAssignRequest{AbsentTeacherID: "adi", SubstituteID: "citra"})
	require.NoError(t, err)
	assert.Equal(t, []substitution.SlotKey{{AbsentTeacherID: "adi", Period: 2}}, bulk.Assigned)
	require.Len(t, bulk.Failed, 1)
	assert.Equal(t, appErrors.ErrIneligible.Code, bulk.Failed[0].Code)
	assert.Empty(t, bulk.Skipped)

	auto, err := f.svc.AutoAssign(ctx, testDate)
	require.NoError(t, err)
	require.Len(t, auto.Assigned, 1)
	assert.Equal(t, "fajar", auto.Assigned[0].Slot.AbsentTeacherID)
	assert.Equal(t, "budi", auto.Assigned[0].SubstituteID)
	assert.Equal(t, []substitution.SlotKey{{AbsentTeacherID: "adi", Period: 1}}, auto.Unresolved)
}

func TestSubstitutionServicePoolConfirmGate(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.ActivatePool(ctx, testDate, dto.PoolRequest{TeacherID: "xena"})
	requireAppError(t, err, appErrors.ErrPreconditionFailed.Code)

	resp, err := f.svc.ActivatePool(ctx, testDate, dto.PoolRequest{TeacherID: "xena", Confirm: true})
	require.NoError(t, err)
	assert.True(t, resp.Changed)
	require.Len(t, resp.Pool.OnCall, 1)
	assert.Equal(t, "Xena", resp.Pool.OnCall[0].TeacherName)

	resp, err = f.svc.ActivatePool(ctx, testDate, dto.PoolRequest{TeacherID: "budi"})
	require.NoError(t, err)
	assert.Len(t, resp.Pool.Available, 1)

	ranked, err := f.svc.Candidates(ctx, testDate, "adi", 2, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"budi", "xena", "citra"}, candidateIDs(ranked.Candidates))

	_, err = f.svc.ActivatePool(ctx, testDate, dto.PoolRequest{TeacherID: "adi", Confirm: true})
	requireAppError(t, err, appErrors.ErrIneligible.Code)

	_, err = f.svc.ActivatePool(ctx, testDate, dto.PoolRequest{TeacherID: "nobody"})
	requireAppError(t, err, appErrors.ErrNotFound.Code)

	out, err := f.svc.DeactivatePool(ctx, testDate, "xena")
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Empty(t, out.Pool.OnCall)
}

func TestSubstitutionServiceSavePersistsSubstitutesOnly(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Assign(ctx, testDate, "adi", 2, dto.AssignRequest{SubstituteID: "budi"})
	require.NoError(t, err)
	_, err = f.svc.ToggleAssistant(ctx, testDate, "adi", 1)
	require.NoError(t, err)

	resp, err := f.svc.Save(ctx, testDate)
	require.NoError(t, err)
	require.Len(t, resp.Saved, 1)
	assert.Equal(t, "budi", resp.Saved[0].SubstituteTeacherID)
	assert.NotEmpty(t, resp.Saved[0].ID)
	require.Len(t, resp.NotPersisted, 1)
	assert.Equal(t, substitution.AssistantCovered, resp.NotPersisted[0].Resolution.Kind)
	assert.Equal(t, []substitution.SlotKey{{AbsentTeacherID: "fajar", Period: 2}}, resp.Unresolved)

	assert.Equal(t, testDate, f.saver.date.Format(dateLayout))
	assert.Len(t, f.saver.records, 1)
}

func TestSubstitutionServiceSaveFailure(t *testing.T) {
	f := newServiceFixture(t, nil)
	f.saver.err = errors.New("tx aborted")

	_, err := f.svc.Save(context.Background(), testDate)
	requireAppError(t, err, appErrors.ErrInternal.Code)
}

func TestSubstitutionServiceExport(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Assign(ctx, testDate, "adi", 2, dto.AssignRequest{SubstituteID: "budi"})
	require.NoError(t, err)

	file, err := f.svc.Export(ctx, testDate, "")
	require.NoError(t, err)
	assert.Equal(t, "cover-2025-01-06.csv", file.Filename)
	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Absent teacher,Period,Class,Subject,Cover,Arrangement", lines[0])
	assert.Equal(t, "Adi,1,X-A,Math,,UNCOVERED", lines[1])
	assert.Equal(t, "Adi,2,X-A,Math,Budi,substitute", lines[2])

	pdf, err := f.svc.Export(ctx, testDate, "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)

	_, err = f.svc.Export(ctx, testDate, "xlsx")
	requireAppError(t, err, appErrors.ErrValidation.Code)
}

func TestSubstitutionServiceRecordAbsenceOnOpenBoard(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Assign(ctx, testDate, "adi", 2, dto.AssignRequest{SubstituteID: "citra"})
	require.NoError(t, err)

	resp, err := f.svc.RecordAbsence(ctx, dto.RecordAbsenceRequest{EmployeeID: "citra", Date: testDate, StartPeriod: intRef(1), EndPeriod: intRef(3)})
	require.NoError(t, err)
	assert.Equal(t, []substitution.SlotKey{{AbsentTeacherID: "adi", Period: 2}}, resp.Released)
	require.Len(t, f.absences.upserted, 1)

	slots, err := f.svc.Slots(ctx, testDate)
	require.NoError(t, err)
	var citraSlots int
	for _, s := range slots.Slots {
		if s.AbsentTeacherID == "citra" {
			citraSlots++
		}
	}
	assert.Equal(t, 2, citraSlots)
}

func TestSubstitutionServiceRecordAbsenceWithoutOpenBoard(t *testing.T) {
	f := newServiceFixture(t, nil)

	resp, err := f.svc.RecordAbsence(context.Background(), dto.RecordAbsenceRequest{EmployeeID: "budi", Date: "2025-01-07"})
	require.NoError(t, err)
	assert.Empty(t, resp.Released)
	assert.Equal(t, "abs-new", resp.Absence.ID)
}

func TestSubstitutionServiceRecordAbsenceValidation(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.RecordAbsence(ctx, dto.RecordAbsenceRequest{EmployeeID: "budi", Date: testDate, StartPeriod: intRef(4), EndPeriod: intRef(2)})
	requireAppError(t, err, appErrors.ErrValidation.Code)

	_, err = f.svc.RecordAbsence(ctx, dto.RecordAbsenceRequest{EmployeeID: "budi", Date: testDate, EndPeriod: intRef(9)})
	requireAppError(t, err, appErrors.ErrValidation.Code)

	_, err = f.svc.RecordAbsence(ctx, dto.RecordAbsenceRequest{EmployeeID: "nobody", Date: testDate})
	requireAppError(t, err, appErrors.ErrNotFound.Code)

	_, err = f.svc.RecordAbsence(ctx, dto.RecordAbsenceRequest{EmployeeID: "gone", Date: testDate})
	requireAppError(t, err, appErrors.ErrValidation.Code)

	_, err = f.svc.RecordAbsence(ctx, dto.RecordAbsenceRequest{EmployeeID: "budi", Date: "tomorrow"})
	requireAppError(t, err, appErrors.ErrValidation.Code)
	assert.Empty(t, f.absences.upserted)
}

func TestSubstitutionServiceRankingCache(t *testing.T) {
	mem := newMemoryCache()
	cacheSvc := NewCacheService(mem, nil, time.Minute, nil, true)
	f := newServiceFixture(t, cacheSvc)
	ctx := context.Background()

	first, err := f.svc.Candidates(ctx, testDate, "adi", 2, "")
	require.NoError(t, err)
	require.Len(t, mem.items, 1)

	second, err := f.svc.Candidates(ctx, testDate, "adi", 2, "")
	require.NoError(t, err)
	assert.Equal(t, candidateIDs(first.Candidates), candidateIDs(second.Candidates))

	_, err = f.svc.Assign(ctx, testDate, "adi", 2, dto.AssignRequest{SubstituteID: "budi"})
	require.NoError(t, err)
	assert.Equal(t, []string{"substitution:ranking:2025-01-06:*"}, mem.invalidated)
	assert.Empty(t, mem.items)

	third, err := f.svc.Candidates(ctx, testDate, "fajar", 2, "")
	require.NoError(t, err)
	require.Len(t, third.Candidates, 2)
	assert.Equal(t, substitution.StatusBusyCoverage, third.Candidates[1].Status)
}

func TestSubstitutionServiceLoadFailure(t *testing.T) {
	f := newServiceFixture(t, nil)
	f.roster.err = errors.New("connection refused")

	_, err := f.svc.Slots(context.Background(), testDate)
	requireAppError(t, err, appErrors.ErrInternal.Code)

	f.roster.err = nil
	_, err = f.svc.Slots(context.Background(), testDate)
	require.NoError(t, err)
}

func TestSubstitutionServiceReloadRebuildsBoard(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Assign(ctx, testDate, "adi", 2, dto.AssignRequest{SubstituteID: "budi"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Reload(testDate))

	snap, err := f.svc.Snapshot(ctx, testDate)
	require.NoError(t, err)
	for _, e := range snap.Entries {
		assert.Equal(t, substitution.Unresolved, e.Resolution.Kind)
	}
}

func TestSubstitutionServiceListAbsences(t *testing.T) {
	f := newServiceFixture(t, nil)

	items, err := f.svc.ListAbsences(context.Background(), testDate)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "adi", items[0].EmployeeID)

	_, err = f.svc.ListAbsences(context.Background(), "06-01-2025")
	requireAppError(t, err, appErrors.ErrValidation.Code)

	f.absences.items = nil
	items, err = f.svc.ListAbsences(context.Background(), testDate)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestSubstitutionServiceRecordAbsenceForTeacherNewerThanBoard(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Slots(ctx, testDate)
	require.NoError(t, err)

	f.roster.teachers = append(f.roster.teachers, models.Teacher{ID: "dewi", FullName: "Dewi", Active: true})
	lessons := f.svc.src.Lessons.(*stubLessons)
	lessons.lessons = append(lessons.lessons, models.Lesson{ID: "l8", TeacherID: "dewi", ClassID: "10B", Subject: "Art", DayOfWeek: "MONDAY", Period: 4})

	resp, err := f.svc.RecordAbsence(ctx, dto.RecordAbsenceRequest{EmployeeID: "dewi", Date: testDate})
	require.NoError(t, err)
	assert.Empty(t, resp.Released)
	require.Len(t, f.absences.upserted, 1)

	slots, err := f.svc.Slots(ctx, testDate)
	require.NoError(t, err)
	require.Len(t, slots.Slots, 4)
	var found bool
	for _, item := range slots.Slots {
		if item.AbsentTeacherID == "dewi" && item.Period == 4 {
			found = true
		}
	}
	assert.True(t, found)
}
