package substitution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

// bulkInput: Tono is absent at periods 2, 3 and 4, Umar is absent at period 3.
// Sari teaches 1 and 6 and is free in between.
func bulkInput() BoardInput {
	return BoardInput{
		Date:          monday,
		PeriodsPerDay: 8,
		Teachers: []models.Teacher{
			teacher("t-tono", "Tono"),
			teacher("t-umar", "Umar"),
			teacher("t-sari", "Sari"),
			teacher("t-vina", "Vina"),
		},
		Classes: []models.Class{class("11A"), class("11B"), class("11C")},
		Lessons: []models.Lesson{
			lesson("t-tono", "11A", "Math", 2, models.LessonOrdinary),
			lesson("t-tono", "11A", "Math", 3, models.LessonOrdinary),
			lesson("t-tono", "11A", "Math", 4, models.LessonOrdinary),
			lesson("t-umar", "11B", "Chemistry", 3, models.LessonOrdinary),
			lesson("t-sari", "11C", "Art", 1, models.LessonOrdinary),
			lesson("t-sari", "11C", "Art", 6, models.LessonOrdinary),
			lesson("t-vina", "11C", "Music", 2, models.LessonOrdinary),
			lesson("t-vina", "11C", "Music", 4, models.LessonOrdinary),
		},
		Absences: []models.Absence{absentAllDay("t-tono"), absentAllDay("t-umar")},
	}
}

func TestBulkAssignForTeacherCollectsConflicts(t *testing.T) {
	board := NewBoard(bulkInput())
	require.NoError(t, board.Assign(SlotKey{AbsentTeacherID: "t-umar", Period: 3}, "t-sari"))

	result, err := board.BulkAssignForTeacher(context.Background(), "t-tono", "t-sari")
	require.NoError(t, err)
	assert.Equal(t, []SlotKey{{"t-tono", 2}, {"t-tono", 4}}, result.Assigned)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, SlotKey{"t-tono", 3}, result.Failed[0].Slot)
	var conflict *ConflictError
	assert.ErrorAs(t, result.Failed[0].Err, &conflict)

	snap := board.Snapshot()
	assert.Equal(t, "t-sari", snap[SlotKey{"t-tono", 2}].SubstituteID)
	assert.Equal(t, "t-sari", snap[SlotKey{"t-tono", 4}].SubstituteID)
	assert.False(t, snap[SlotKey{"t-tono", 3}].IsResolved())
}

func TestBulkAssignForTeacherSkipsResolvedSlots(t *testing.T) {
	board := NewBoard(bulkInput())
	_, err := board.ToggleClassMerge(SlotKey{"t-tono", 2}, "11B")
	require.NoError(t, err)

	result, err := board.BulkAssignForTeacher(context.Background(), "t-tono", "t-sari")
	require.NoError(t, err)
	assert.Equal(t, []SlotKey{{"t-tono", 2}}, result.Skipped)
	assert.Len(t, result.Assigned, 2)
	assert.Empty(t, result.Failed)
}

func TestBulkAssignForTeacherReportsIneligible(t *testing.T) {
	board := NewBoard(bulkInput())

	result, err := board.BulkAssignForTeacher(context.Background(), "t-tono", "t-vina")
	require.NoError(t, err)
	assert.Equal(t, []SlotKey{{"t-tono", 3}}, result.Assigned)
	require.Len(t, result.Failed, 2)
	for _, failure := range result.Failed {
		var ineligible *IneligibleCandidateError
		assert.ErrorAs(t, failure.Err, &ineligible)
	}

	_, err = board.BulkAssignForTeacher(context.Background(), "ghost", "t-vina")
	assert.ErrorIs(t, err, ErrUnknownTeacher)
}

func TestBulkAssignStopsWhenCancelled(t *testing.T) {
	board := NewBoard(bulkInput())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := board.BulkAssignForTeacher(ctx, "t-tono", "t-sari")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Assigned)
	assert.Empty(t, board.assignments.Snapshot())
}

func TestBatchAutoAssignIsGreedyPerPeriod(t *testing.T) {
	board := NewBoard(bulkInput())

	report, err := board.BatchAutoAssign(context.Background())
	require.NoError(t, err)

	// Period 2: only Sari is free. Period 3: Sari goes to Tono (name order), Vina to Umar.
	// Period 4: Sari again.
	assigned := map[SlotKey]string{}
	for _, p := range report.Assigned {
		assigned[p.Slot] = p.SubstituteID
	}
	assert.Equal(t, map[SlotKey]string{
		{"t-tono", 2}: "t-sari",
		{"t-tono", 3}: "t-sari",
		{"t-umar", 3}: "t-vina",
		{"t-tono", 4}: "t-sari",
	}, assigned)
	assert.Empty(t, report.Unresolved)
}

func TestBatchAutoAssignLeavesUnfillableSlots(t *testing.T) {
	in := bulkInput()
	in.Lessons = in.Lessons[:6] // drop Vina's lessons, she is off duty all day
	board := NewBoard(in)
	require.NoError(t, board.Unassign(SlotKey{"t-umar", 3}))

	report, err := board.BatchAutoAssign(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Assigned, 3)
	assert.Equal(t, []SlotKey{{"t-umar", 3}}, report.Unresolved)

	// Already resolved slots are never overwritten on a second pass.
	again, err := board.BatchAutoAssign(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again.Assigned)
	assert.Equal(t, []SlotKey{{"t-umar", 3}}, again.Unresolved)
}
