package substitution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

// twoAbsentees extends the base board with Fajar, absent and teaching 10D at period 4.
func twoAbsentees() BoardInput {
	in := baseInput()
	in.Teachers = append(in.Teachers, teacher("t-fajar", "Fajar"))
	in.Lessons = append(in.Lessons, lesson("t-fajar", "10D", "Music", 4, models.LessonOrdinary))
	in.Absences = append(in.Absences, absentAllDay("t-fajar"))
	return in
}

func TestAssignConflictAcrossSlotsInSamePeriod(t *testing.T) {
	board := NewBoard(twoAbsentees())
	first := SlotKey{AbsentTeacherID: "t-adi", Period: 4}
	second := SlotKey{AbsentTeacherID: "t-fajar", Period: 4}

	require.NoError(t, board.Assign(first, "t-budi"))

	err := board.Assign(second, "t-budi")
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first, conflict.HeldBy)
	assert.Equal(t, 4, conflict.Period)

	require.NoError(t, board.Unassign(first))
	require.NoError(t, board.Assign(second, "t-budi"))

	state, err := board.Resolution(second)
	require.NoError(t, err)
	assert.Equal(t, Resolution{Kind: SubstituteAssigned, SubstituteID: "t-budi"}, state)
}

func TestAssignedSubstituteShowsAsBusyCoverageElsewhere(t *testing.T) {
	board := NewBoard(twoAbsentees())
	require.NoError(t, board.Assign(SlotKey{AbsentTeacherID: "t-adi", Period: 4}, "t-budi"))

	ranked, err := board.RankCandidates(SlotKey{AbsentTeacherID: "t-fajar", Period: 4}, FilterRecommended)
	require.NoError(t, err)
	budi, ok := find(ranked, "t-budi")
	require.True(t, ok)
	assert.Equal(t, StatusBusyCoverage, budi.Status)
	assert.True(t, budi.Blocked)
}

func TestReassigningSameSubstituteToSameSlot(t *testing.T) {
	board := NewBoard(baseInput())
	slot := SlotKey{AbsentTeacherID: "t-adi", Period: 3}
	require.NoError(t, board.Assign(slot, "t-budi"))
	require.NoError(t, board.Assign(slot, "t-budi"))
	require.NoError(t, board.Assign(slot, "t-dewi"))

	_, held := board.assignments.HeldBy("t-budi", 3)
	assert.False(t, held)
}

func TestAssignRejectsIneligibleCandidates(t *testing.T) {
	in := twoAbsentees()
	board := NewBoard(in)
	slot := SlotKey{AbsentTeacherID: "t-adi", Period: 3}

	cases := map[string]StatusTag{
		"t-citra": StatusBusy,
		"t-eko":   StatusOffDuty,
		"t-fajar": StatusAbsent,
	}
	for id, want := range cases {
		err := board.Assign(slot, id)
		var ineligible *IneligibleCandidateError
		require.ErrorAs(t, err, &ineligible, id)
		assert.Equal(t, want, ineligible.Status, id)
	}
	assert.ErrorIs(t, board.Assign(slot, "ghost"), ErrUnknownTeacher)

	state, err := board.Resolution(slot)
	require.NoError(t, err)
	assert.False(t, state.IsResolved())
}

func TestUnassignIsIdempotent(t *testing.T) {
	board := NewBoard(baseInput())
	slot := SlotKey{AbsentTeacherID: "t-adi", Period: 3}
	require.NoError(t, board.Assign(slot, "t-budi"))

	require.NoError(t, board.Unassign(slot))
	once := board.Snapshot()
	version := board.Version()

	require.NoError(t, board.Unassign(slot))
	assert.Equal(t, once, board.Snapshot())
	assert.Equal(t, version, board.Version())
}

func TestSwitchingResolutionKindClearsPrevious(t *testing.T) {
	in := twoAbsentees()
	in.Classes[0].AssistantID = strPtr("asst-1")
	board := NewBoard(in)
	slot := SlotKey{AbsentTeacherID: "t-adi", Period: 4}
	other := SlotKey{AbsentTeacherID: "t-fajar", Period: 4}

	require.NoError(t, board.Assign(slot, "t-budi"))
	state, err := board.ToggleClassMerge(slot, "10C")
	require.NoError(t, err)
	assert.Equal(t, Resolution{Kind: ClassMerged, TargetClassID: "10C"}, state)

	// Budi was released by the merge.
	require.NoError(t, board.Assign(other, "t-budi"))

	state, err = board.ToggleClassMerge(slot, "10C")
	require.NoError(t, err)
	assert.Equal(t, Unresolved, state.Kind)

	_, err = board.ToggleClassMerge(slot, "10B")
	assert.ErrorIs(t, err, ErrInvalidMergeTarget)
	_, err = board.ToggleClassMerge(slot, "99Z")
	assert.ErrorIs(t, err, ErrUnknownClass)
}

func TestToggleAssistantCoverage(t *testing.T) {
	in := baseInput()
	in.Classes[0].AssistantID = strPtr("asst-1")
	board := NewBoard(in)
	slot := SlotKey{AbsentTeacherID: "t-adi", Period: 3}

	require.NoError(t, board.Assign(slot, "t-budi"))
	state, err := board.ToggleAssistantCoverage(slot)
	require.NoError(t, err)
	assert.Equal(t, AssistantCovered, state.Kind)
	_, held := board.assignments.HeldBy("t-budi", 3)
	assert.False(t, held)

	state, err = board.ToggleAssistantCoverage(slot)
	require.NoError(t, err)
	assert.Equal(t, Unresolved, state.Kind)

	// Period 4 is taught in 10B, which has no assistant.
	noAssistant := SlotKey{AbsentTeacherID: "t-adi", Period: 4}
	require.NoError(t, board.Assign(noAssistant, "t-budi"))
	state, err = board.ToggleAssistantCoverage(noAssistant)
	var missing *NoAssistantConfiguredError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "10B", missing.ClassID)
	assert.Equal(t, SubstituteAssigned, state.Kind)
}

func TestExclusivityHoldsAcrossMutations(t *testing.T) {
	board := NewBoard(twoAbsentees())
	a := SlotKey{AbsentTeacherID: "t-adi", Period: 4}
	f := SlotKey{AbsentTeacherID: "t-fajar", Period: 4}

	steps := []func(){
		func() { _ = board.Assign(a, "t-budi") },
		func() { _ = board.Assign(f, "t-budi") },
		func() { _, _ = board.ToggleClassMerge(a, "10C") },
		func() { _ = board.Assign(f, "t-budi") },
		func() { _ = board.Assign(a, "t-budi") },
		func() { _ = board.Unassign(f) },
		func() { _ = board.Assign(a, "t-budi") },
		func() { _ = board.Assign(f, "x-xena") },
	}
	for _, step := range steps {
		step()
		count := map[string]int{}
		for slot, state := range board.Snapshot() {
			if state.Kind == SubstituteAssigned && slot.Period == 4 {
				count[state.SubstituteID]++
			}
		}
		for sub, n := range count {
			assert.LessOrEqual(t, n, 1, sub)
		}
	}
}

func TestSnapshotListsEverySlot(t *testing.T) {
	board := NewBoard(baseInput())
	require.NoError(t, board.Assign(SlotKey{AbsentTeacherID: "t-adi", Period: 3}, "t-dewi"))

	snap := board.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, Unresolved, snap[SlotKey{AbsentTeacherID: "t-adi", Period: 1}].Kind)
	assert.Equal(t, "t-dewi", snap[SlotKey{AbsentTeacherID: "t-adi", Period: 3}].SubstituteID)
}
