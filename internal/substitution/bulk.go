package substitution

import (
	"context"
	"errors"
)

// SlotFailure records why one slot of a batch could not be resolved.
type SlotFailure struct {
	Slot SlotKey
	Err  error
}

// BulkResult summarises BulkAssignForTeacher.
type BulkResult struct {
	Assigned []SlotKey
	Skipped  []SlotKey
	Failed   []SlotFailure
}

// Placement is one assignment made by BatchAutoAssign.
type Placement struct {
	Slot         SlotKey   `json:"slot"`
	SubstituteID string    `json:"substituteId"`
	Status       StatusTag `json:"status"`
}

// BatchReport summarises BatchAutoAssign.
type BatchReport struct {
	Assigned   []Placement
	Unresolved []SlotKey
	Failed     []SlotFailure
}

// BulkAssignForTeacher assigns one substitute to every unresolved slot of an absent teacher.
// Per-slot conflicts and ineligibility are collected, not returned. Already resolved slots are skipped.
// Cancellation stops the loop between slots; assignments made so far are kept.
func (b *Board) BulkAssignForTeacher(ctx context.Context, absentTeacherID, substituteID string) (BulkResult, error) {
	var result BulkResult
	if _, ok := b.teachers[substituteID]; !ok {
		return result, ErrUnknownTeacher
	}
	views, err := b.SlotsFor(absentTeacherID)
	if err != nil {
		return result, err
	}
	for _, view := range views {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if b.assignments.Get(view.Slot).IsResolved() {
			result.Skipped = append(result.Skipped, view.Slot)
			continue
		}
		if err := b.Assign(view.Slot, substituteID); err != nil {
			if !isSlotError(err) {
				return result, err
			}
			result.Failed = append(result.Failed, SlotFailure{Slot: view.Slot, Err: err})
			continue
		}
		result.Assigned = append(result.Assigned, view.Slot)
	}
	return result, nil
}

// BatchAutoAssign walks every unresolved slot in period order and assigns the best offerable candidate
// of the recommended ranking. It is a single greedy pass: an early choice can leave a later slot in
// the same period without a candidate, and nothing is revisited.
func (b *Board) BatchAutoAssign(ctx context.Context) (BatchReport, error) {
	var report BatchReport
	for _, view := range b.Slots() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if view.Resolution.IsResolved() || b.assignments.Get(view.Slot).IsResolved() {
			continue
		}
		ranked, err := b.RankCandidates(view.Slot, FilterRecommended)
		if err != nil {
			return report, err
		}
		pick, ok := firstOfferable(ranked)
		if !ok {
			report.Unresolved = append(report.Unresolved, view.Slot)
			continue
		}
		if err := b.Assign(view.Slot, pick.TeacherID); err != nil {
			if !isSlotError(err) {
				return report, err
			}
			report.Failed = append(report.Failed, SlotFailure{Slot: view.Slot, Err: err})
			report.Unresolved = append(report.Unresolved, view.Slot)
			continue
		}
		report.Assigned = append(report.Assigned, Placement{Slot: view.Slot, SubstituteID: pick.TeacherID, Status: pick.Status})
	}
	return report, nil
}

func firstOfferable(ranked []CandidateAssessment) (CandidateAssessment, bool) {
	for _, c := range ranked {
		if !c.Blocked {
			return c, true
		}
	}
	return CandidateAssessment{}, false
}

func isSlotError(err error) bool {
	var conflict *ConflictError
	var ineligible *IneligibleCandidateError
	return errors.As(err, &conflict) || errors.As(err, &ineligible)
}
