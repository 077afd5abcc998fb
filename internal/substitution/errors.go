package substitution

import (
	"errors"
	"fmt"
)

// Malformed input. These indicate an integration bug and are never collected into batch reports.
var (
	ErrUnknownTeacher   = errors.New("unknown teacher")
	ErrUnknownClass     = errors.New("unknown class")
	ErrUnknownSlot      = errors.New("no lesson to cover for slot")
	ErrPeriodOutOfRange = errors.New("period out of range")
)

// ConflictError is returned when a substitute is already covering another slot in the same period.
type ConflictError struct {
	SubstituteID string
	Period       int
	HeldBy       SlotKey
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("substitute %s already covers %s at period %d", e.SubstituteID, e.HeldBy.AbsentTeacherID, e.Period)
}

// IneligibleCandidateError is returned when assigning a candidate the classifier rejects.
type IneligibleCandidateError struct {
	CandidateID string
	Slot        SlotKey
	Status      StatusTag
}

func (e *IneligibleCandidateError) Error() string {
	return fmt.Sprintf("teacher %s cannot cover %s at period %d: %s", e.CandidateID, e.Slot.AbsentTeacherID, e.Slot.Period, e.Status.Label())
}

// NoAssistantConfiguredError is returned when toggling assistant coverage on a class without an assistant.
// The slot is left untouched.
type NoAssistantConfiguredError struct {
	ClassID string
}

func (e *NoAssistantConfiguredError) Error() string {
	return fmt.Sprintf("class %s has no classroom assistant", e.ClassID)
}
