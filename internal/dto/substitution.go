package dto

import (
	"time"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/substitution"
)

// AssignRequest names the substitute for a slot.
type AssignRequest struct {
	SubstituteID string `json:"substituteId" validate:"required"`
}

// MergeRequest toggles merging a slot's class into another class. An empty target clears the merge.
type MergeRequest struct {
	TargetClassID string `json:"targetClassId"`
}

// BulkAssignRequest gives every open slot of one absent teacher to a single substitute.
type BulkAssignRequest struct {
	AbsentTeacherID string `json:"absentTeacherId" validate:"required"`
	SubstituteID    string `json:"substituteId" validate:"required"`
}

// PoolRequest adds a teacher to the reserve pool. Teachers without lessons that day need Confirm.
type PoolRequest struct {
	TeacherID string `json:"teacherId" validate:"required"`
	Confirm   bool   `json:"confirm"`
}

// RecordAbsenceRequest registers an absence, optionally limited to a period window.
type RecordAbsenceRequest struct {
	EmployeeID  string `json:"employeeId" validate:"required"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	StartPeriod *int   `json:"startPeriod,omitempty" validate:"omitempty,min=1"`
	EndPeriod   *int   `json:"endPeriod,omitempty" validate:"omitempty,min=1"`
}

// ResolutionItem is a resolution with display names resolved.
type ResolutionItem struct {
	Kind            substitution.ResolutionKind `json:"kind"`
	SubstituteID    string                      `json:"substituteId,omitempty"`
	SubstituteName  string                      `json:"substituteName,omitempty"`
	TargetClassID   string                      `json:"targetClassId,omitempty"`
	TargetClassName string                      `json:"targetClassName,omitempty"`
}

// SlotItem describes one lesson that needs cover.
type SlotItem struct {
	AbsentTeacherID   string            `json:"absentTeacherId"`
	AbsentTeacherName string            `json:"absentTeacherName"`
	Period            int               `json:"period"`
	ClassID           string            `json:"classId"`
	ClassName         string            `json:"className"`
	Subject           string            `json:"subject"`
	LessonKind        models.LessonKind `json:"lessonKind"`
	Resolution        ResolutionItem    `json:"resolution"`
}

// SlotListResponse lists the day's slots.
type SlotListResponse struct {
	Date         string     `json:"date"`
	BoardVersion uint64     `json:"boardVersion"`
	Slots        []SlotItem `json:"slots"`
}

// CandidateListResponse carries a ranked candidate list for a slot.
type CandidateListResponse struct {
	Date         string                             `json:"date"`
	Slot         substitution.SlotKey               `json:"slot"`
	Filter       substitution.Filter                `json:"filter"`
	BoardVersion uint64                             `json:"boardVersion"`
	Candidates   []substitution.CandidateAssessment `json:"candidates"`
}

// SlotResolutionResponse reports a slot's state after a mutation.
type SlotResolutionResponse struct {
	Slot         substitution.SlotKey `json:"slot"`
	Resolution   ResolutionItem       `json:"resolution"`
	Applied      bool                 `json:"applied"`
	Reason       string               `json:"reason,omitempty"`
	BoardVersion uint64               `json:"boardVersion"`
}

// SlotFailureItem is one slot a batch operation could not fill.
type SlotFailureItem struct {
	Slot    substitution.SlotKey `json:"slot"`
	Code    string               `json:"code"`
	Message string               `json:"message"`
}

// BulkAssignResponse reports the outcome of a per-teacher bulk assignment.
type BulkAssignResponse struct {
	Assigned     []substitution.SlotKey `json:"assigned"`
	Skipped      []substitution.SlotKey `json:"skipped"`
	Failed       []SlotFailureItem      `json:"failed"`
	BoardVersion uint64                 `json:"boardVersion"`
}

// AutoAssignResponse reports the outcome of a whole-day greedy pass.
type AutoAssignResponse struct {
	Assigned     []substitution.Placement `json:"assigned"`
	Unresolved   []substitution.SlotKey   `json:"unresolved"`
	Failed       []SlotFailureItem        `json:"failed"`
	BoardVersion uint64                   `json:"boardVersion"`
}

// SnapshotEntry pairs a slot with its resolution.
type SnapshotEntry struct {
	Slot       substitution.SlotKey `json:"slot"`
	Resolution ResolutionItem       `json:"resolution"`
}

// SnapshotResponse is the read-only view handed to persistence and export.
type SnapshotResponse struct {
	Date         string          `json:"date"`
	BoardVersion uint64          `json:"boardVersion"`
	Entries      []SnapshotEntry `json:"entries"`
}

// SaveResponse reports what was persisted.
type SaveResponse struct {
	Date         string                 `json:"date"`
	Saved        []models.Substitution  `json:"saved"`
	NotPersisted []SnapshotEntry        `json:"notPersisted"`
	Unresolved   []substitution.SlotKey `json:"unresolved"`
	SavedAt      time.Time              `json:"savedAt"`
}

// PoolMember is a reserve pool entry.
type PoolMember struct {
	TeacherID   string `json:"teacherId"`
	TeacherName string `json:"teacherName"`
	OnCall      bool   `json:"onCall"`
}

// PoolResponse lists the reserve pool split into available and on-call members.
type PoolResponse struct {
	Available    []PoolMember `json:"available"`
	OnCall       []PoolMember `json:"onCall"`
	BoardVersion uint64       `json:"boardVersion"`
}

// PoolChangeResponse reports a pool activation or deactivation.
type PoolChangeResponse struct {
	TeacherID string       `json:"teacherId"`
	Changed   bool         `json:"changed"`
	Pool      PoolResponse `json:"pool"`
}

// AbsenceResponse reports a recorded absence and any slots released on the open board.
type AbsenceResponse struct {
	Absence  models.Absence         `json:"absence"`
	Released []substitution.SlotKey `json:"released"`
}

// ExportFile is a rendered cover sheet.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}
