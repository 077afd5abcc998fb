package models

import (
	"time"

	"github.com/lib/pq"
)

// OverlayType classifies calendar overlays.
type OverlayType string

const (
	OverlayExam     OverlayType = "EXAM"
	OverlayTrip     OverlayType = "TRIP"
	OverlayActivity OverlayType = "ACTIVITY"
)

// CalendarOverlay is a calendar event that changes who owns a period for a set of classes.
type CalendarOverlay struct {
	ID               string         `db:"id" json:"id"`
	Date             time.Time      `db:"event_date" json:"date"`
	EventType        OverlayType    `db:"event_type" json:"event_type"`
	AffectedPeriods  pq.Int64Array  `db:"affected_periods" json:"affected_periods"`
	AffectedClasses  pq.StringArray `db:"affected_classes" json:"affected_classes"`
	GoverningSubject *string        `db:"governing_subject" json:"governing_subject,omitempty"`
	PlannerID        *string        `db:"planner_id" json:"planner_id,omitempty"`
	Participants     pq.StringArray `db:"participants" json:"participants"`
}

// CoversPeriod reports whether the overlay applies to the given period.
func (o CalendarOverlay) CoversPeriod(period int) bool {
	for _, p := range o.AffectedPeriods {
		if int(p) == period {
			return true
		}
	}
	return false
}

// CoversClass reports whether the overlay applies to the given class.
func (o CalendarOverlay) CoversClass(classID string) bool {
	for _, c := range o.AffectedClasses {
		if c == classID {
			return true
		}
	}
	return false
}

// Involves reports whether the teacher plans or participates in the overlay.
func (o CalendarOverlay) Involves(teacherID string) bool {
	if o.PlannerID != nil && *o.PlannerID == teacherID {
		return true
	}
	for _, p := range o.Participants {
		if p == teacherID {
			return true
		}
	}
	return false
}
