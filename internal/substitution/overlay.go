package substitution

import (
	"time"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

// ExamGovernance describes the exam that governs a class at a period.
type ExamGovernance struct {
	OverlayID string
	Subject   string
	PlannerID string
}

// OverlayResolver answers questions about calendar overlays for a given date and period.
type OverlayResolver struct {
	byDate map[string][]models.CalendarOverlay
}

// NewOverlayResolver indexes overlays by calendar day.
func NewOverlayResolver(overlays []models.CalendarOverlay) *OverlayResolver {
	r := &OverlayResolver{byDate: make(map[string][]models.CalendarOverlay)}
	for _, overlay := range overlays {
		key := dateKey(overlay.Date)
		r.byDate[key] = append(r.byDate[key], overlay)
	}
	return r
}

// OverlaysOn returns every overlay scheduled on the date.
func (r *OverlayResolver) OverlaysOn(date time.Time) []models.CalendarOverlay {
	return r.byDate[dateKey(date)]
}

// ExamFor reports the exam governing the class at the period, if any.
func (r *OverlayResolver) ExamFor(date time.Time, period int, classID string) (ExamGovernance, bool) {
	for _, overlay := range r.OverlaysOn(date) {
		if overlay.EventType != models.OverlayExam || !overlay.CoversPeriod(period) || !overlay.CoversClass(classID) {
			continue
		}
		gov := ExamGovernance{OverlayID: overlay.ID}
		if overlay.GoverningSubject != nil {
			gov.Subject = *overlay.GoverningSubject
		}
		if overlay.PlannerID != nil {
			gov.PlannerID = *overlay.PlannerID
		}
		return gov, true
	}
	return ExamGovernance{}, false
}

// Consumes returns the overlay occupying the teacher at the period, if any. The overlay named by
// except is skipped, so an exam never counts against its own proctors.
func (r *OverlayResolver) Consumes(date time.Time, period int, teacherID, except string) (models.CalendarOverlay, bool) {
	for _, overlay := range r.OverlaysOn(date) {
		if except != "" && overlay.ID == except {
			continue
		}
		if overlay.CoversPeriod(period) && overlay.Involves(teacherID) {
			return overlay, true
		}
	}
	return models.CalendarOverlay{}, false
}

// Displaces reports whether the class is away from ordinary lessons at the period
// because it sits an exam or is out on a trip.
func (r *OverlayResolver) Displaces(date time.Time, period int, classID string) (models.CalendarOverlay, bool) {
	for _, overlay := range r.OverlaysOn(date) {
		if overlay.EventType != models.OverlayExam && overlay.EventType != models.OverlayTrip {
			continue
		}
		if overlay.CoversPeriod(period) && overlay.CoversClass(classID) {
			return overlay, true
		}
	}
	return models.CalendarOverlay{}, false
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
