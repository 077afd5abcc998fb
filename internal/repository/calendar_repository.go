package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

// CalendarOverlayRepository reads exams, trips and activities that reshape a school day.
type CalendarOverlayRepository struct {
	db *sqlx.DB
}

// NewCalendarOverlayRepository constructs the repository.
func NewCalendarOverlayRepository(db *sqlx.DB) *CalendarOverlayRepository {
	return &CalendarOverlayRepository{db: db}
}

// ListOn returns overlays scheduled on the given date.
func (r *CalendarOverlayRepository) ListOn(ctx context.Context, date time.Time) ([]models.CalendarOverlay, error) {
	const query = `
SELECT id, event_date, event_type, affected_periods, affected_classes, governing_subject, planner_id, participants
FROM calendar_overlays
WHERE event_date = $1
ORDER BY event_type, id`
	var overlays []models.CalendarOverlay
	if err := r.db.SelectContext(ctx, &overlays, query, date.Format("2006-01-02")); err != nil {
		return nil, errors.Wrapf(err, "list overlays on %s", date.Format("2006-01-02"))
	}
	return overlays, nil
}
