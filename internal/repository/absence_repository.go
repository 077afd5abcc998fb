package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

// AbsenceRepository persists staff absences.
type AbsenceRepository struct {
	db *sqlx.DB
}

func NewAbsenceRepository(db *sqlx.DB) *AbsenceRepository {
	return &AbsenceRepository{db: db}
}

// ListByDate returns the absences recorded for a date.
func (r *AbsenceRepository) ListByDate(ctx context.Context, date time.Time) ([]models.Absence, error) {
	const query = `SELECT id, employee_id, absence_date, start_period, end_period, created_at FROM absences WHERE absence_date = $1 ORDER BY created_at, id`
	var absences []models.Absence
	if err := r.db.SelectContext(ctx, &absences, query, date.Format("2006-01-02")); err != nil {
		return nil, errors.Wrap(err, "list absences")
	}
	return absences, nil
}

// Upsert records an absence. A second absence for the same employee and date replaces the window.
func (r *AbsenceRepository) Upsert(ctx context.Context, absence *models.Absence) error {
	if absence.ID == "" {
		absence.ID = uuid.NewString()
	}
	if absence.CreatedAt.IsZero() {
		absence.CreatedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO absences (id, employee_id, absence_date, start_period, end_period, created_at)
VALUES (:id, :employee_id, :absence_date, :start_period, :end_period, :created_at)
ON CONFLICT (employee_id, absence_date)
DO UPDATE SET start_period = EXCLUDED.start_period, end_period = EXCLUDED.end_period`
	if _, err := r.db.NamedExecContext(ctx, query, absence); err != nil {
		return errors.Wrap(err, "upsert absence")
	}
	return nil
}
