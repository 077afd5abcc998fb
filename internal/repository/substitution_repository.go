package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/pkg/database"
)

// SubstitutionRepository persists confirmed cover records.
type SubstitutionRepository struct {
	db *sqlx.DB
}

func NewSubstitutionRepository(db *sqlx.DB) *SubstitutionRepository {
	return &SubstitutionRepository{db: db}
}

// ListByDate returns the saved substitutions for a date.
func (r *SubstitutionRepository) ListByDate(ctx context.Context, date time.Time) ([]models.Substitution, error) {
	const query = `SELECT id, absent_teacher_id, period, substitution_date, substitute_teacher_id, created_at FROM substitutions WHERE substitution_date = $1 ORDER BY period, absent_teacher_id`
	var records []models.Substitution
	if err := r.db.SelectContext(ctx, &records, query, date.Format("2006-01-02")); err != nil {
		return nil, errors.Wrap(err, "list substitutions")
	}
	return records, nil
}

// ReplaceForDate swaps the stored records of a date for the given set inside tx.
func (r *SubstitutionRepository) ReplaceForDate(ctx context.Context, tx *sqlx.Tx, date time.Time, records []models.Substitution) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM substitutions WHERE substitution_date = $1`, date.Format("2006-01-02")); err != nil {
		return errors.Wrap(err, "clear substitutions")
	}
	const insert = `
INSERT INTO substitutions (id, absent_teacher_id, period, substitution_date, substitute_teacher_id, created_at)
VALUES (:id, :absent_teacher_id, :period, :substitution_date, :substitute_teacher_id, :created_at)`
	for i := range records {
		if _, err := tx.NamedExecContext(ctx, insert, &records[i]); err != nil {
			return errors.Wrapf(err, "insert substitution %s/%d", records[i].AbsentTeacherID, records[i].Period)
		}
	}
	return nil
}

// SaveForDate replaces the date's records in a single transaction.
func (r *SubstitutionRepository) SaveForDate(ctx context.Context, date time.Time, records []models.Substitution) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return r.ReplaceForDate(ctx, tx, date, records)
	})
}
