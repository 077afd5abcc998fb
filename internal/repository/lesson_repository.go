package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

// LessonRepository reads the weekly timetable.
type LessonRepository struct {
	db *sqlx.DB
}

func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// ListAll returns the whole week. Subject expertise is derived from every day, so no day filter is applied.
func (r *LessonRepository) ListAll(ctx context.Context) ([]models.Lesson, error) {
	const query = `SELECT id, teacher_id, class_id, subject, day_of_week, period, COALESCE(lesson_kind, 'ORDINARY') AS lesson_kind FROM lessons ORDER BY day_of_week, period, teacher_id`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query); err != nil {
		return nil, errors.Wrap(err, "list lessons")
	}
	return lessons, nil
}
