package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

// ClassRepository reads classes with their homeroom and assistant staffing.
type ClassRepository struct {
	db *sqlx.DB
}

func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// ListAll returns every class.
func (r *ClassRepository) ListAll(ctx context.Context) ([]models.Class, error) {
	const query = `SELECT id, name, grade, homeroom_teacher_id, assistant_id FROM classes ORDER BY grade, name`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, errors.Wrap(err, "list classes")
	}
	return classes, nil
}
