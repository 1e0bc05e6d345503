package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/shiftworks/vacation-api/internal/models"
)

// SeniorityRepository reads the entitlement bracket table.
type SeniorityRepository struct {
	db *sqlx.DB
}

// NewSeniorityRepository creates a new seniority repository.
func NewSeniorityRepository(db *sqlx.DB) *SeniorityRepository {
	return &SeniorityRepository{db: db}
}

// ListBrackets returns all brackets ordered by years_from ascending. The
// resolver walks them in order so the smallest matching bracket wins.
func (r *SeniorityRepository) ListBrackets(ctx context.Context) ([]models.SeniorityBracket, error) {
	const query = `SELECT id, years_from, years_to, total_days, company_days, selectable_days
		FROM seniority_brackets ORDER BY years_from ASC`
	var brackets []models.SeniorityBracket
	if err := r.db.SelectContext(ctx, &brackets, query); err != nil {
		return nil, fmt.Errorf("list seniority brackets: %w", err)
	}
	return brackets, nil
}
