package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/shiftworks/vacation-api/internal/models"
)

// CeilingRepository reads absence ceiling configuration and exceptions.
type CeilingRepository struct {
	db *sqlx.DB
}

// NewCeilingRepository creates a new ceiling repository.
func NewCeilingRepository(db *sqlx.DB) *CeilingRepository {
	return &CeilingRepository{db: db}
}

const ceilingColumns = "id, scope, percentage, group_id, date, month, version, created_at"

// Global returns the latest global ceiling row, or nil when none is stored.
func (r *CeilingRepository) Global(ctx context.Context) (*models.AbsenceCeilingConfig, error) {
	query := fmt.Sprintf("SELECT %s FROM absence_ceilings WHERE scope = 'GLOBAL' ORDER BY version DESC LIMIT 1", ceilingColumns)
	var cfg models.AbsenceCeilingConfig
	if err := r.db.GetContext(ctx, &cfg, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load global ceiling: %w", err)
	}
	return &cfg, nil
}

// Exception returns the scoped exception for (group, date), preferring an
// exact date match over a month match. Nil means no exception applies.
func (r *CeilingRepository) Exception(ctx context.Context, groupID string, date time.Time) (*models.AbsenceCeilingConfig, error) {
	query := fmt.Sprintf(`SELECT %s FROM absence_ceilings
		WHERE group_id = $1 AND (
			(scope = 'GROUP_DATE' AND date = $2)
			OR (scope = 'GROUP_MONTH' AND month = $3)
		)
		ORDER BY CASE scope WHEN 'GROUP_DATE' THEN 0 ELSE 1 END, version DESC
		LIMIT 1`, ceilingColumns)
	var cfg models.AbsenceCeilingConfig
	if err := r.db.GetContext(ctx, &cfg, query, groupID, date, int(date.Month())); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load ceiling exception for group %s: %w", groupID, err)
	}
	return &cfg, nil
}
