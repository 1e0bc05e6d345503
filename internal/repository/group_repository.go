package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/shiftworks/vacation-api/internal/models"
)

// GroupRepository provides read access to shift groups and areas.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository creates a new group repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

const groupColumns = "id, area_id, name, rotation_rule_id, personnel_per_shift, shift_duration_hours, created_at, updated_at"

// FindByID loads a group.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	query := fmt.Sprintf("SELECT %s FROM groups WHERE id = $1", groupColumns)
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// ListByArea returns the groups of an area.
func (r *GroupRepository) ListByArea(ctx context.Context, areaID string) ([]models.Group, error) {
	query := fmt.Sprintf("SELECT %s FROM groups WHERE area_id = $1 ORDER BY name ASC", groupColumns)
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, query, areaID); err != nil {
		return nil, fmt.Errorf("list groups for area %s: %w", areaID, err)
	}
	return groups, nil
}

// GroupForEmployee resolves the group an employee belongs to.
func (r *GroupRepository) GroupForEmployee(ctx context.Context, employeeID string) (*models.Group, error) {
	const query = `SELECT g.id, g.area_id, g.name, g.rotation_rule_id, g.personnel_per_shift, g.shift_duration_hours, g.created_at, g.updated_at
		FROM groups g JOIN employees e ON e.group_id = g.id WHERE e.id = $1`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, employeeID); err != nil {
		return nil, err
	}
	return &group, nil
}

// ListAll returns every configured group ordered by id.
func (r *GroupRepository) ListAll(ctx context.Context) ([]models.Group, error) {
	query := fmt.Sprintf("SELECT %s FROM groups ORDER BY id ASC", groupColumns)
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}
