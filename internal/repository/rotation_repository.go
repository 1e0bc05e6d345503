package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/shiftworks/vacation-api/internal/models"
)

// RotationRepository provides read access to rotation rules, weekly roles and
// day templates.
type RotationRepository struct {
	db *sqlx.DB
}

// NewRotationRepository creates a new rotation repository.
func NewRotationRepository(db *sqlx.DB) *RotationRepository {
	return &RotationRepository{db: db}
}

// FindRule loads a rotation rule by id.
func (r *RotationRepository) FindRule(ctx context.Context, id string) (*models.RotationRule, error) {
	const query = `SELECT id, name, weekly_role_count, priority, created_at, updated_at FROM rotation_rules WHERE id = $1`
	var rule models.RotationRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		return nil, err
	}
	return &rule, nil
}

// RuleForGroup resolves the rotation rule applied to a group.
func (r *RotationRepository) RuleForGroup(ctx context.Context, groupID string) (*models.RotationRule, error) {
	const query = `SELECT rr.id, rr.name, rr.weekly_role_count, rr.priority, rr.created_at, rr.updated_at
		FROM rotation_rules rr JOIN groups g ON g.rotation_rule_id = rr.id WHERE g.id = $1`
	var rule models.RotationRule
	if err := r.db.GetContext(ctx, &rule, query, groupID); err != nil {
		return nil, err
	}
	return &rule, nil
}

// ListRoles returns the weekly roles of a rule ordered by sequence.
func (r *RotationRepository) ListRoles(ctx context.Context, ruleID string) ([]models.WeeklyRole, error) {
	const query = `SELECT id, rotation_rule_id, sequence FROM weekly_roles WHERE rotation_rule_id = $1 ORDER BY sequence ASC`
	var roles []models.WeeklyRole
	if err := r.db.SelectContext(ctx, &roles, query, ruleID); err != nil {
		return nil, fmt.Errorf("list weekly roles for rule %s: %w", ruleID, err)
	}
	return roles, nil
}

// ListTemplates returns every day template of a rule, across all its roles.
func (r *RotationRepository) ListTemplates(ctx context.Context, ruleID string) ([]models.DayTemplate, error) {
	const query = `SELECT dt.id, dt.weekly_role_id, dt.day_of_week, dt.activity, dt.shift_code
		FROM day_templates dt JOIN weekly_roles wr ON wr.id = dt.weekly_role_id
		WHERE wr.rotation_rule_id = $1 ORDER BY wr.sequence ASC, dt.day_of_week ASC`
	var templates []models.DayTemplate
	if err := r.db.SelectContext(ctx, &templates, query, ruleID); err != nil {
		return nil, fmt.Errorf("list day templates for rule %s: %w", ruleID, err)
	}
	return templates, nil
}
