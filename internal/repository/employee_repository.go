package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/shiftworks/vacation-api/internal/models"
)

// EmployeeRepository provides read access to the employee roster.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository creates a new employee repository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = "id, full_name, hire_date, group_id, active, created_at, updated_at"

// FindByID loads an employee by id.
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	query := fmt.Sprintf("SELECT %s FROM employees WHERE id = $1", employeeColumns)
	var emp models.Employee
	if err := r.db.GetContext(ctx, &emp, query, id); err != nil {
		return nil, err
	}
	return &emp, nil
}

// ListByGroup returns the active roster of a group ordered by employee id
// ascending. Batch runs rely on this ordering for determinism.
func (r *EmployeeRepository) ListByGroup(ctx context.Context, groupID string) ([]models.Employee, error) {
	query := fmt.Sprintf("SELECT %s FROM employees WHERE group_id = $1 AND active = TRUE ORDER BY id ASC", employeeColumns)
	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query, groupID); err != nil {
		return nil, fmt.Errorf("list employees for group %s: %w", groupID, err)
	}
	return employees, nil
}

// ListByGroupBySeniority returns the active roster ordered by hire date
// ascending, so the most senior employees come first. Employee id breaks ties.
func (r *EmployeeRepository) ListByGroupBySeniority(ctx context.Context, groupID string) ([]models.Employee, error) {
	query := fmt.Sprintf("SELECT %s FROM employees WHERE group_id = $1 AND active = TRUE ORDER BY hire_date ASC, id ASC", employeeColumns)
	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query, groupID); err != nil {
		return nil, fmt.Errorf("list employees by seniority for group %s: %w", groupID, err)
	}
	return employees, nil
}

// CountActiveByGroup returns the personnel total of a group as of a date.
func (r *EmployeeRepository) CountActiveByGroup(ctx context.Context, groupID string, asOf time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM employees WHERE group_id = $1 AND active = TRUE AND hire_date <= $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, groupID, asOf); err != nil {
		return 0, fmt.Errorf("count employees for group %s: %w", groupID, err)
	}
	return total, nil
}

// List returns employees matching the filter with paging.
func (r *EmployeeRepository) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error) {
	base := "FROM employees e WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.GroupID != "" {
		conditions = append(conditions, fmt.Sprintf("e.group_id = $%d", len(args)+1))
		args = append(args, filter.GroupID)
	}
	if filter.AreaID != "" {
		conditions = append(conditions, fmt.Sprintf("e.group_id IN (SELECT id FROM groups WHERE area_id = $%d)", len(args)+1))
		args = append(args, filter.AreaID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("e.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT e.id, e.full_name, e.hire_date, e.group_id, e.active, e.created_at, e.updated_at %s ORDER BY e.id ASC LIMIT %d OFFSET %d", base, size, offset)
	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}

	return employees, total, nil
}
