package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/shiftworks/vacation-api/internal/models"
)

// ErrDuplicate signals an insert colliding with the (employee, date) unique
// index. Callers treat it as a retryable concurrent-write conflict.
var ErrDuplicate = errors.New("duplicate vacation record")

const pqUniqueViolation = "23505"

// VacationRepository persists vacation records and computes absence counts.
type VacationRepository struct {
	db *sqlx.DB
}

// NewVacationRepository creates a new vacation repository.
func NewVacationRepository(db *sqlx.DB) *VacationRepository {
	return &VacationRepository{db: db}
}

const vacationColumns = "id, employee_id, program_id, date, origin, status, created_at, updated_at"

// Create inserts an Active vacation record. A collision on the partial
// unique index over (employee_id, date) WHERE status = 'ACTIVE' yields
// ErrDuplicate.
func (r *VacationRepository) Create(ctx context.Context, exec sqlx.ExtContext, record *models.VacationRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Status == "" {
		record.Status = models.VacationActive
	}
	const query = `INSERT INTO vacation_records (id, employee_id, program_id, date, origin, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`
	if _, err := exec.ExecContext(ctx, query, record.ID, record.EmployeeID, record.ProgramID, record.Date, record.Origin, record.Status); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("create vacation record: %w", err)
	}
	return nil
}

// FindByID loads a vacation record.
func (r *VacationRepository) FindByID(ctx context.Context, id string) (*models.VacationRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM vacation_records WHERE id = $1", vacationColumns)
	var record models.VacationRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByEmployeeProgram returns an employee's records within a program.
func (r *VacationRepository) ListByEmployeeProgram(ctx context.Context, employeeID, programID string) ([]models.VacationRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM vacation_records WHERE employee_id = $1 AND program_id = $2 ORDER BY date ASC", vacationColumns)
	var records []models.VacationRecord
	if err := r.db.SelectContext(ctx, &records, query, employeeID, programID); err != nil {
		return nil, fmt.Errorf("list vacation records for %s: %w", employeeID, err)
	}
	return records, nil
}

// CountActiveByEmployeeProgram counts an employee's Active days in a program,
// optionally restricted to one origin.
func (r *VacationRepository) CountActiveByEmployeeProgram(ctx context.Context, employeeID, programID string, origin *models.VacationOrigin) (int, error) {
	query := `SELECT COUNT(*) FROM vacation_records WHERE employee_id = $1 AND program_id = $2 AND status = 'ACTIVE'`
	args := []interface{}{employeeID, programID}
	if origin != nil {
		query += ` AND origin = $3`
		args = append(args, *origin)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count vacation records for %s: %w", employeeID, err)
	}
	return count, nil
}

// ExistsActive reports whether the employee already has an Active record on
// the date.
func (r *VacationRepository) ExistsActive(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM vacation_records WHERE employee_id = $1 AND date = $2 AND status = 'ACTIVE')`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, employeeID, date); err != nil {
		return false, fmt.Errorf("check vacation record %s/%s: %w", employeeID, date.Format("2006-01-02"), err)
	}
	return exists, nil
}

// MarkStatus transitions a record to the given status.
func (r *VacationRepository) MarkStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.VacationStatus) error {
	const query = `UPDATE vacation_records SET status = $2, updated_at = NOW() WHERE id = $1`
	res, err := exec.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("mark vacation record %s %s: %w", id, status, err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("vacation record %s not found", id)
	}
	return nil
}

// CountAbsences returns how many of a group's employees are absent on a date.
// Active vacation records and the external incapacity feed both count.
func (r *VacationRepository) CountAbsences(ctx context.Context, groupID string, date time.Time) (int, error) {
	const query = `SELECT COUNT(DISTINCT e.id)
		FROM employees e
		WHERE e.group_id = $1 AND e.active = TRUE
		AND (
			EXISTS (SELECT 1 FROM vacation_records vr WHERE vr.employee_id = e.id AND vr.date = $2 AND vr.status = 'ACTIVE')
			OR EXISTS (SELECT 1 FROM incapacities i WHERE i.employee_id = e.id AND $2 BETWEEN i.start_date AND i.end_date)
		)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, groupID, date); err != nil {
		return 0, fmt.Errorf("count absences for group %s on %s: %w", groupID, date.Format("2006-01-02"), err)
	}
	return count, nil
}
