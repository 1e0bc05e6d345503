package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shiftworks/vacation-api/internal/models"
)

// CalendarRepository persists generated calendar days.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository creates a new calendar repository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

const calendarColumns = "id, employee_id, date, activity, shift_code, rotation_rule_id, weekly_role_id, created_at, updated_at"

// UpsertDays writes generated days idempotently on the (employee, date)
// natural key. Regenerating a horizon overwrites rotation-derived fields but
// never resurrects a mutated activity: vacation, exchange and reprogramming
// states are preserved.
func (r *CalendarRepository) UpsertDays(ctx context.Context, exec sqlx.ExtContext, days []models.CalendarDay) error {
	const query = `INSERT INTO calendar_days (id, employee_id, date, activity, shift_code, rotation_rule_id, weekly_role_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (employee_id, date) DO UPDATE SET
			shift_code = EXCLUDED.shift_code,
			rotation_rule_id = EXCLUDED.rotation_rule_id,
			weekly_role_id = EXCLUDED.weekly_role_id,
			activity = CASE WHEN calendar_days.activity IN ('VACATION', 'EXCHANGED', 'REPROGRAMMED', 'PERMIT')
				THEN calendar_days.activity ELSE EXCLUDED.activity END,
			updated_at = NOW()`
	for _, day := range days {
		id := day.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := exec.ExecContext(ctx, query, id, day.EmployeeID, day.Date, day.Activity, day.ShiftCode, day.RotationRuleID, day.WeeklyRoleID); err != nil {
			return fmt.Errorf("upsert calendar day %s/%s: %w", day.EmployeeID, day.Date.Format("2006-01-02"), err)
		}
	}
	return nil
}

// FindDay loads the calendar day of an employee on a date.
func (r *CalendarRepository) FindDay(ctx context.Context, employeeID string, date time.Time) (*models.CalendarDay, error) {
	query := fmt.Sprintf("SELECT %s FROM calendar_days WHERE employee_id = $1 AND date = $2", calendarColumns)
	var day models.CalendarDay
	if err := r.db.GetContext(ctx, &day, query, employeeID, date); err != nil {
		return nil, err
	}
	return &day, nil
}

// ListRange returns an employee's days within [from, to] ordered by date.
func (r *CalendarRepository) ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]models.CalendarDay, error) {
	query := fmt.Sprintf("SELECT %s FROM calendar_days WHERE employee_id = $1 AND date BETWEEN $2 AND $3 ORDER BY date ASC", calendarColumns)
	var days []models.CalendarDay
	if err := r.db.SelectContext(ctx, &days, query, employeeID, from, to); err != nil {
		return nil, fmt.Errorf("list calendar days for %s: %w", employeeID, err)
	}
	return days, nil
}

// SetActivity transitions the activity kind of one employee-day.
func (r *CalendarRepository) SetActivity(ctx context.Context, exec sqlx.ExtContext, employeeID string, date time.Time, activity models.DayActivity) error {
	const query = `UPDATE calendar_days SET activity = $3, updated_at = NOW() WHERE employee_id = $1 AND date = $2`
	res, err := exec.ExecContext(ctx, query, employeeID, date, activity)
	if err != nil {
		return fmt.Errorf("set calendar activity for %s/%s: %w", employeeID, date.Format("2006-01-02"), err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("no calendar day for %s on %s", employeeID, date.Format("2006-01-02"))
	}
	return nil
}

// ListHolidays returns public holidays within [from, to].
func (r *CalendarRepository) ListHolidays(ctx context.Context, from, to time.Time) ([]models.Holiday, error) {
	const query = `SELECT id, date, name FROM holidays WHERE date BETWEEN $1 AND $2 ORDER BY date ASC`
	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, from, to); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return holidays, nil
}

// IsHoliday reports whether the date is a public holiday.
func (r *CalendarRepository) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM holidays WHERE date = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, date); err != nil {
		return false, fmt.Errorf("check holiday %s: %w", date.Format("2006-01-02"), err)
	}
	return exists, nil
}
