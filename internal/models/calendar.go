package models

import "time"

// DayActivity is the authoritative activity kind for one employee-day.
type DayActivity string

const (
	ActivityWork         DayActivity = "WORK"
	ActivityRest         DayActivity = "REST"
	ActivityHoliday      DayActivity = "HOLIDAY"
	ActivityVacation     DayActivity = "VACATION"
	ActivityPermit       DayActivity = "PERMIT"
	ActivityExchanged    DayActivity = "EXCHANGED"
	ActivityReprogrammed DayActivity = "REPROGRAMMED"
)

// Valid reports whether the activity kind is known.
func (a DayActivity) Valid() bool {
	switch a {
	case ActivityWork, ActivityRest, ActivityHoliday, ActivityVacation,
		ActivityPermit, ActivityExchanged, ActivityReprogrammed:
		return true
	}
	return false
}

// Absent reports whether the activity counts against the absence ceiling.
func (a DayActivity) Absent() bool {
	switch a {
	case ActivityVacation, ActivityPermit, ActivityReprogrammed:
		return true
	}
	return false
}

// CalendarDay is one generated day for one employee. Exactly one row exists
// per (employee, date); rows are never deleted, only transitioned.
type CalendarDay struct {
	ID             string      `db:"id" json:"id"`
	EmployeeID     string      `db:"employee_id" json:"employee_id"`
	Date           time.Time   `db:"date" json:"date"`
	Activity       DayActivity `db:"activity" json:"activity"`
	ShiftCode      string      `db:"shift_code" json:"shift_code"`
	RotationRuleID string      `db:"rotation_rule_id" json:"rotation_rule_id"`
	WeeklyRoleID   string      `db:"weekly_role_id" json:"weekly_role_id"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// Holiday is a public holiday or blackout date supplied by the external
// holiday calendar collaborator.
type Holiday struct {
	ID   string    `db:"id" json:"id"`
	Date time.Time `db:"date" json:"date"`
	Name string    `db:"name" json:"name"`
}
