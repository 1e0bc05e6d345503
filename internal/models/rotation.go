package models

import "time"

// RotationRule is a cyclical pattern of N weekly roles. The rotation advances
// one role per 7-day window, wrapping modulo WeeklyRoleCount.
type RotationRule struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	WeeklyRoleCount int       `db:"weekly_role_count" json:"weekly_role_count"`
	Priority        int       `db:"priority" json:"priority"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// WeeklyRole is one phase of a rotation. Sequence is unique within the rule.
type WeeklyRole struct {
	ID             string `db:"id" json:"id"`
	RotationRuleID string `db:"rotation_rule_id" json:"rotation_rule_id"`
	Sequence       int    `db:"sequence" json:"sequence"`
}

// DayTemplate fixes the activity and shift code for one day-of-week of a
// weekly role. Day of week uses 0=Sunday through 6=Saturday.
type DayTemplate struct {
	ID           string      `db:"id" json:"id"`
	WeeklyRoleID string      `db:"weekly_role_id" json:"weekly_role_id"`
	DayOfWeek    int         `db:"day_of_week" json:"day_of_week"`
	Activity     DayActivity `db:"activity" json:"activity"`
	ShiftCode    string      `db:"shift_code" json:"shift_code"`
}
