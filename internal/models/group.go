package models

import "time"

// Area groups shift teams and carries the manning baseline they inherit.
type Area struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	ManningBaseline int       `db:"manning_baseline" json:"manning_baseline"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Group is a shift team sharing one rotation rule.
type Group struct {
	ID                 string    `db:"id" json:"id"`
	AreaID             string    `db:"area_id" json:"area_id"`
	Name               string    `db:"name" json:"name"`
	RotationRuleID     string    `db:"rotation_rule_id" json:"rotation_rule_id"`
	PersonnelPerShift  int       `db:"personnel_per_shift" json:"personnel_per_shift"`
	ShiftDurationHours int       `db:"shift_duration_hours" json:"shift_duration_hours"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}
