package models

import "time"

// CeilingScope qualifies an absence ceiling exception.
type CeilingScope string

const (
	CeilingScopeGlobal CeilingScope = "GLOBAL"
	CeilingScopeDate   CeilingScope = "GROUP_DATE"
	CeilingScopeMonth  CeilingScope = "GROUP_MONTH"
)

// AbsenceCeilingConfig is the global maximum absence percentage or a scoped
// exception. Exceptions override the global value for their scope only; a
// (group, date) exception takes precedence over a (group, month) one.
type AbsenceCeilingConfig struct {
	ID         string       `db:"id" json:"id"`
	Scope      CeilingScope `db:"scope" json:"scope"`
	Percentage float64      `db:"percentage" json:"percentage"`
	GroupID    *string      `db:"group_id" json:"group_id,omitempty"`
	Date       *time.Time   `db:"date" json:"date,omitempty"`
	Month      *int         `db:"month" json:"month,omitempty"`
	Version    int          `db:"version" json:"version"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
}

// CeilingCheck is the outcome of an absence ceiling evaluation.
type CeilingCheck struct {
	GroupID           string  `json:"group_id"`
	Date              string  `json:"date"`
	PersonnelTotal    int     `json:"personnel_total"`
	AbsentCount       int     `json:"absent_count"`
	CurrentPercentage float64 `json:"current_percentage"`
	PercentageIfAdded float64 `json:"percentage_if_added"`
	MaxAllowed        float64 `json:"max_allowed"`
	Allowed           bool    `json:"allowed"`
}
