package models

import "time"

// Employee represents a unionized worker attached to exactly one shift group.
type Employee struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	HireDate  time.Time `db:"hire_date" json:"hire_date"`
	GroupID   string    `db:"group_id" json:"group_id"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SeniorityYears returns whole years of service completed by the end of the
// reference year. Anniversaries falling inside the reference year count.
func (e Employee) SeniorityYears(referenceYear int) int {
	years := referenceYear - e.HireDate.Year()
	if years < 0 {
		return 0
	}
	return years
}

// EmployeeFilter narrows roster queries.
type EmployeeFilter struct {
	GroupID  string
	AreaID   string
	Active   *bool
	Page     int
	PageSize int
}
