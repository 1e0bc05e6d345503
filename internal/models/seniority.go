package models

// SeniorityBracket is one row of the entitlement table. YearsTo is nil for
// the open-ended top bracket. Brackets partition the seniority axis without
// gaps or overlaps.
type SeniorityBracket struct {
	ID             string `db:"id" json:"id"`
	YearsFrom      int    `db:"years_from" json:"years_from"`
	YearsTo        *int   `db:"years_to" json:"years_to,omitempty"`
	TotalDays      int    `db:"total_days" json:"total_days"`
	CompanyDays    int    `db:"company_days" json:"company_days"`
	SelectableDays int    `db:"selectable_days" json:"selectable_days"`
}

// Contains reports whether the bracket covers the given seniority in years.
func (b SeniorityBracket) Contains(years int) bool {
	if years < b.YearsFrom {
		return false
	}
	if b.YearsTo == nil {
		return true
	}
	return years <= *b.YearsTo
}

// Entitlement is the resolved yearly allowance for one employee.
type Entitlement struct {
	EmployeeID         string `json:"employee_id"`
	Year               int    `json:"year"`
	SeniorityYears     int    `json:"seniority_years"`
	Total              int    `json:"total"`
	CompanyAssigned    int    `json:"company_assigned"`
	EmployeeSelectable int    `json:"employee_selectable"`
}
