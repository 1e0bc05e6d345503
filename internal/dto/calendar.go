package dto

// GenerateCalendarRequest expands an employee's rotation over a date range.
// RotationRuleID overrides the group's configured rule for what-if runs.
type GenerateCalendarRequest struct {
	EmployeeID     string `json:"employeeId" validate:"required"`
	StartDate      string `json:"startDate" validate:"required"`
	EndDate        string `json:"endDate" validate:"required"`
	RotationStart  string `json:"rotationStart" validate:"required"`
	RotationRuleID string `json:"rotationRuleId" validate:"omitempty"`
	StartRoleIndex int    `json:"startRoleIndex" validate:"min=0"`
	Persist        bool   `json:"persist"`
}

// CalendarDayDraft is one expanded day before persistence.
type CalendarDayDraft struct {
	Date         string `json:"date"`
	DayOfWeek    int    `json:"dayOfWeek"`
	Activity     string `json:"activity"`
	ShiftCode    string `json:"shiftCode,omitempty"`
	WeeklyRoleID string `json:"weeklyRoleId"`
}

// GenerateCalendarResponse returns the expanded horizon.
type GenerateCalendarResponse struct {
	EmployeeID     string             `json:"employeeId"`
	RotationRuleID string             `json:"rotationRuleId"`
	Days           []CalendarDayDraft `json:"days"`
	Persisted      bool               `json:"persisted"`
}
