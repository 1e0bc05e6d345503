package models

import "time"

// VacationOrigin identifies which write path created a record.
type VacationOrigin string

const (
	OriginAutomatic       VacationOrigin = "AUTOMATIC"
	OriginManual          VacationOrigin = "MANUAL"
	OriginReprogramming   VacationOrigin = "REPROGRAMMING"
	OriginHolidayExchange VacationOrigin = "HOLIDAY_EXCHANGE"
)

// Valid reports whether the origin is known.
func (o VacationOrigin) Valid() bool {
	switch o {
	case OriginAutomatic, OriginManual, OriginReprogramming, OriginHolidayExchange:
		return true
	}
	return false
}

// VacationStatus is the lifecycle state of a vacation record. Records are
// never hard-deleted while referenced.
type VacationStatus string

const (
	VacationActive    VacationStatus = "ACTIVE"
	VacationExchanged VacationStatus = "EXCHANGED"
	VacationCancelled VacationStatus = "CANCELLED"
)

// VacationRecord is one assigned or reserved day off. (employee, date) is
// unique while the record is Active.
type VacationRecord struct {
	ID         string         `db:"id" json:"id"`
	EmployeeID string         `db:"employee_id" json:"employee_id"`
	ProgramID  string         `db:"program_id" json:"program_id"`
	Date       time.Time      `db:"date" json:"date"`
	Origin     VacationOrigin `db:"origin" json:"origin"`
	Status     VacationStatus `db:"status" json:"status"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}
