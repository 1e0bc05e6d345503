package models

import "time"

// RequestKind distinguishes date relocations from holiday exchanges. Both
// kinds run through the same admission rule and state machine.
type RequestKind string

const (
	KindReprogramming   RequestKind = "REPROGRAMMING"
	KindHolidayExchange RequestKind = "HOLIDAY_EXCHANGE"
)

// Valid reports whether the kind is known.
func (k RequestKind) Valid() bool {
	return k == KindReprogramming || k == KindHolidayExchange
}

// RequestStatus is the arbiter state machine: Pending -> Approved | Rejected.
// Approved and Rejected are terminal.
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

// Terminal reports whether no further transition is allowed.
func (s RequestStatus) Terminal() bool {
	return s == RequestApproved || s == RequestRejected
}

// ReprogrammingRequest is a pending relocation of one vacation record, or a
// holiday exchange converting a worked public holiday into a future day off.
// Exactly one open request may exist per original record at a time.
type ReprogrammingRequest struct {
	ID               string        `db:"id" json:"id"`
	EmployeeID       string        `db:"employee_id" json:"employee_id"`
	Kind             RequestKind   `db:"kind" json:"kind"`
	OriginalRecordID *string       `db:"original_record_id" json:"original_record_id,omitempty"`
	OriginalDate     time.Time     `db:"original_date" json:"original_date"`
	NewDate          time.Time     `db:"new_date" json:"new_date"`
	Status           RequestStatus `db:"status" json:"status"`
	NeedsApproval    bool          `db:"needs_approval" json:"needs_approval"`
	Motive           *string       `db:"motive" json:"motive,omitempty"`
	DecisionReason   *string       `db:"decision_reason" json:"decision_reason,omitempty"`
	PendingSince     time.Time     `db:"pending_since" json:"pending_since"`
	DecidedAt        *time.Time    `db:"decided_at" json:"decided_at,omitempty"`
}
