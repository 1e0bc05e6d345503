package models

import "time"

// BlockKind distinguishes regular blocks from the trailing overflow queue.
type BlockKind string

const (
	BlockRegular  BlockKind = "REGULAR"
	BlockOverflow BlockKind = "OVERFLOW"
)

// ReservationBlock is a bounded time window in which a subset of a group's
// employees may self-reserve vacation dates. Index is unique within
// (group, program).
type ReservationBlock struct {
	ID        string    `db:"id" json:"id"`
	GroupID   string    `db:"group_id" json:"group_id"`
	ProgramID string    `db:"program_id" json:"program_id"`
	Index     int       `db:"block_index" json:"index"`
	Kind      BlockKind `db:"kind" json:"kind"`
	StartAt   time.Time `db:"start_at" json:"start_at"`
	EndAt     time.Time `db:"end_at" json:"end_at"`
	Capacity  int       `db:"capacity" json:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BlockAssignmentStatus is the state of an employee's place in a block queue.
type BlockAssignmentStatus string

const (
	BlockAssignmentActive BlockAssignmentStatus = "ACTIVE"
	BlockAssignmentMoved  BlockAssignmentStatus = "MOVED"
)

// BlockAssignment is an employee's position in a block's queue. Position is
// unique within the block and records the fairness rank.
type BlockAssignment struct {
	ID         string                `db:"id" json:"id"`
	BlockID    string                `db:"block_id" json:"block_id"`
	EmployeeID string                `db:"employee_id" json:"employee_id"`
	Position   int                   `db:"position" json:"position"`
	Status     BlockAssignmentStatus `db:"status" json:"status"`
	Motive     *string               `db:"motive" json:"motive,omitempty"`
	CreatedAt  time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time             `db:"updated_at" json:"updated_at"`
}
