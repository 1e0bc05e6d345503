package dto

// GenerateBlocksRequest partitions a group's roster into reservation blocks.
// Capacity and DurationHours fall back to configured defaults when zero.
type GenerateBlocksRequest struct {
	GroupID       string `json:"groupId" validate:"required"`
	ProgramID     string `json:"programId" validate:"required"`
	StartAt       string `json:"startAt" validate:"required"`
	Capacity      int    `json:"capacity" validate:"omitempty,min=1"`
	DurationHours int    `json:"durationHours" validate:"omitempty,min=1"`
}

// BlockSummary describes one generated block and its queue.
type BlockSummary struct {
	BlockID   string   `json:"blockId"`
	Index     int      `json:"index"`
	Kind      string   `json:"kind"`
	StartAt   string   `json:"startAt"`
	EndAt     string   `json:"endAt"`
	Capacity  int      `json:"capacity"`
	Employees []string `json:"employees"`
}

// BlockGenerationFailure reports a single employee that could not be queued.
type BlockGenerationFailure struct {
	EmployeeID string `json:"employeeId"`
	Reason     string `json:"reason"`
}

// GenerateBlocksResponse returns the generated partition.
type GenerateBlocksResponse struct {
	GroupID   string                   `json:"groupId"`
	ProgramID string                   `json:"programId"`
	Blocks    []BlockSummary           `json:"blocks"`
	Assigned  int                      `json:"assigned"`
	Failures  []BlockGenerationFailure `json:"failures,omitempty"`
}

// ChangeBlockRequest moves an employee to a different block. The motive is
// recorded; destination capacity is validated, the absence ceiling is not.
type ChangeBlockRequest struct {
	EmployeeID    string `json:"employeeId" validate:"required"`
	TargetBlockID string `json:"targetBlockId" validate:"required"`
	Motive        string `json:"motive" validate:"required"`
}

// ReserveDatesRequest books concrete vacation dates inside the employee's
// block window. Every date passes the absence ceiling gate.
type ReserveDatesRequest struct {
	BlockID    string   `json:"blockId" validate:"required"`
	EmployeeID string   `json:"employeeId" validate:"required"`
	Dates      []string `json:"dates" validate:"required,min=1,dive,required"`
}

// Rejection reasons carried on DateRejection.Reason.
const (
	RejectInvalidDate    = "INVALID_DATE"
	RejectOutOfProgram   = "OUT_OF_PROGRAM"
	RejectNotWorkingDay  = "NOT_A_WORKING_DAY"
	RejectQuotaExhausted = "QUOTA_EXHAUSTED"
	RejectCeiling        = "CEILING_EXCEEDED"
	RejectDuplicate      = "DUPLICATE"
)

// DateRejection explains why a single requested date was not booked.
type DateRejection struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// ReserveDatesResponse itemises booked and rejected dates.
type ReserveDatesResponse struct {
	EmployeeID string          `json:"employeeId"`
	Reserved   []string        `json:"reserved"`
	Rejected   []DateRejection `json:"rejected,omitempty"`
	Remaining  int             `json:"remaining"`
}
