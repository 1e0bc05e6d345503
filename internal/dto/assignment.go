package dto

// Per-employee failure reasons reported by the automatic assignment batch.
const (
	FailureInsufficientAvailability = "INSUFFICIENT_AVAILABILITY"
	FailureNoWorkingDays            = "NO_WORKING_DAYS"
	FailureConfigurationGap         = "CONFIGURATION_GAP"
	FailureProcessingError          = "PROCESSING_ERROR"
)

// RunAssignmentRequest starts an automatic assignment batch for a program.
// GroupIDs narrows the batch to specific groups; AreaID narrows it to every
// group of one area. Neither set means the whole company.
type RunAssignmentRequest struct {
	ProgramID string   `json:"programId" validate:"required"`
	GroupIDs  []string `json:"groupIds" validate:"omitempty,dive,required"`
	AreaID    string   `json:"areaId" validate:"omitempty"`
	DryRun    bool     `json:"dryRun"`
}

// EmployeeAssignmentDetail itemises one employee's outcome within a run.
type EmployeeAssignmentDetail struct {
	EmployeeID    string   `json:"employeeId"`
	GroupID       string   `json:"groupId"`
	DaysRequired  int      `json:"daysRequired"`
	DaysAssigned  int      `json:"daysAssigned"`
	Dates         []string `json:"dates,omitempty"`
	FailureReason string   `json:"failureReason,omitempty"`
	FailureDetail string   `json:"failureDetail,omitempty"`
}

// RunAssignmentResponse summarises a batch execution.
type RunAssignmentResponse struct {
	RunID     string                     `json:"runId"`
	ProgramID string                     `json:"programId"`
	DryRun    bool                       `json:"dryRun"`
	Processed int                        `json:"processed"`
	Assigned  int                        `json:"assigned"`
	Failed    int                        `json:"failed"`
	Details   []EmployeeAssignmentDetail `json:"details"`
	Warnings  []string                   `json:"warnings,omitempty"`
}
