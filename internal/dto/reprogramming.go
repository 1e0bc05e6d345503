package dto

import "github.com/shiftworks/vacation-api/internal/models"

// SubmitReprogrammingRequest opens a relocation or holiday-exchange request.
// OriginalRecordID is required for reprogramming; holiday exchanges reference
// the worked holiday through OriginalDate instead.
type SubmitReprogrammingRequest struct {
	EmployeeID       string  `json:"employeeId" validate:"required"`
	Kind             string  `json:"kind" validate:"required,request_kind"`
	OriginalRecordID *string `json:"originalRecordId"`
	OriginalDate     string  `json:"originalDate"`
	NewDate          string  `json:"newDate" validate:"required"`
	Motive           *string `json:"motive"`
}

// SubmitReprogrammingResponse returns the stored request plus the ceiling
// evaluation that determined whether manual approval is required.
type SubmitReprogrammingResponse struct {
	Request models.ReprogrammingRequest `json:"request"`
	Check   models.CeilingCheck         `json:"check"`
}

// DecideReprogrammingRequest resolves a pending request.
type DecideReprogrammingRequest struct {
	Decision string  `json:"decision" validate:"required,request_decision"`
	Reason   *string `json:"reason"`
}

// Decision values accepted by the arbiter.
const (
	DecisionApprove = "APPROVE"
	DecisionReject  = "REJECT"
)
