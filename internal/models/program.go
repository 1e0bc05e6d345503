package models

import "time"

// ProgramStatus is the lifecycle state of an annual scheduling cycle.
type ProgramStatus string

const (
	ProgramStatusDraft  ProgramStatus = "DRAFT"
	ProgramStatusOpen   ProgramStatus = "OPEN"
	ProgramStatusClosed ProgramStatus = "CLOSED"
)

// Valid reports whether the status is known.
func (s ProgramStatus) Valid() bool {
	switch s {
	case ProgramStatusDraft, ProgramStatusOpen, ProgramStatusClosed:
		return true
	}
	return false
}

// AnnualProgram is one yearly scheduling cycle. At most one Open program
// exists per year.
type AnnualProgram struct {
	ID        string        `db:"id" json:"id"`
	Year      int           `db:"year" json:"year"`
	StartDate time.Time     `db:"start_date" json:"start_date"`
	EndDate   time.Time     `db:"end_date" json:"end_date"`
	Status    ProgramStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// AssignmentRun records one automatic assignment execution for audit.
type AssignmentRun struct {
	ID         string     `db:"id" json:"id"`
	ProgramID  string     `db:"program_id" json:"program_id"`
	DryRun     bool       `db:"dry_run" json:"dry_run"`
	Processed  int        `db:"processed" json:"processed"`
	Assigned   int        `db:"assigned" json:"assigned"`
	Failed     int        `db:"failed" json:"failed"`
	StartedAt  time.Time  `db:"started_at" json:"started_at"`
	FinishedAt *time.Time `db:"finished_at" json:"finished_at,omitempty"`
}
