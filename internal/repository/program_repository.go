package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shiftworks/vacation-api/internal/models"
)

// ProgramRepository persists annual programs and assignment run audit rows.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository creates a new program repository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// FindByID loads an annual program.
func (r *ProgramRepository) FindByID(ctx context.Context, id string) (*models.AnnualProgram, error) {
	const query = `SELECT id, year, start_date, end_date, status, created_at, updated_at FROM annual_programs WHERE id = $1`
	var program models.AnnualProgram
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		return nil, err
	}
	return &program, nil
}

// FindOpenByYear returns the Open program for a year, if any.
func (r *ProgramRepository) FindOpenByYear(ctx context.Context, year int) (*models.AnnualProgram, error) {
	const query = `SELECT id, year, start_date, end_date, status, created_at, updated_at FROM annual_programs WHERE year = $1 AND status = 'OPEN'`
	var program models.AnnualProgram
	if err := r.db.GetContext(ctx, &program, query, year); err != nil {
		return nil, err
	}
	return &program, nil
}

// CreateRun inserts an assignment run audit row and returns its id.
func (r *ProgramRepository) CreateRun(ctx context.Context, run *models.AssignmentRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	const query = `INSERT INTO assignment_runs (id, program_id, dry_run, processed, assigned, failed, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query, run.ID, run.ProgramID, run.DryRun, run.Processed, run.Assigned, run.Failed, run.StartedAt); err != nil {
		return fmt.Errorf("create assignment run: %w", err)
	}
	return nil
}

// FinishRun stores final counters and the finish timestamp.
func (r *ProgramRepository) FinishRun(ctx context.Context, run *models.AssignmentRun) error {
	now := time.Now().UTC()
	run.FinishedAt = &now
	const query = `UPDATE assignment_runs SET processed = $2, assigned = $3, failed = $4, finished_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, run.ID, run.Processed, run.Assigned, run.Failed, run.FinishedAt); err != nil {
		return fmt.Errorf("finish assignment run %s: %w", run.ID, err)
	}
	return nil
}
