package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/shiftworks/vacation-api/internal/models"
)

// BlockRepository persists reservation blocks and their queue assignments.
type BlockRepository struct {
	db *sqlx.DB
}

// NewBlockRepository creates a new block repository.
func NewBlockRepository(db *sqlx.DB) *BlockRepository {
	return &BlockRepository{db: db}
}

const blockColumns = "id, group_id, program_id, block_index, kind, start_at, end_at, capacity, created_at"

// ExistsForGroupProgram reports whether blocks were already generated for the
// (group, program) pair. Generation must be idempotent.
func (r *BlockRepository) ExistsForGroupProgram(ctx context.Context, groupID, programID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM reservation_blocks WHERE group_id = $1 AND program_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, groupID, programID); err != nil {
		return false, fmt.Errorf("check blocks for group %s: %w", groupID, err)
	}
	return exists, nil
}

// CreateBlock inserts one block. The (group, program, index) unique key maps
// collisions to ErrDuplicate.
func (r *BlockRepository) CreateBlock(ctx context.Context, exec sqlx.ExtContext, block *models.ReservationBlock) error {
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	const query = `INSERT INTO reservation_blocks (id, group_id, program_id, block_index, kind, start_at, end_at, capacity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`
	if _, err := exec.ExecContext(ctx, query, block.ID, block.GroupID, block.ProgramID, block.Index, block.Kind, block.StartAt, block.EndAt, block.Capacity); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("create reservation block %d: %w", block.Index, err)
	}
	return nil
}

// FindBlock loads a block by id.
func (r *BlockRepository) FindBlock(ctx context.Context, id string) (*models.ReservationBlock, error) {
	query := fmt.Sprintf("SELECT %s FROM reservation_blocks WHERE id = $1", blockColumns)
	var block models.ReservationBlock
	if err := r.db.GetContext(ctx, &block, query, id); err != nil {
		return nil, err
	}
	return &block, nil
}

// ListByGroupProgram returns blocks ordered by index.
func (r *BlockRepository) ListByGroupProgram(ctx context.Context, groupID, programID string) ([]models.ReservationBlock, error) {
	query := fmt.Sprintf("SELECT %s FROM reservation_blocks WHERE group_id = $1 AND program_id = $2 ORDER BY block_index ASC", blockColumns)
	var blocks []models.ReservationBlock
	if err := r.db.SelectContext(ctx, &blocks, query, groupID, programID); err != nil {
		return nil, fmt.Errorf("list blocks for group %s: %w", groupID, err)
	}
	return blocks, nil
}

const blockAssignmentColumns = "id, block_id, employee_id, position, status, motive, created_at, updated_at"

// CreateAssignment places an employee into a block queue. Duplicate
// (block, employee) or (block, position) pairs map to ErrDuplicate.
func (r *BlockRepository) CreateAssignment(ctx context.Context, exec sqlx.ExtContext, assignment *models.BlockAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.Status == "" {
		assignment.Status = models.BlockAssignmentActive
	}
	const query = `INSERT INTO block_assignments (id, block_id, employee_id, position, status, motive, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`
	if _, err := exec.ExecContext(ctx, query, assignment.ID, assignment.BlockID, assignment.EmployeeID, assignment.Position, assignment.Status, assignment.Motive); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("create block assignment for %s: %w", assignment.EmployeeID, err)
	}
	return nil
}

// CountActiveAssignments returns the number of active queue entries in a block.
func (r *BlockRepository) CountActiveAssignments(ctx context.Context, blockID string) (int, error) {
	const query = `SELECT COUNT(*) FROM block_assignments WHERE block_id = $1 AND status = 'ACTIVE'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, blockID); err != nil {
		return 0, fmt.Errorf("count assignments for block %s: %w", blockID, err)
	}
	return count, nil
}

// FindActiveAssignment returns the employee's active queue entry for a
// program, if any.
func (r *BlockRepository) FindActiveAssignment(ctx context.Context, employeeID, programID string) (*models.BlockAssignment, error) {
	const query = `SELECT ba.id, ba.block_id, ba.employee_id, ba.position, ba.status, ba.motive, ba.created_at, ba.updated_at
		FROM block_assignments ba JOIN reservation_blocks rb ON rb.id = ba.block_id
		WHERE ba.employee_id = $1 AND rb.program_id = $2 AND ba.status = 'ACTIVE'`
	var assignment models.BlockAssignment
	if err := r.db.GetContext(ctx, &assignment, query, employeeID, programID); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// MoveAssignment re-homes an active assignment to a new block, recording the
// motive and the new queue position.
func (r *BlockRepository) MoveAssignment(ctx context.Context, exec sqlx.ExtContext, assignmentID, targetBlockID string, position int, motive string) error {
	const query = `UPDATE block_assignments SET block_id = $2, position = $3, motive = $4, updated_at = NOW() WHERE id = $1 AND status = 'ACTIVE'`
	res, err := exec.ExecContext(ctx, query, assignmentID, targetBlockID, position, motive)
	if err != nil {
		return fmt.Errorf("move block assignment %s: %w", assignmentID, err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("block assignment %s not found or not active", assignmentID)
	}
	return nil
}

// ListAssignments returns a block's queue ordered by position.
func (r *BlockRepository) ListAssignments(ctx context.Context, blockID string) ([]models.BlockAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM block_assignments WHERE block_id = $1 ORDER BY position ASC", blockAssignmentColumns)
	var assignments []models.BlockAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, blockID); err != nil {
		return nil, fmt.Errorf("list assignments for block %s: %w", blockID, err)
	}
	return assignments, nil
}
