package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/shiftworks/vacation-api/internal/dto"
	"github.com/shiftworks/vacation-api/internal/models"
	"github.com/shiftworks/vacation-api/internal/repository"
	appErrors "github.com/shiftworks/vacation-api/pkg/errors"
)

type blockStore interface {
	ExistsForGroupProgram(ctx context.Context, groupID, programID string) (bool, error)
	CreateBlock(ctx context.Context, exec sqlx.ExtContext, block *models.ReservationBlock) error
	FindBlock(ctx context.Context, id string) (*models.ReservationBlock, error)
	ListByGroupProgram(ctx context.Context, groupID, programID string) ([]models.ReservationBlock, error)
	CreateAssignment(ctx context.Context, exec sqlx.ExtContext, assignment *models.BlockAssignment) error
	ListAssignments(ctx context.Context, blockID string) ([]models.BlockAssignment, error)
	CountActiveAssignments(ctx context.Context, blockID string) (int, error)
	FindActiveAssignment(ctx context.Context, employeeID, programID string) (*models.BlockAssignment, error)
	MoveAssignment(ctx context.Context, exec sqlx.ExtContext, assignmentID, targetBlockID string, position int, motive string) error
}

type seniorityRoster interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
	ListByGroupBySeniority(ctx context.Context, groupID string) ([]models.Employee, error)
}

// dbProvider is satisfied by *sqlx.DB: transactional writes plus plain
// statement execution for the per-employee queueing pass.
type dbProvider interface {
	txProvider
	sqlx.ExtContext
}

// BlockService generates reservation blocks, moves employees between them
// and books concrete dates inside an open block window.
type BlockService struct {
	blocks       blockStore
	employees    seniorityRoster
	groups       employeeGroupResolver
	programs     programStore
	entitlements entitlementResolver
	ceilings     admissionGate
	calendar     assignmentCalendar
	vacations    assignmentVacations
	db           dbProvider
	defaults     BlockDefaults
	validate     *validator.Validate
	logger       *zap.Logger
}

// BlockDefaults provides sizing used when a generation request omits them.
type BlockDefaults struct {
	Capacity      int
	DurationHours int
}

// NewBlockService creates the reservation block scheduler.
func NewBlockService(
	blocks blockStore,
	employees seniorityRoster,
	groups employeeGroupResolver,
	programs programStore,
	entitlements entitlementResolver,
	ceilings admissionGate,
	calendar assignmentCalendar,
	vacations assignmentVacations,
	db dbProvider,
	defaults BlockDefaults,
	validate *validator.Validate,
	logger *zap.Logger,
) *BlockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlockService{
		blocks:       blocks,
		employees:    employees,
		groups:       groups,
		programs:     programs,
		entitlements: entitlements,
		ceilings:     ceilings,
		calendar:     calendar,
		vacations:    vacations,
		db:           db,
		defaults:     defaults,
		validate:     validate,
		logger:       logger,
	}
}

// Generate partitions the group's roster, most senior first, into
// consecutive blocks of the requested capacity. A remainder smaller than one
// full block becomes a trailing Overflow block. Generation is idempotent per
// (group, program): a second call conflicts instead of duplicating.
func (s *BlockService) Generate(ctx context.Context, req dto.GenerateBlocksRequest) (*dto.GenerateBlocksResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	program, err := s.programs.FindByID(ctx, req.ProgramID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, fmt.Sprintf("program %s not found", req.ProgramID))
	}
	if program.Status != models.ProgramStatusOpen {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("program %s is %s, block generation requires an open program", program.ID, program.Status))
	}

	exists, err := s.blocks.ExistsForGroupProgram(ctx, req.GroupID, program.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing blocks")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("blocks already generated for group %s in program %s", req.GroupID, program.ID))
	}

	capacity := req.Capacity
	if capacity == 0 {
		capacity = s.defaults.Capacity
	}
	durationHours := req.DurationHours
	if durationHours == 0 {
		durationHours = s.defaults.DurationHours
	}
	if capacity <= 0 || durationHours <= 0 {
		return nil, appErrors.Clone(appErrors.ErrConfigurationGap, "block capacity and duration must be positive")
	}

	startAt, err := parseBlockTime(req.StartAt)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid startAt %q", req.StartAt))
	}

	roster, err := s.employees.ListByGroupBySeniority(ctx, req.GroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group roster")
	}
	if len(roster) == 0 {
		return nil, appErrors.Clone(appErrors.ErrConfigurationGap, fmt.Sprintf("group %s has no active roster", req.GroupID))
	}

	blocks := partitionBlocks(req.GroupID, program.ID, startAt, time.Duration(durationHours)*time.Hour, capacity, len(roster))

	// Blocks are structural and created atomically; queue entries are added
	// one by one afterwards so a single bad employee row does not void the
	// whole partition.
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	for i := range blocks {
		if err := s.blocks.CreateBlock(ctx, tx, &blocks[i]); err != nil {
			tx.Rollback()
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "blocks already generated concurrently")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create block")
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit blocks")
	}

	resp := &dto.GenerateBlocksResponse{GroupID: req.GroupID, ProgramID: program.ID}
	summaries := make([]dto.BlockSummary, len(blocks))
	for i, block := range blocks {
		summaries[i] = dto.BlockSummary{
			BlockID:  block.ID,
			Index:    block.Index,
			Kind:     string(block.Kind),
			StartAt:  block.StartAt.Format(time.RFC3339),
			EndAt:    block.EndAt.Format(time.RFC3339),
			Capacity: block.Capacity,
		}
	}

	for i, employee := range roster {
		blockIdx := i / capacity
		position := i%capacity + 1
		assignment := &models.BlockAssignment{
			ID:         uuid.NewString(),
			BlockID:    blocks[blockIdx].ID,
			EmployeeID: employee.ID,
			Position:   position,
			Status:     models.BlockAssignmentActive,
		}
		if err := s.blocks.CreateAssignment(ctx, s.db, assignment); err != nil {
			s.logger.Warn("failed to queue employee into block",
				zap.String("employee_id", employee.ID),
				zap.String("block_id", assignment.BlockID),
				zap.Error(err))
			resp.Failures = append(resp.Failures, dto.BlockGenerationFailure{
				EmployeeID: employee.ID,
				Reason:     err.Error(),
			})
			continue
		}
		summaries[blockIdx].Employees = append(summaries[blockIdx].Employees, employee.ID)
		resp.Assigned++
	}

	resp.Blocks = summaries
	s.logger.Info("reservation blocks generated",
		zap.String("group_id", req.GroupID),
		zap.String("program_id", program.ID),
		zap.Int("blocks", len(blocks)),
		zap.Int("assigned", resp.Assigned),
		zap.Int("failures", len(resp.Failures)))
	return resp, nil
}

// List returns the generated blocks of a group within a program, each with
// its current queue of active employees in position order.
func (s *BlockService) List(ctx context.Context, groupID, programID string) ([]dto.BlockSummary, error) {
	if groupID == "" || programID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "group id and program id are required")
	}
	blocks, err := s.blocks.ListByGroupProgram(ctx, groupID, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list blocks")
	}

	summaries := make([]dto.BlockSummary, len(blocks))
	for i, block := range blocks {
		summaries[i] = dto.BlockSummary{
			BlockID:  block.ID,
			Index:    block.Index,
			Kind:     string(block.Kind),
			StartAt:  block.StartAt.Format(time.RFC3339),
			EndAt:    block.EndAt.Format(time.RFC3339),
			Capacity: block.Capacity,
		}
		assignments, err := s.blocks.ListAssignments(ctx, block.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list block assignments")
		}
		for _, assignment := range assignments {
			if assignment.Status != models.BlockAssignmentActive {
				continue
			}
			summaries[i].Employees = append(summaries[i].Employees, assignment.EmployeeID)
		}
	}
	return summaries, nil
}

// ChangeBlock moves an employee's active queue entry to another block. The
// destination must have free capacity; the absence ceiling is not involved
// because no dates change.
func (s *BlockService) ChangeBlock(ctx context.Context, req dto.ChangeBlockRequest) (*models.BlockAssignment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	target, err := s.blocks.FindBlock(ctx, req.TargetBlockID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, fmt.Sprintf("block %s not found", req.TargetBlockID))
	}

	assignment, err := s.blocks.FindActiveAssignment(ctx, req.EmployeeID, target.ProgramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound,
				fmt.Sprintf("employee %s has no active block assignment in program %s", req.EmployeeID, target.ProgramID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load block assignment")
	}
	if assignment.BlockID == target.ID {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("employee %s is already in block %s", req.EmployeeID, target.ID))
	}

	occupied, err := s.blocks.CountActiveAssignments(ctx, target.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count block occupancy")
	}
	if occupied >= target.Capacity {
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded,
			fmt.Sprintf("block %s holds %d of %d", target.ID, occupied, target.Capacity))
	}

	// Earlier moves leave holes in the queue, so the next position comes
	// from the highest taken one, not from the occupancy count.
	queue, err := s.blocks.ListAssignments(ctx, target.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target block queue")
	}
	position := 1
	if len(queue) > 0 {
		position = queue[len(queue)-1].Position + 1
	}
	if err := s.blocks.MoveAssignment(ctx, s.db, assignment.ID, target.ID, position, req.Motive); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move block assignment")
	}

	s.logger.Info("block assignment moved",
		zap.String("employee_id", req.EmployeeID),
		zap.String("from_block", assignment.BlockID),
		zap.String("to_block", target.ID),
		zap.String("motive", req.Motive))

	moved := *assignment
	moved.BlockID = target.ID
	moved.Position = position
	moved.Motive = &req.Motive
	return &moved, nil
}

// ReserveDates books vacation dates for an employee inside their block
// window. Each date passes the admission gate independently; accepted dates
// stay booked even when later ones are rejected.
func (s *BlockService) ReserveDates(ctx context.Context, req dto.ReserveDatesRequest) (*dto.ReserveDatesResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	block, err := s.blocks.FindBlock(ctx, req.BlockID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, fmt.Sprintf("block %s not found", req.BlockID))
	}

	now := time.Now()
	if now.Before(block.StartAt) || now.After(block.EndAt) {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("block %s window is not open (%s to %s)", block.ID, block.StartAt.Format(time.RFC3339), block.EndAt.Format(time.RFC3339)))
	}

	assignment, err := s.blocks.FindActiveAssignment(ctx, req.EmployeeID, block.ProgramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden,
				fmt.Sprintf("employee %s is not queued in block %s", req.EmployeeID, block.ID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load block assignment")
	}
	if assignment.BlockID != block.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden,
			fmt.Sprintf("employee %s is not queued in block %s", req.EmployeeID, block.ID))
	}

	program, err := s.programs.FindByID(ctx, block.ProgramID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	employee, err := s.employees.FindByID(ctx, req.EmployeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, fmt.Sprintf("employee %s not found", req.EmployeeID))
	}
	group, err := s.groups.GroupForEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve employee group")
	}

	entitlement, err := s.entitlements.ResolveForEmployee(ctx, *employee, program.Year)
	if err != nil {
		return nil, err
	}
	origin := models.OriginManual
	used, err := s.vacations.CountActiveByEmployeeProgram(ctx, req.EmployeeID, program.ID, &origin)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count reservations")
	}
	remaining := entitlement.EmployeeSelectable - used

	resp := &dto.ReserveDatesResponse{EmployeeID: req.EmployeeID}
	for _, raw := range req.Dates {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			resp.Rejected = append(resp.Rejected, dto.DateRejection{Date: raw, Reason: dto.RejectInvalidDate})
			continue
		}
		if date.Before(program.StartDate) || date.After(program.EndDate) {
			resp.Rejected = append(resp.Rejected, dto.DateRejection{Date: raw, Reason: dto.RejectOutOfProgram})
			continue
		}
		if remaining <= 0 {
			resp.Rejected = append(resp.Rejected, dto.DateRejection{Date: raw, Reason: dto.RejectQuotaExhausted})
			continue
		}
		reason, err := s.reserveOne(ctx, program.ID, group.ID, req.EmployeeID, date)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			resp.Rejected = append(resp.Rejected, dto.DateRejection{Date: raw, Reason: reason})
			continue
		}
		resp.Reserved = append(resp.Reserved, raw)
		remaining--
	}
	resp.Remaining = remaining
	return resp, nil
}

// reserveOne books a single date. A non-empty reason means the date was
// rejected for a business cause; an error means the attempt itself failed.
func (s *BlockService) reserveOne(ctx context.Context, programID, groupID, employeeID string, date time.Time) (string, error) {
	day, err := s.calendar.ListRange(ctx, employeeID, date, date)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar day")
	}
	if len(day) == 0 || day[0].Activity != models.ActivityWork {
		return dto.RejectNotWorkingDay, nil
	}

	commit := func(ctx context.Context) error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		record := &models.VacationRecord{
			ID:         uuid.NewString(),
			EmployeeID: employeeID,
			ProgramID:  programID,
			Date:       date,
			Origin:     models.OriginManual,
			Status:     models.VacationActive,
		}
		if err := s.vacations.Create(ctx, tx, record); err != nil {
			tx.Rollback()
			return err
		}
		if err := s.calendar.SetActivity(ctx, tx, employeeID, date, models.ActivityVacation); err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit()
	}

	if _, err := s.ceilings.Admit(ctx, groupID, date, commit); err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrAdmissionDenied.Code {
			return dto.RejectCeiling, nil
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return dto.RejectDuplicate, nil
		}
		return "", err
	}
	return "", nil
}

func partitionBlocks(groupID, programID string, startAt time.Time, duration time.Duration, capacity, rosterSize int) []models.ReservationBlock {
	full := rosterSize / capacity
	remainder := rosterSize % capacity

	total := full
	if remainder > 0 {
		total++
	}
	blocks := make([]models.ReservationBlock, 0, total)
	for i := 0; i < total; i++ {
		kind := models.BlockRegular
		size := capacity
		if remainder > 0 && i == total-1 {
			kind = models.BlockOverflow
			size = remainder
		}
		open := startAt.Add(time.Duration(i) * duration)
		blocks = append(blocks, models.ReservationBlock{
			ID:        uuid.NewString(),
			GroupID:   groupID,
			ProgramID: programID,
			Index:     i + 1,
			Kind:      kind,
			StartAt:   open,
			EndAt:     open.Add(duration),
			Capacity:  size,
		})
	}
	return blocks
}

func parseBlockTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse(dateLayout, value)
}
