package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/shiftworks/vacation-api/internal/dto"
	"github.com/shiftworks/vacation-api/internal/models"
	"github.com/shiftworks/vacation-api/internal/repository"
	appErrors "github.com/shiftworks/vacation-api/pkg/errors"
	"github.com/shiftworks/vacation-api/pkg/locks"
)

type groupLister interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
	ListByArea(ctx context.Context, areaID string) ([]models.Group, error)
	ListAll(ctx context.Context) ([]models.Group, error)
}

type rosterReader interface {
	ListByGroup(ctx context.Context, groupID string) ([]models.Employee, error)
}

type programStore interface {
	FindByID(ctx context.Context, id string) (*models.AnnualProgram, error)
	CreateRun(ctx context.Context, run *models.AssignmentRun) error
	FinishRun(ctx context.Context, run *models.AssignmentRun) error
}

type entitlementResolver interface {
	ResolveForEmployee(ctx context.Context, employee models.Employee, year int) (*models.Entitlement, error)
}

type admissionGate interface {
	Admit(ctx context.Context, groupID string, date time.Time, commit func(ctx context.Context) error) (*models.CeilingCheck, error)
	CheckWithPending(ctx context.Context, groupID string, date time.Time, pending int) (*models.CeilingCheck, error)
}

type assignmentCalendar interface {
	ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]models.CalendarDay, error)
	SetActivity(ctx context.Context, exec sqlx.ExtContext, employeeID string, date time.Time, activity models.DayActivity) error
}

type assignmentVacations interface {
	Create(ctx context.Context, exec sqlx.ExtContext, record *models.VacationRecord) error
	CountActiveByEmployeeProgram(ctx context.Context, employeeID, programID string, origin *models.VacationOrigin) (int, error)
}

type runNotifier interface {
	AssignmentCompleted(ctx context.Context, result *dto.RunAssignmentResponse)
}

// AssignmentService runs the automatic vacation assignment batch for an
// annual program: one company-assigned day per eligible week, admitted
// through the absence ceiling, processed group by group in stable order so
// two runs over the same data produce the same plan.
type AssignmentService struct {
	groups       groupLister
	employees    rosterReader
	programs     programStore
	entitlements entitlementResolver
	ceilings     admissionGate
	calendar     assignmentCalendar
	vacations    assignmentVacations
	tx           txProvider
	runLock      *locks.RunLock
	notifier     runNotifier
	blackout     map[int]bool
	validate     *validator.Validate
	logger       *zap.Logger
}

// NewAssignmentService creates the batch engine. blackoutWeeks lists ISO
// week numbers excluded from automatic placement; notifier may be nil.
func NewAssignmentService(
	groups groupLister,
	employees rosterReader,
	programs programStore,
	entitlements entitlementResolver,
	ceilings admissionGate,
	calendar assignmentCalendar,
	vacations assignmentVacations,
	tx txProvider,
	runLock *locks.RunLock,
	notifier runNotifier,
	blackoutWeeks []int,
	validate *validator.Validate,
	logger *zap.Logger,
) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	blackout := make(map[int]bool, len(blackoutWeeks))
	for _, week := range blackoutWeeks {
		blackout[week] = true
	}
	return &AssignmentService{
		groups:       groups,
		employees:    employees,
		programs:     programs,
		entitlements: entitlements,
		ceilings:     ceilings,
		calendar:     calendar,
		vacations:    vacations,
		tx:           tx,
		runLock:      runLock,
		notifier:     notifier,
		blackout:     blackout,
		validate:     validate,
		logger:       logger,
	}
}

// Run executes one assignment batch. Only one run per program may be in
// flight; a second caller gets ErrRunInProgress. Dry runs evaluate the full
// batch against an in-memory absence overlay and write nothing.
func (s *AssignmentService) Run(ctx context.Context, req dto.RunAssignmentRequest) (*dto.RunAssignmentResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	program, err := s.programs.FindByID(ctx, req.ProgramID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, fmt.Sprintf("program %s not found", req.ProgramID))
	}
	if program.Status != models.ProgramStatusOpen {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("program %s is %s, assignment requires an open program", program.ID, program.Status))
	}

	owner := uuid.NewString()
	lockName := "assignment:" + program.ID
	acquired, err := s.runLock.Acquire(ctx, lockName, owner)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire run lock")
	}
	if !acquired {
		return nil, appErrors.Clone(appErrors.ErrRunInProgress, fmt.Sprintf("an assignment run for program %s is already in progress", program.ID))
	}
	defer func() {
		if err := s.runLock.Release(context.Background(), lockName, owner); err != nil {
			s.logger.Warn("failed to release run lock", zap.String("program_id", program.ID), zap.Error(err))
		}
	}()

	groups, warnings, err := s.resolveGroups(ctx, req.GroupIDs, req.AreaID)
	if err != nil {
		return nil, err
	}

	run := &models.AssignmentRun{
		ID:        uuid.NewString(),
		ProgramID: program.ID,
		DryRun:    req.DryRun,
		StartedAt: time.Now().UTC(),
	}
	if !req.DryRun {
		if err := s.programs.CreateRun(ctx, run); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record assignment run")
		}
	}

	resp := &dto.RunAssignmentResponse{
		RunID:     run.ID,
		ProgramID: program.ID,
		DryRun:    req.DryRun,
		Warnings:  warnings,
	}
	// Dry runs track their would-be commits here so later employees see the
	// absences earlier ones would have produced.
	pending := make(map[string]int)

	for _, group := range groups {
		roster, err := s.employees.ListByGroup(ctx, group.ID)
		if err != nil {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("group %s: roster unavailable: %v", group.ID, err))
			continue
		}
		if len(roster) == 0 {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("group %s has no active roster", group.ID))
			continue
		}
		for _, employee := range roster {
			detail := s.assignEmployee(ctx, program, group.ID, employee, req.DryRun, pending)
			resp.Processed++
			resp.Assigned += detail.DaysAssigned
			if detail.FailureReason != "" {
				resp.Failed++
			}
			resp.Details = append(resp.Details, detail)
		}
	}

	run.Processed = resp.Processed
	run.Assigned = resp.Assigned
	run.Failed = resp.Failed
	finished := time.Now().UTC()
	run.FinishedAt = &finished
	if !req.DryRun {
		if err := s.programs.FinishRun(ctx, run); err != nil {
			s.logger.Error("failed to finalize assignment run", zap.String("run_id", run.ID), zap.Error(err))
		}
		if s.notifier != nil {
			s.notifier.AssignmentCompleted(ctx, resp)
		}
	}

	s.logger.Info("assignment run finished",
		zap.String("run_id", run.ID),
		zap.String("program_id", program.ID),
		zap.Bool("dry_run", req.DryRun),
		zap.Int("processed", resp.Processed),
		zap.Int("assigned", resp.Assigned),
		zap.Int("failed", resp.Failed))
	return resp, nil
}

func (s *AssignmentService) resolveGroups(ctx context.Context, ids []string, areaID string) ([]models.Group, []string, error) {
	if len(ids) == 0 {
		if areaID != "" {
			groups, err := s.groups.ListByArea(ctx, areaID)
			if err != nil {
				return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups in area")
			}
			if len(groups) == 0 {
				return nil, nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("area %s has no groups", areaID))
			}
			return groups, nil, nil
		}
		groups, err := s.groups.ListAll(ctx)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
		}
		return groups, nil, nil
	}

	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	var groups []models.Group
	var warnings []string
	for _, id := range sorted {
		group, err := s.groups.FindByID(ctx, id)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("group %s not found, skipped", id))
			continue
		}
		groups = append(groups, *group)
	}
	return groups, warnings, nil
}

// assignEmployee places the employee's remaining company-assigned days, one
// per eligible ISO week in chronological order. Partial placement is kept
// and reported, never rolled back.
func (s *AssignmentService) assignEmployee(ctx context.Context, program *models.AnnualProgram, groupID string, employee models.Employee, dryRun bool, pending map[string]int) dto.EmployeeAssignmentDetail {
	detail := dto.EmployeeAssignmentDetail{EmployeeID: employee.ID, GroupID: groupID}

	entitlement, err := s.entitlements.ResolveForEmployee(ctx, employee, program.Year)
	if err != nil {
		appErr := appErrors.FromError(err)
		switch appErr.Code {
		case appErrors.ErrNoBracketMatch.Code, appErrors.ErrConfigurationGap.Code:
			detail.FailureReason = dto.FailureConfigurationGap
		default:
			detail.FailureReason = dto.FailureProcessingError
		}
		detail.FailureDetail = appErr.Message
		return detail
	}

	origin := models.OriginAutomatic
	already, err := s.vacations.CountActiveByEmployeeProgram(ctx, employee.ID, program.ID, &origin)
	if err != nil {
		detail.FailureReason = dto.FailureProcessingError
		detail.FailureDetail = fmt.Sprintf("failed to count existing assignments: %v", err)
		return detail
	}

	detail.DaysRequired = entitlement.CompanyAssigned
	required := entitlement.CompanyAssigned - already
	if required <= 0 {
		detail.DaysAssigned = 0
		return detail
	}

	days, err := s.calendar.ListRange(ctx, employee.ID, program.StartDate, program.EndDate)
	if err != nil {
		detail.FailureReason = dto.FailureProcessingError
		detail.FailureDetail = fmt.Sprintf("failed to load calendar: %v", err)
		return detail
	}
	if len(days) == 0 {
		detail.FailureReason = dto.FailureConfigurationGap
		detail.FailureDetail = "no generated calendar for the program period"
		return detail
	}

	weeks := s.eligibleWeeks(days)
	if len(weeks) == 0 {
		detail.FailureReason = dto.FailureNoWorkingDays
		detail.FailureDetail = "no working days outside blackout weeks"
		return detail
	}

	for _, week := range weeks {
		if required == 0 {
			break
		}
		for _, date := range week {
			placed, fatal := s.place(ctx, program.ID, groupID, employee.ID, date, dryRun, pending)
			if fatal != nil {
				detail.FailureReason = dto.FailureProcessingError
				detail.FailureDetail = fatal.Error()
				detail.DaysAssigned = len(detail.Dates)
				return detail
			}
			if placed {
				detail.Dates = append(detail.Dates, date.Format(dateLayout))
				required--
				break
			}
		}
	}

	detail.DaysAssigned = len(detail.Dates)
	if required > 0 {
		detail.FailureReason = dto.FailureInsufficientAvailability
		detail.FailureDetail = fmt.Sprintf("%d of %d days could not be placed", required, entitlement.CompanyAssigned)
	}
	return detail
}

// eligibleWeeks buckets the employee's working days by ISO week in
// chronological order, dropping blackout weeks.
func (s *AssignmentService) eligibleWeeks(days []models.CalendarDay) [][]time.Time {
	var order []int
	buckets := make(map[int][]time.Time)
	for _, day := range days {
		if day.Activity != models.ActivityWork {
			continue
		}
		isoYear, isoWeek := day.Date.ISOWeek()
		if s.blackout[isoWeek] {
			continue
		}
		key := isoYear*100 + isoWeek
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], day.Date)
	}
	weeks := make([][]time.Time, 0, len(order))
	for _, key := range order {
		weeks = append(weeks, buckets[key])
	}
	return weeks
}

// place tries to put one automatic vacation day on the date. It returns
// placed=false for recoverable misses (ceiling full, concurrent duplicate)
// so the caller can move on to the next candidate day.
func (s *AssignmentService) place(ctx context.Context, programID, groupID, employeeID string, date time.Time, dryRun bool, pending map[string]int) (bool, error) {
	if dryRun {
		key := groupID + "|" + date.Format(dateLayout)
		check, err := s.ceilings.CheckWithPending(ctx, groupID, date, pending[key])
		if err != nil {
			return false, err
		}
		if !check.Allowed {
			return false, nil
		}
		pending[key]++
		return true, nil
	}

	commit := func(ctx context.Context) error {
		tx, err := s.tx.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		record := &models.VacationRecord{
			ID:         uuid.NewString(),
			EmployeeID: employeeID,
			ProgramID:  programID,
			Date:       date,
			Origin:     models.OriginAutomatic,
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

	_, err := s.ceilings.Admit(ctx, groupID, date, commit)
	if err == nil {
		return true, nil
	}
	if appErrors.FromError(err).Code == appErrors.ErrAdmissionDenied.Code {
		return false, nil
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return false, nil
	}
	return false, err
}
