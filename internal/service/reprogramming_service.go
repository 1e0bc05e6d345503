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

type requestStore interface {
	Create(ctx context.Context, request *models.ReprogrammingRequest) error
	FindByID(ctx context.Context, id string) (*models.ReprogrammingRequest, error)
	HasOpenForRecord(ctx context.Context, recordID string) (bool, error)
	Decide(ctx context.Context, exec sqlx.ExtContext, id string, status models.RequestStatus, reason *string) (bool, error)
	ListPendingEscalations(ctx context.Context) ([]models.ReprogrammingRequest, error)
}

type exchangeVacations interface {
	Create(ctx context.Context, exec sqlx.ExtContext, record *models.VacationRecord) error
	FindByID(ctx context.Context, id string) (*models.VacationRecord, error)
	MarkStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.VacationStatus) error
	ExistsActive(ctx context.Context, employeeID string, date time.Time) (bool, error)
	ListByEmployeeProgram(ctx context.Context, employeeID, programID string) ([]models.VacationRecord, error)
}

type exchangeCalendar interface {
	FindDay(ctx context.Context, employeeID string, date time.Time) (*models.CalendarDay, error)
	SetActivity(ctx context.Context, exec sqlx.ExtContext, employeeID string, date time.Time, activity models.DayActivity) error
	IsHoliday(ctx context.Context, date time.Time) (bool, error)
}

type programResolver interface {
	FindOpenByYear(ctx context.Context, year int) (*models.AnnualProgram, error)
}

type decisionNotifier interface {
	RequestResolved(ctx context.Context, request *models.ReprogrammingRequest)
}

// ReprogrammingService arbitrates vacation relocations and holiday
// exchanges. A request that fits under the absence ceiling is approved on
// submission; one that does not stays Pending until a human decides. The
// arbiter never rejects on its own.
type ReprogrammingService struct {
	requests  requestStore
	vacations exchangeVacations
	calendar  exchangeCalendar
	groups    employeeGroupResolver
	programs  programResolver
	ceilings  admissionGate
	db        dbProvider
	notifier  decisionNotifier
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewReprogrammingService creates the arbiter and registers its request
// validators.
func NewReprogrammingService(
	requests requestStore,
	vacations exchangeVacations,
	calendar exchangeCalendar,
	groups employeeGroupResolver,
	programs programResolver,
	ceilings admissionGate,
	db dbProvider,
	notifier decisionNotifier,
	validate *validator.Validate,
	logger *zap.Logger,
) *ReprogrammingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ReprogrammingService{
		requests:  requests,
		vacations: vacations,
		calendar:  calendar,
		groups:    groups,
		programs:  programs,
		ceilings:  ceilings,
		db:        db,
		notifier:  notifier,
		validate:  validate,
		logger:    logger,
	}
	svc.validate.RegisterValidation("request_kind", func(fl validator.FieldLevel) bool {
		return models.RequestKind(fl.Field().String()).Valid()
	})
	svc.validate.RegisterValidation("request_decision", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case dto.DecisionApprove, dto.DecisionReject:
			return true
		default:
			return false
		}
	})
	return svc
}

// Submit opens a request. The new date is evaluated against the ceiling
// immediately: an admissible request is applied and approved in the same
// call, an inadmissible one is stored Pending for manual review.
func (s *ReprogrammingService) Submit(ctx context.Context, req dto.SubmitReprogrammingRequest) (*dto.SubmitReprogrammingResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	newDate, err := time.Parse(dateLayout, req.NewDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid newDate %q", req.NewDate))
	}

	group, err := s.groups.GroupForEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, fmt.Sprintf("employee %s has no group", req.EmployeeID))
	}

	request := &models.ReprogrammingRequest{
		ID:           uuid.NewString(),
		EmployeeID:   req.EmployeeID,
		Kind:         models.RequestKind(req.Kind),
		NewDate:      newDate,
		Status:       models.RequestPending,
		Motive:       req.Motive,
		PendingSince: time.Now().UTC(),
	}

	switch request.Kind {
	case models.KindReprogramming:
		if req.OriginalRecordID == nil || *req.OriginalRecordID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "originalRecordId is required for reprogramming")
		}
		record, err := s.vacations.FindByID(ctx, *req.OriginalRecordID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, fmt.Sprintf("vacation record %s not found", *req.OriginalRecordID))
		}
		if record.EmployeeID != req.EmployeeID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "vacation record belongs to a different employee")
		}
		if record.Status != models.VacationActive {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
				fmt.Sprintf("vacation record %s is %s, only active records can be reprogrammed", record.ID, record.Status))
		}
		open, err := s.requests.HasOpenForRecord(ctx, record.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check open requests")
		}
		if open {
			return nil, appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("vacation record %s already has an open request", record.ID))
		}
		request.OriginalRecordID = &record.ID
		request.OriginalDate = record.Date

	case models.KindHolidayExchange:
		if req.OriginalDate == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "originalDate is required for a holiday exchange")
		}
		originalDate, err := time.Parse(dateLayout, req.OriginalDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid originalDate %q", req.OriginalDate))
		}
		holiday, err := s.calendar.IsHoliday(ctx, originalDate)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check holiday calendar")
		}
		if !holiday {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("%s is not a public holiday", req.OriginalDate))
		}
		request.OriginalDate = originalDate
	}

	if reason, err := s.targetDayUsable(ctx, req.EmployeeID, newDate); err != nil {
		return nil, err
	} else if reason != "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, reason)
	}

	booked, err := s.vacations.ExistsActive(ctx, req.EmployeeID, newDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing records")
	}
	if booked {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("employee %s already has a day off on %s", req.EmployeeID, req.NewDate))
	}

	check, err := s.ceilings.CheckWithPending(ctx, group.ID, newDate, 0)
	if err != nil {
		return nil, err
	}
	request.NeedsApproval = !check.Allowed

	if err := s.requests.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store request")
	}

	if !request.NeedsApproval {
		if err := s.approve(ctx, request, group.ID, nil); err != nil {
			// The request survives as Pending; a reviewer can retry.
			s.logger.Warn("auto-approval failed, request left pending",
				zap.String("request_id", request.ID), zap.Error(err))
			request.NeedsApproval = true
		} else {
			now := time.Now().UTC()
			request.DecidedAt = &now
			if s.notifier != nil {
				s.notifier.RequestResolved(ctx, request)
			}
		}
	}

	s.logger.Info("reprogramming request submitted",
		zap.String("request_id", request.ID),
		zap.String("employee_id", request.EmployeeID),
		zap.String("kind", string(request.Kind)),
		zap.Bool("needs_approval", request.NeedsApproval),
		zap.String("status", string(request.Status)))
	return &dto.SubmitReprogrammingResponse{Request: *request, Check: *check}, nil
}

// Decide resolves a pending request. Approvals re-run the admission gate on
// the new date; rejections record the reason and leave the original record
// untouched. Terminal requests cannot be decided again.
func (s *ReprogrammingService) Decide(ctx context.Context, requestID string, req dto.DecideReprogrammingRequest) (*models.ReprogrammingRequest, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, fmt.Sprintf("request %s not found", requestID))
	}
	if request.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("request %s is already %s", request.ID, request.Status))
	}

	switch req.Decision {
	case dto.DecisionReject:
		updated, err := s.requests.Decide(ctx, s.db, request.ID, models.RequestRejected, req.Reason)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject request")
		}
		if !updated {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
				fmt.Sprintf("request %s was decided concurrently", request.ID))
		}
		request.Status = models.RequestRejected
		request.DecisionReason = req.Reason

	case dto.DecisionApprove:
		group, err := s.groups.GroupForEmployee(ctx, request.EmployeeID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve employee group")
		}
		if err := s.approve(ctx, request, group.ID, req.Reason); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	request.DecidedAt = &now
	if s.notifier != nil {
		s.notifier.RequestResolved(ctx, request)
	}
	s.logger.Info("reprogramming request decided",
		zap.String("request_id", request.ID),
		zap.String("decision", req.Decision),
		zap.String("status", string(request.Status)))
	return request, nil
}

// ListVacations returns an employee's vacation records within a program, the
// pool a relocation request picks its original record from.
func (s *ReprogrammingService) ListVacations(ctx context.Context, employeeID, programID string) ([]models.VacationRecord, error) {
	if employeeID == "" || programID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "employee id and program id are required")
	}
	records, err := s.vacations.ListByEmployeeProgram(ctx, employeeID, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list vacation records")
	}
	return records, nil
}

// ListEscalations returns requests waiting for manual review, oldest first.
func (s *ReprogrammingService) ListEscalations(ctx context.Context) ([]models.ReprogrammingRequest, error) {
	requests, err := s.requests.ListPendingEscalations(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending requests")
	}
	return requests, nil
}

// approve applies the swap under the admission gate: the guarded status
// flip, the original record transition and both calendar updates commit in
// one transaction or not at all.
func (s *ReprogrammingService) approve(ctx context.Context, request *models.ReprogrammingRequest, groupID string, reason *string) error {
	programID, err := s.programFor(ctx, request.NewDate)
	if err != nil {
		return err
	}

	commit := func(ctx context.Context) error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		updated, err := s.requests.Decide(ctx, tx, request.ID, models.RequestApproved, reason)
		if err != nil {
			tx.Rollback()
			return err
		}
		if !updated {
			tx.Rollback()
			return appErrors.Clone(appErrors.ErrInvalidTransition,
				fmt.Sprintf("request %s was decided concurrently", request.ID))
		}

		originalActivity := models.ActivityReprogrammed
		origin := models.OriginReprogramming
		if request.Kind == models.KindHolidayExchange {
			originalActivity = models.ActivityExchanged
			origin = models.OriginHolidayExchange
		}

		if request.OriginalRecordID != nil {
			if err := s.vacations.MarkStatus(ctx, tx, *request.OriginalRecordID, models.VacationExchanged); err != nil {
				tx.Rollback()
				return err
			}
		}
		record := &models.VacationRecord{
			ID:         uuid.NewString(),
			EmployeeID: request.EmployeeID,
			ProgramID:  programID,
			Date:       request.NewDate,
			Origin:     origin,
			Status:     models.VacationActive,
		}
		if err := s.vacations.Create(ctx, tx, record); err != nil {
			tx.Rollback()
			return err
		}
		if err := s.calendar.SetActivity(ctx, tx, request.EmployeeID, request.OriginalDate, originalActivity); err != nil {
			tx.Rollback()
			return err
		}
		if err := s.calendar.SetActivity(ctx, tx, request.EmployeeID, request.NewDate, models.ActivityVacation); err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit()
	}

	if _, err := s.ceilings.Admit(ctx, groupID, request.NewDate, commit); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("employee %s already has a day off on %s", request.EmployeeID, request.NewDate.Format(dateLayout)))
		}
		return err
	}
	request.Status = models.RequestApproved
	request.DecisionReason = reason
	return nil
}

// targetDayUsable reports why the new date cannot receive a day off, or ""
// when it can.
func (s *ReprogrammingService) targetDayUsable(ctx context.Context, employeeID string, date time.Time) (string, error) {
	day, err := s.calendar.FindDay(ctx, employeeID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Sprintf("no calendar day for %s", date.Format(dateLayout)), nil
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar day")
	}
	if day.Activity != models.ActivityWork {
		return fmt.Sprintf("%s is %s, a working day is required", date.Format(dateLayout), day.Activity), nil
	}
	return "", nil
}

func (s *ReprogrammingService) programFor(ctx context.Context, date time.Time) (string, error) {
	program, err := s.programs.FindOpenByYear(ctx, date.Year())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrConfigurationGap,
				fmt.Sprintf("no open program covers %d", date.Year()))
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load open program")
	}
	return program.ID, nil
}
