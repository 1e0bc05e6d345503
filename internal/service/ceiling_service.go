package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shiftworks/vacation-api/internal/models"
	appErrors "github.com/shiftworks/vacation-api/pkg/errors"
	"github.com/shiftworks/vacation-api/pkg/locks"
)

type personnelCounter interface {
	CountActiveByGroup(ctx context.Context, groupID string, asOf time.Time) (int, error)
}

type absenceCounter interface {
	CountAbsences(ctx context.Context, groupID string, date time.Time) (int, error)
}

type ceilingConfigReader interface {
	Global(ctx context.Context) (*models.AbsenceCeilingConfig, error)
	Exception(ctx context.Context, groupID string, date time.Time) (*models.AbsenceCeilingConfig, error)
}

// CeilingService computes, for a (group, date), the current absence
// percentage and whether one more absence would breach the allowed maximum.
// Every write path in the engine passes through Admit, which serializes the
// check-then-commit pair per (group, date).
type CeilingService struct {
	personnel  personnelCounter
	absences   absenceCounter
	config     ceilingConfigReader
	gate       *locks.KeyedMutex
	defaultMax float64
	logger     *zap.Logger
}

// NewCeilingService wires the absence ceiling validator.
func NewCeilingService(personnel personnelCounter, absences absenceCounter, config ceilingConfigReader, defaultMax float64, logger *zap.Logger) *CeilingService {
	if defaultMax <= 0 {
		defaultMax = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CeilingService{
		personnel:  personnel,
		absences:   absences,
		config:     config,
		gate:       locks.NewKeyedMutex(),
		defaultMax: defaultMax,
		logger:     logger,
	}
}

// Check evaluates the ceiling for (group, date) against the current absence
// count. It does not serialize against concurrent commits; use Admit for the
// check-then-commit gate.
func (s *CeilingService) Check(ctx context.Context, groupID string, date time.Time) (*models.CeilingCheck, error) {
	return s.evaluate(ctx, groupID, date, 0)
}

// CheckWithPending evaluates the ceiling as if pending additional absences
// were already committed. Dry runs use this to reproduce the outcome of a
// real run without writing records.
func (s *CeilingService) CheckWithPending(ctx context.Context, groupID string, date time.Time, pending int) (*models.CeilingCheck, error) {
	if pending < 0 {
		pending = 0
	}
	return s.evaluate(ctx, groupID, date, pending)
}

// Admit runs the commit callback only if one more absence on (group, date)
// stays within the allowed maximum. The evaluation and the commit run under
// a mutex keyed on the pair, so two concurrent submissions cannot both be
// admitted once the ceiling is reached.
func (s *CeilingService) Admit(ctx context.Context, groupID string, date time.Time, commit func(ctx context.Context) error) (*models.CeilingCheck, error) {
	key := gateKey(groupID, date)
	s.gate.Lock(key)
	defer s.gate.Unlock(key)

	check, err := s.evaluate(ctx, groupID, date, 0)
	if err != nil {
		return nil, err
	}
	if !check.Allowed {
		return check, appErrors.Clone(appErrors.ErrAdmissionDenied,
			fmt.Sprintf("group %s on %s: %.2f%% with one more absence exceeds %.2f%%",
				groupID, date.Format(dateLayout), check.PercentageIfAdded, check.MaxAllowed))
	}
	if commit != nil {
		if err := commit(ctx); err != nil {
			return check, err
		}
	}
	return check, nil
}

func (s *CeilingService) evaluate(ctx context.Context, groupID string, date time.Time, pending int) (*models.CeilingCheck, error) {
	if groupID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "group id is required")
	}

	total, err := s.personnel.CountActiveByGroup(ctx, groupID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count group personnel")
	}
	if total <= 0 {
		return nil, appErrors.Clone(appErrors.ErrConfigurationGap, fmt.Sprintf("group %s has no active personnel on %s", groupID, date.Format(dateLayout)))
	}

	absent, err := s.absences.CountAbsences(ctx, groupID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count absences")
	}
	absent += pending

	maxAllowed, err := s.maxFor(ctx, groupID, date)
	if err != nil {
		return nil, err
	}

	// Exact arithmetic keeps boundary cases stable: 2 of 10 absent is
	// exactly 20%, not 19.999...%.
	totalDec := decimal.NewFromInt(int64(total))
	current := decimal.NewFromInt(int64(absent) * 100).Div(totalDec)
	ifAdded := decimal.NewFromInt(int64(absent+1) * 100).Div(totalDec)
	maxDec := decimal.NewFromFloat(maxAllowed)

	return &models.CeilingCheck{
		GroupID:           groupID,
		Date:              date.Format(dateLayout),
		PersonnelTotal:    total,
		AbsentCount:       absent,
		CurrentPercentage: current.Round(4).InexactFloat64(),
		PercentageIfAdded: ifAdded.Round(4).InexactFloat64(),
		MaxAllowed:        maxAllowed,
		Allowed:           ifAdded.LessThanOrEqual(maxDec),
	}, nil
}

// maxFor resolves the allowed maximum. A scoped exception for (group, date)
// or (group, month) overrides the stored global value, which in turn
// overrides the configured fallback.
func (s *CeilingService) maxFor(ctx context.Context, groupID string, date time.Time) (float64, error) {
	exception, err := s.config.Exception(ctx, groupID, date)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ceiling exception")
	}
	if exception != nil {
		return exception.Percentage, nil
	}

	global, err := s.config.Global(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load global ceiling")
	}
	if global != nil {
		return global.Percentage, nil
	}
	return s.defaultMax, nil
}

func gateKey(groupID string, date time.Time) string {
	return groupID + "|" + date.Format(dateLayout)
}
