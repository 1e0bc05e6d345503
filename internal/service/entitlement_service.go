package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shiftworks/vacation-api/internal/models"
	appErrors "github.com/shiftworks/vacation-api/pkg/errors"
)

const bracketCacheKey = "entitlement:brackets"

type employeeReader interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
}

type bracketReader interface {
	ListBrackets(ctx context.Context) ([]models.SeniorityBracket, error)
}

type referenceCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// EntitlementService maps (hire date, reference year) to yearly vacation day
// counts through the seniority bracket table.
type EntitlementService struct {
	employees employeeReader
	brackets  bracketReader
	cache     referenceCache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewEntitlementService wires the seniority entitlement resolver. cache may
// be nil.
func NewEntitlementService(employees employeeReader, brackets bracketReader, cache referenceCache, cacheTTL time.Duration, logger *zap.Logger) *EntitlementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Minute
	}
	return &EntitlementService{
		employees: employees,
		brackets:  brackets,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Resolve computes the entitlement of an employee for a reference year. A
// seniority value not covered by any bracket surfaces as NoBracketMatch;
// it is never defaulted to zero days.
func (s *EntitlementService) Resolve(ctx context.Context, employeeID string, year int) (*models.Entitlement, error) {
	if employeeID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "employee id is required")
	}
	if year < 1900 || year > 2200 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reference year out of range")
	}

	employee, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}

	years := employee.SeniorityYears(year)
	bracket, err := s.matchBracket(ctx, years)
	if err != nil {
		return nil, err
	}

	return &models.Entitlement{
		EmployeeID:         employeeID,
		Year:               year,
		SeniorityYears:     years,
		Total:              bracket.TotalDays,
		CompanyAssigned:    bracket.CompanyDays,
		EmployeeSelectable: bracket.TotalDays - bracket.CompanyDays,
	}, nil
}

// ResolveForEmployee computes the entitlement for an already-loaded employee.
// Batch runs use this to avoid re-fetching the roster row by row.
func (s *EntitlementService) ResolveForEmployee(ctx context.Context, employee models.Employee, year int) (*models.Entitlement, error) {
	years := employee.SeniorityYears(year)
	bracket, err := s.matchBracket(ctx, years)
	if err != nil {
		return nil, err
	}
	return &models.Entitlement{
		EmployeeID:         employee.ID,
		Year:               year,
		SeniorityYears:     years,
		Total:              bracket.TotalDays,
		CompanyAssigned:    bracket.CompanyDays,
		EmployeeSelectable: bracket.TotalDays - bracket.CompanyDays,
	}, nil
}

func (s *EntitlementService) matchBracket(ctx context.Context, years int) (*models.SeniorityBracket, error) {
	brackets, err := s.loadBrackets(ctx)
	if err != nil {
		return nil, err
	}
	if len(brackets) == 0 {
		return nil, appErrors.Clone(appErrors.ErrConfigurationGap, "seniority bracket table is empty")
	}

	// Brackets are ordered by years_from ascending, so the first match is
	// the smallest covering bracket.
	for i := range brackets {
		bracket := brackets[i]
		if !bracket.Contains(years) {
			continue
		}
		if bracket.CompanyDays < 0 || bracket.CompanyDays > bracket.TotalDays {
			return nil, appErrors.Clone(appErrors.ErrConfigurationGap, fmt.Sprintf("bracket %s assigns %d company days out of %d total", bracket.ID, bracket.CompanyDays, bracket.TotalDays))
		}
		if bracket.SelectableDays != bracket.TotalDays-bracket.CompanyDays {
			return nil, appErrors.Clone(appErrors.ErrConfigurationGap, fmt.Sprintf("bracket %s stores %d selectable days, want %d", bracket.ID, bracket.SelectableDays, bracket.TotalDays-bracket.CompanyDays))
		}
		return &bracket, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNoBracketMatch, fmt.Sprintf("no seniority bracket covers %d years", years))
}

// RefreshBrackets drops the cached bracket table and reloads it from
// storage, for use after the table has been edited.
func (s *EntitlementService) RefreshBrackets(ctx context.Context) ([]models.SeniorityBracket, error) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, bracketCacheKey); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate bracket cache")
		}
	}
	return s.loadBrackets(ctx)
}

func (s *EntitlementService) loadBrackets(ctx context.Context) ([]models.SeniorityBracket, error) {
	if s.cache != nil {
		var cached []models.SeniorityBracket
		if err := s.cache.Get(ctx, bracketCacheKey, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	brackets, err := s.brackets.ListBrackets(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load seniority brackets")
	}

	if s.cache != nil && len(brackets) > 0 {
		if err := s.cache.Set(ctx, bracketCacheKey, brackets, s.cacheTTL); err != nil {
			s.logger.Warn("bracket cache write failed", zap.Error(err))
		}
	}
	return brackets, nil
}
