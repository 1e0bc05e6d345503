package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/shiftworks/vacation-api/internal/dto"
	"github.com/shiftworks/vacation-api/internal/models"
	appErrors "github.com/shiftworks/vacation-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type rotationReader interface {
	FindRule(ctx context.Context, id string) (*models.RotationRule, error)
	RuleForGroup(ctx context.Context, groupID string) (*models.RotationRule, error)
	ListRoles(ctx context.Context, ruleID string) ([]models.WeeklyRole, error)
	ListTemplates(ctx context.Context, ruleID string) ([]models.DayTemplate, error)
}

type employeeGroupResolver interface {
	GroupForEmployee(ctx context.Context, employeeID string) (*models.Group, error)
}

type calendarWriter interface {
	UpsertDays(ctx context.Context, exec sqlx.ExtContext, days []models.CalendarDay) error
	ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]models.CalendarDay, error)
	ListHolidays(ctx context.Context, from, to time.Time) ([]models.Holiday, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// RotationService expands cyclical shift rules into per-day activity state.
// Expansion is a pure function of its inputs, so horizons can be recomputed
// idempotently for reporting or dry runs.
type RotationService struct {
	rotations rotationReader
	groups    employeeGroupResolver
	calendar  calendarWriter
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRotationService wires the rotation calendar generator.
func NewRotationService(rotations rotationReader, groups employeeGroupResolver, calendar calendarWriter, tx txProvider, validate *validator.Validate, logger *zap.Logger) *RotationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RotationService{
		rotations: rotations,
		groups:    groups,
		calendar:  calendar,
		tx:        tx,
		validator: validate,
		logger:    logger,
	}
}

// rotationPlan carries everything needed to expand a rotation without I/O.
type rotationPlan struct {
	Rule      models.RotationRule
	Roles     []models.WeeklyRole
	Templates map[string][8]*models.DayTemplate
}

// loadPlan fetches a rotation rule with its roles and templates, and verifies
// the configuration is complete. A missing day template is a fatal
// configuration gap, never silently defaulted. A non-empty ruleID overrides
// the group's configured rule.
func (s *RotationService) loadPlan(ctx context.Context, groupID, ruleID string) (*rotationPlan, error) {
	var rule *models.RotationRule
	var err error
	if ruleID != "" {
		rule, err = s.rotations.FindRule(ctx, ruleID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("rotation rule %s not found", ruleID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rotation rule")
		}
	} else {
		rule, err = s.rotations.RuleForGroup(ctx, groupID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrConfigurationGap, fmt.Sprintf("group %s has no rotation rule", groupID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rotation rule")
		}
	}
	if rule.WeeklyRoleCount < 1 {
		return nil, appErrors.Clone(appErrors.ErrConfigurationGap, fmt.Sprintf("rotation rule %s declares %d weekly roles", rule.ID, rule.WeeklyRoleCount))
	}

	roles, err := s.rotations.ListRoles(ctx, rule.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly roles")
	}
	if len(roles) != rule.WeeklyRoleCount {
		return nil, appErrors.Clone(appErrors.ErrConfigurationGap, fmt.Sprintf("rotation rule %s expects %d weekly roles, found %d", rule.ID, rule.WeeklyRoleCount, len(roles)))
	}

	templates, err := s.rotations.ListTemplates(ctx, rule.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day templates")
	}

	byRole := make(map[string][8]*models.DayTemplate, len(roles))
	for i := range templates {
		tpl := templates[i]
		if tpl.DayOfWeek < 0 || tpl.DayOfWeek > 6 {
			return nil, appErrors.Clone(appErrors.ErrConfigurationGap, fmt.Sprintf("day template %s has day-of-week %d", tpl.ID, tpl.DayOfWeek))
		}
		week := byRole[tpl.WeeklyRoleID]
		week[tpl.DayOfWeek] = &templates[i]
		byRole[tpl.WeeklyRoleID] = week
	}
	for _, role := range roles {
		week := byRole[role.ID]
		for dow := 0; dow < 7; dow++ {
			if week[dow] == nil {
				return nil, appErrors.Clone(appErrors.ErrConfigurationGap, fmt.Sprintf("weekly role %s is missing a template for day-of-week %d", role.ID, dow))
			}
		}
	}

	return &rotationPlan{Rule: *rule, Roles: roles, Templates: byRole}, nil
}

// expand walks [from, to] resolving each date's weekly role and day template.
// The rotation advances one role per 7-day window, wrapping modulo the rule's
// role count.
func (p *rotationPlan) expand(employeeID string, startRoleIndex int, rotationStart, from, to time.Time) ([]models.CalendarDay, error) {
	n := p.Rule.WeeklyRoleCount
	if startRoleIndex < 0 || startRoleIndex >= n {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("start role index %d out of range for %d roles", startRoleIndex, n))
	}
	if from.Before(rotationStart) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "range start precedes rotation start")
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "range end precedes range start")
	}

	var days []models.CalendarDay
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		weekOffset := int(date.Sub(rotationStart).Hours()/24) / 7
		roleIndex := (startRoleIndex + weekOffset) % n
		role := p.Roles[roleIndex]
		tpl := p.Templates[role.ID][int(date.Weekday())]

		days = append(days, models.CalendarDay{
			EmployeeID:     employeeID,
			Date:           date,
			Activity:       tpl.Activity,
			ShiftCode:      tpl.ShiftCode,
			RotationRuleID: p.Rule.ID,
			WeeklyRoleID:   role.ID,
		})
	}
	return days, nil
}

// Generate expands an employee's rotation over the requested range and
// optionally persists it. Regeneration over the same range is idempotent.
func (s *RotationService) Generate(ctx context.Context, req dto.GenerateCalendarRequest) (*dto.GenerateCalendarResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid calendar generation payload")
	}

	from, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid startDate, expected YYYY-MM-DD")
	}
	to, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid endDate, expected YYYY-MM-DD")
	}
	rotationStart, err := time.Parse(dateLayout, req.RotationStart)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid rotationStart, expected YYYY-MM-DD")
	}

	group, err := s.groups.GroupForEmployee(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve employee group")
	}

	plan, err := s.loadPlan(ctx, group.ID, req.RotationRuleID)
	if err != nil {
		return nil, err
	}

	days, err := plan.expand(req.EmployeeID, req.StartRoleIndex, rotationStart, from, to)
	if err != nil {
		return nil, err
	}

	// Public holidays override working days so downstream consumers never
	// schedule onto them. Rest days keep their template activity.
	holidays, err := s.calendar.ListHolidays(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holiday calendar")
	}
	holidaySet := make(map[string]bool, len(holidays))
	for _, holiday := range holidays {
		holidaySet[holiday.Date.Format(dateLayout)] = true
	}
	for i := range days {
		if days[i].Activity == models.ActivityWork && holidaySet[days[i].Date.Format(dateLayout)] {
			days[i].Activity = models.ActivityHoliday
		}
	}

	if req.Persist {
		if s.tx == nil {
			return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
		}
		tx, err := s.tx.BeginTxx(ctx, nil)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
		}
		if err := s.calendar.UpsertDays(ctx, tx, days); err != nil {
			_ = tx.Rollback()
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist calendar days")
		}
		if err := tx.Commit(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit calendar days")
		}
		s.logger.Info("calendar generated",
			zap.String("employee_id", req.EmployeeID),
			zap.String("rule_id", plan.Rule.ID),
			zap.Int("days", len(days)))
	}

	resp := &dto.GenerateCalendarResponse{
		EmployeeID:     req.EmployeeID,
		RotationRuleID: plan.Rule.ID,
		Days:           make([]dto.CalendarDayDraft, 0, len(days)),
		Persisted:      req.Persist,
	}
	for _, day := range days {
		resp.Days = append(resp.Days, dto.CalendarDayDraft{
			Date:         day.Date.Format(dateLayout),
			DayOfWeek:    int(day.Date.Weekday()),
			Activity:     string(day.Activity),
			ShiftCode:    day.ShiftCode,
			WeeklyRoleID: day.WeeklyRoleID,
		})
	}
	return resp, nil
}

// ListPersisted returns an employee's stored calendar days within a range.
func (s *RotationService) ListPersisted(ctx context.Context, employeeID string, from, to time.Time) ([]models.CalendarDay, error) {
	if employeeID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "employee id is required")
	}
	days, err := s.calendar.ListRange(ctx, employeeID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list calendar days")
	}
	return days, nil
}
