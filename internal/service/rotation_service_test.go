package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shiftworks/vacation-api/internal/dto"
	"github.com/shiftworks/vacation-api/internal/models"
	appErrors "github.com/shiftworks/vacation-api/pkg/errors"
)

type rotationReaderStub struct {
	rule      *models.RotationRule
	roles     []models.WeeklyRole
	templates []models.DayTemplate
}

func (s rotationReaderStub) RuleForGroup(ctx context.Context, groupID string) (*models.RotationRule, error) {
	if s.rule == nil {
		return nil, sql.ErrNoRows
	}
	return s.rule, nil
}

func (s rotationReaderStub) FindRule(ctx context.Context, id string) (*models.RotationRule, error) {
	if s.rule == nil || s.rule.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.rule, nil
}

func (s rotationReaderStub) ListRoles(ctx context.Context, ruleID string) ([]models.WeeklyRole, error) {
	return s.roles, nil
}

func (s rotationReaderStub) ListTemplates(ctx context.Context, ruleID string) ([]models.DayTemplate, error) {
	return s.templates, nil
}

type groupResolverStub struct {
	group *models.Group
}

func (s groupResolverStub) GroupForEmployee(ctx context.Context, employeeID string) (*models.Group, error) {
	if s.group == nil {
		return nil, sql.ErrNoRows
	}
	return s.group, nil
}

type calendarWriterStub struct {
	upserted []models.CalendarDay
	listed   []models.CalendarDay
	holidays []models.Holiday
}

func (s *calendarWriterStub) UpsertDays(ctx context.Context, exec sqlx.ExtContext, days []models.CalendarDay) error {
	s.upserted = append(s.upserted, days...)
	return nil
}

func (s *calendarWriterStub) ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]models.CalendarDay, error) {
	return s.listed, nil
}

func (s *calendarWriterStub) ListHolidays(ctx context.Context, from, to time.Time) ([]models.Holiday, error) {
	return s.holidays, nil
}

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func newTxProviderMock(t *testing.T) (*txProviderMock, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

// twoRoleRotation builds a rule with a working week (Mon-Fri work, weekend
// rest) followed by a night week (Tue-Sat work, Sun/Mon rest).
func twoRoleRotation() rotationReaderStub {
	rule := &models.RotationRule{ID: "rule-1", Name: "4x4", WeeklyRoleCount: 2}
	roles := []models.WeeklyRole{
		{ID: "role-day", RotationRuleID: "rule-1", Sequence: 1},
		{ID: "role-night", RotationRuleID: "rule-1", Sequence: 2},
	}
	var templates []models.DayTemplate
	for dow := 0; dow < 7; dow++ {
		dayActivity := models.ActivityWork
		if dow == 0 || dow == 6 {
			dayActivity = models.ActivityRest
		}
		templates = append(templates, models.DayTemplate{
			ID: "tpl-day-" + string(rune('0'+dow)), WeeklyRoleID: "role-day", DayOfWeek: dow, Activity: dayActivity, ShiftCode: "D1",
		})

		nightActivity := models.ActivityWork
		if dow == 0 || dow == 1 {
			nightActivity = models.ActivityRest
		}
		templates = append(templates, models.DayTemplate{
			ID: "tpl-night-" + string(rune('0'+dow)), WeeklyRoleID: "role-night", DayOfWeek: dow, Activity: nightActivity, ShiftCode: "N1",
		})
	}
	return rotationReaderStub{rule: rule, roles: roles, templates: templates}
}

func newRotationFixture(rotations rotationReaderStub) (*RotationService, *calendarWriterStub) {
	calendar := &calendarWriterStub{}
	groups := groupResolverStub{group: &models.Group{ID: "group-1", RotationRuleID: "rule-1"}}
	svc := NewRotationService(rotations, groups, calendar, nil, validator.New(), zap.NewNop())
	return svc, calendar
}

func TestRotationServiceGenerateAlternatesRoles(t *testing.T) {
	svc, _ := newRotationFixture(twoRoleRotation())

	// 2026-01-05 is a Monday; two full weeks starting at the rotation origin.
	resp, err := svc.Generate(context.Background(), dto.GenerateCalendarRequest{
		EmployeeID:    "emp-1",
		StartDate:     "2026-01-05",
		EndDate:       "2026-01-18",
		RotationStart: "2026-01-05",
	})
	require.NoError(t, err)
	require.Len(t, resp.Days, 14)

	// Week one runs the day role: Monday works, Sunday rests.
	assert.Equal(t, "role-day", resp.Days[0].WeeklyRoleID)
	assert.Equal(t, string(models.ActivityWork), resp.Days[0].Activity)
	assert.Equal(t, string(models.ActivityRest), resp.Days[6].Activity)

	// Week two advances to the night role: Monday rests, Tuesday works.
	assert.Equal(t, "role-night", resp.Days[7].WeeklyRoleID)
	assert.Equal(t, string(models.ActivityRest), resp.Days[7].Activity)
	assert.Equal(t, string(models.ActivityWork), resp.Days[8].Activity)
	assert.Equal(t, "N1", resp.Days[8].ShiftCode)
}

func TestRotationServiceGenerateWrapsCycle(t *testing.T) {
	svc, _ := newRotationFixture(twoRoleRotation())

	// Week three wraps back to the first role.
	resp, err := svc.Generate(context.Background(), dto.GenerateCalendarRequest{
		EmployeeID:    "emp-1",
		StartDate:     "2026-01-19",
		EndDate:       "2026-01-25",
		RotationStart: "2026-01-05",
	})
	require.NoError(t, err)
	require.Len(t, resp.Days, 7)
	assert.Equal(t, "role-day", resp.Days[0].WeeklyRoleID)
}

func TestRotationServiceGenerateIsDeterministic(t *testing.T) {
	svc, _ := newRotationFixture(twoRoleRotation())

	req := dto.GenerateCalendarRequest{
		EmployeeID:     "emp-1",
		StartDate:      "2026-01-05",
		EndDate:        "2026-02-01",
		RotationStart:  "2026-01-05",
		StartRoleIndex: 1,
	}
	first, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.Days, second.Days)
}

func TestRotationServiceGenerateHonoursStartRoleIndex(t *testing.T) {
	svc, _ := newRotationFixture(twoRoleRotation())

	resp, err := svc.Generate(context.Background(), dto.GenerateCalendarRequest{
		EmployeeID:     "emp-1",
		StartDate:      "2026-01-05",
		EndDate:        "2026-01-11",
		RotationStart:  "2026-01-05",
		StartRoleIndex: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "role-night", resp.Days[0].WeeklyRoleID)
}

func TestRotationServiceGenerateMarksHolidays(t *testing.T) {
	svc, calendar := newRotationFixture(twoRoleRotation())
	// Wednesday inside a working week.
	calendar.holidays = []models.Holiday{{ID: "hol-1", Date: mustDate(t, "2026-01-07"), Name: "Founding Day"}}

	resp, err := svc.Generate(context.Background(), dto.GenerateCalendarRequest{
		EmployeeID:    "emp-1",
		StartDate:     "2026-01-05",
		EndDate:       "2026-01-11",
		RotationStart: "2026-01-05",
	})
	require.NoError(t, err)
	assert.Equal(t, string(models.ActivityHoliday), resp.Days[2].Activity)
	// The surrounding days keep their template activity.
	assert.Equal(t, string(models.ActivityWork), resp.Days[1].Activity)
	assert.Equal(t, string(models.ActivityRest), resp.Days[5].Activity)
}

func TestRotationServiceGenerateRuleOverride(t *testing.T) {
	svc, _ := newRotationFixture(twoRoleRotation())

	resp, err := svc.Generate(context.Background(), dto.GenerateCalendarRequest{
		EmployeeID:     "emp-1",
		StartDate:      "2026-01-05",
		EndDate:        "2026-01-11",
		RotationStart:  "2026-01-05",
		RotationRuleID: "rule-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "rule-1", resp.RotationRuleID)

	_, err = svc.Generate(context.Background(), dto.GenerateCalendarRequest{
		EmployeeID:     "emp-1",
		StartDate:      "2026-01-05",
		EndDate:        "2026-01-11",
		RotationStart:  "2026-01-05",
		RotationRuleID: "rule-9",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRotationServiceGenerateMissingTemplateFails(t *testing.T) {
	rotations := twoRoleRotation()
	rotations.templates = rotations.templates[:len(rotations.templates)-1]
	svc, _ := newRotationFixture(rotations)

	_, err := svc.Generate(context.Background(), dto.GenerateCalendarRequest{
		EmployeeID:    "emp-1",
		StartDate:     "2026-01-05",
		EndDate:       "2026-01-11",
		RotationStart: "2026-01-05",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConfigurationGap.Code, appErrors.FromError(err).Code)
}

func TestRotationServiceGenerateRejectsRangeBeforeRotationStart(t *testing.T) {
	svc, _ := newRotationFixture(twoRoleRotation())

	_, err := svc.Generate(context.Background(), dto.GenerateCalendarRequest{
		EmployeeID:    "emp-1",
		StartDate:     "2026-01-01",
		EndDate:       "2026-01-11",
		RotationStart: "2026-01-05",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRotationServiceGeneratePersistsInTransaction(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	calendar := &calendarWriterStub{}
	groups := groupResolverStub{group: &models.Group{ID: "group-1"}}
	svc := NewRotationService(twoRoleRotation(), groups, calendar, tx, validator.New(), zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.Generate(context.Background(), dto.GenerateCalendarRequest{
		EmployeeID:    "emp-1",
		StartDate:     "2026-01-05",
		EndDate:       "2026-01-11",
		RotationStart: "2026-01-05",
		Persist:       true,
	})
	require.NoError(t, err)
	assert.True(t, resp.Persisted)
	assert.Len(t, calendar.upserted, 7)
	assert.NoError(t, mock.ExpectationsWereMet())
}
