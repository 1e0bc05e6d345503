package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shiftworks/vacation-api/internal/dto"
	"github.com/shiftworks/vacation-api/internal/models"
	"github.com/shiftworks/vacation-api/pkg/locks"
)

// The yearly allowance splits into a company-assigned half placed by the
// batch and a self-reserved half booked through a block window. Both halves
// land in the same vacation ledger.
func TestAnnualQuotaCombinesAutomaticAndSelfReserved(t *testing.T) {
	employee := models.Employee{ID: "emp-1", GroupID: "group-1", HireDate: mustDate(t, "2012-01-01")}
	groups := groupListerStub{groups: []models.Group{{ID: "group-1", AreaID: "area-1"}}}
	roster := rosterStub{byGroup: map[string][]models.Employee{"group-1": {employee}}}
	programs := &programStoreStub{program: &models.AnnualProgram{
		ID:        "program-2026",
		Year:      2026,
		StartDate: mustDate(t, "2026-01-01"),
		EndDate:   mustDate(t, "2026-12-31"),
		Status:    models.ProgramStatusOpen,
	}}
	entitlements := entitlementResolverStub{
		companyDays:    map[string]int{"emp-1": 6},
		selectableDays: map[string]int{"emp-1": 6},
	}
	gate := newFakeGate(0)
	calendar := &calendarFake{days: map[string][]models.CalendarDay{
		"emp-1": workWeekCalendar("emp-1", mustDate(t, "2026-01-05"), 12),
	}}
	vacations := &vacationFake{}

	tx, mock := newTxProviderMock(t)
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 16; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}

	assigner := NewAssignmentService(groups, roster, programs, entitlements, gate, calendar,
		vacations, tx, locks.NewRunLock(nil, time.Minute), nil, nil, validator.New(), zap.NewNop())

	now := time.Now()
	blockStore := &blockStoreFake{
		blocks: []models.ReservationBlock{{
			ID: "block-1", GroupID: "group-1", ProgramID: "program-2026",
			Index: 1, Kind: models.BlockRegular,
			StartAt: now.Add(-time.Hour), EndAt: now.Add(24 * time.Hour), Capacity: 5,
		}},
		assignments: []models.BlockAssignment{{
			ID: "ba-1", BlockID: "block-1", EmployeeID: "emp-1",
			Position: 1, Status: models.BlockAssignmentActive,
		}},
	}
	blocks := NewBlockService(blockStore, seniorityRosterStub{employees: []models.Employee{employee}},
		groupResolverStub{group: &models.Group{ID: "group-1"}}, programs, entitlements, gate,
		calendar, vacations, tx.db, BlockDefaults{}, validator.New(), zap.NewNop())

	runResp, err := assigner.Run(context.Background(), dto.RunAssignmentRequest{ProgramID: "program-2026"})
	require.NoError(t, err)
	assert.Equal(t, 6, runResp.Assigned)
	assert.Equal(t, 0, runResp.Failed)

	// The batch took the Mondays of the first six weeks; the employee books
	// the Tuesdays of the same weeks.
	reserveResp, err := blocks.ReserveDates(context.Background(), dto.ReserveDatesRequest{
		BlockID:    "block-1",
		EmployeeID: "emp-1",
		Dates:      []string{"2026-01-06", "2026-01-13", "2026-01-20", "2026-01-27", "2026-02-03", "2026-02-10"},
	})
	require.NoError(t, err)
	assert.Len(t, reserveResp.Reserved, 6)
	assert.Empty(t, reserveResp.Rejected)
	assert.Equal(t, 0, reserveResp.Remaining)

	require.Len(t, vacations.records, 12)
	byOrigin := map[models.VacationOrigin]int{}
	seen := map[string]string{}
	for _, record := range vacations.records {
		assert.Equal(t, models.VacationActive, record.Status)
		byOrigin[record.Origin]++
		date := record.Date.Format(dateLayout)
		require.NotContains(t, seen, date, "date %s booked twice", date)
		seen[date] = record.ID
	}
	assert.Equal(t, 6, byOrigin[models.OriginAutomatic])
	assert.Equal(t, 6, byOrigin[models.OriginManual])
}
