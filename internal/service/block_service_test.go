package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shiftworks/vacation-api/internal/dto"
	"github.com/shiftworks/vacation-api/internal/models"
	appErrors "github.com/shiftworks/vacation-api/pkg/errors"
)

type blockStoreFake struct {
	blocks      []models.ReservationBlock
	assignments []models.BlockAssignment
	queueErr    map[string]error
	findErr     error
}

func (f *blockStoreFake) ExistsForGroupProgram(ctx context.Context, groupID, programID string) (bool, error) {
	for _, block := range f.blocks {
		if block.GroupID == groupID && block.ProgramID == programID {
			return true, nil
		}
	}
	return false, nil
}

func (f *blockStoreFake) CreateBlock(ctx context.Context, exec sqlx.ExtContext, block *models.ReservationBlock) error {
	f.blocks = append(f.blocks, *block)
	return nil
}

func (f *blockStoreFake) FindBlock(ctx context.Context, id string) (*models.ReservationBlock, error) {
	for i := range f.blocks {
		if f.blocks[i].ID == id {
			return &f.blocks[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *blockStoreFake) ListByGroupProgram(ctx context.Context, groupID, programID string) ([]models.ReservationBlock, error) {
	var out []models.ReservationBlock
	for _, block := range f.blocks {
		if block.GroupID == groupID && block.ProgramID == programID {
			out = append(out, block)
		}
	}
	return out, nil
}

func (f *blockStoreFake) CreateAssignment(ctx context.Context, exec sqlx.ExtContext, assignment *models.BlockAssignment) error {
	if err, ok := f.queueErr[assignment.EmployeeID]; ok {
		return err
	}
	f.assignments = append(f.assignments, *assignment)
	return nil
}

func (f *blockStoreFake) ListAssignments(ctx context.Context, blockID string) ([]models.BlockAssignment, error) {
	var out []models.BlockAssignment
	for _, assignment := range f.assignments {
		if assignment.BlockID == blockID {
			out = append(out, assignment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *blockStoreFake) CountActiveAssignments(ctx context.Context, blockID string) (int, error) {
	count := 0
	for _, assignment := range f.assignments {
		if assignment.BlockID == blockID && assignment.Status == models.BlockAssignmentActive {
			count++
		}
	}
	return count, nil
}

func (f *blockStoreFake) FindActiveAssignment(ctx context.Context, employeeID, programID string) (*models.BlockAssignment, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for i, assignment := range f.assignments {
		if assignment.EmployeeID != employeeID || assignment.Status != models.BlockAssignmentActive {
			continue
		}
		block, err := f.FindBlock(ctx, assignment.BlockID)
		if err == nil && block.ProgramID == programID {
			return &f.assignments[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *blockStoreFake) MoveAssignment(ctx context.Context, exec sqlx.ExtContext, assignmentID, targetBlockID string, position int, motive string) error {
	for i := range f.assignments {
		if f.assignments[i].ID == assignmentID {
			f.assignments[i].BlockID = targetBlockID
			f.assignments[i].Position = position
			f.assignments[i].Motive = &motive
			return nil
		}
	}
	return sql.ErrNoRows
}

type seniorityRosterStub struct {
	employees []models.Employee
}

func (s seniorityRosterStub) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	for _, employee := range s.employees {
		if employee.ID == id {
			return &employee, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s seniorityRosterStub) ListByGroupBySeniority(ctx context.Context, groupID string) ([]models.Employee, error) {
	return s.employees, nil
}

func seniorityRosterOf(t *testing.T, size int) seniorityRosterStub {
	t.Helper()
	employees := make([]models.Employee, 0, size)
	// Earlier hire dates first, mirroring the seniority ordering of the
	// repository query.
	for i := 0; i < size; i++ {
		employees = append(employees, models.Employee{
			ID:       fmt.Sprintf("emp-%02d", i+1),
			GroupID:  "group-1",
			HireDate: mustDate(t, "2000-01-01").AddDate(i, 0, 0),
		})
	}
	return seniorityRosterStub{employees: employees}
}

type blockFixture struct {
	service   *BlockService
	store     *blockStoreFake
	vacations *vacationFake
	calendar  *calendarFake
	gate      *fakeGate
	program   *models.AnnualProgram
}

func newBlockFixture(t *testing.T, rosterSize int, defaults BlockDefaults) *blockFixture {
	t.Helper()

	store := &blockStoreFake{}
	roster := seniorityRosterOf(t, rosterSize)
	groups := groupResolverStub{group: &models.Group{ID: "group-1"}}
	program := &models.AnnualProgram{
		ID:        "program-2026",
		Year:      2026,
		StartDate: mustDate(t, "2026-01-01"),
		EndDate:   mustDate(t, "2026-12-31"),
		Status:    models.ProgramStatusOpen,
	}
	programs := &programStoreStub{program: program}
	entitlements := entitlementResolverStub{companyDays: map[string]int{}}
	gate := newFakeGate(0)
	calendar := &calendarFake{days: map[string][]models.CalendarDay{}}
	vacations := &vacationFake{}

	tx, mock := newTxProviderMock(t)
	for i := 0; i < 16; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}

	svc := NewBlockService(store, roster, groups, programs, entitlements, gate,
		calendar, vacations, tx.db, defaults, validator.New(), zap.NewNop())

	return &blockFixture{
		service:   svc,
		store:     store,
		vacations: vacations,
		calendar:  calendar,
		gate:      gate,
		program:   program,
	}
}

func TestBlockServiceGeneratePartitionsBySeniority(t *testing.T) {
	fx := newBlockFixture(t, 23, BlockDefaults{})

	resp, err := fx.service.Generate(context.Background(), dto.GenerateBlocksRequest{
		GroupID:       "group-1",
		ProgramID:     "program-2026",
		StartAt:       "2026-02-01T08:00:00Z",
		Capacity:      10,
		DurationHours: 24,
	})
	require.NoError(t, err)
	require.Len(t, resp.Blocks, 3)
	assert.Equal(t, 23, resp.Assigned)
	assert.Empty(t, resp.Failures)

	assert.Equal(t, "REGULAR", resp.Blocks[0].Kind)
	assert.Equal(t, "REGULAR", resp.Blocks[1].Kind)
	assert.Equal(t, "OVERFLOW", resp.Blocks[2].Kind)
	assert.Equal(t, 10, resp.Blocks[0].Capacity)
	assert.Equal(t, 10, resp.Blocks[1].Capacity)
	assert.Equal(t, 3, resp.Blocks[2].Capacity)

	// Consecutive 24h windows starting at the requested opening.
	assert.Equal(t, "2026-02-01T08:00:00Z", resp.Blocks[0].StartAt)
	assert.Equal(t, "2026-02-02T08:00:00Z", resp.Blocks[0].EndAt)
	assert.Equal(t, "2026-02-02T08:00:00Z", resp.Blocks[1].StartAt)
	assert.Equal(t, "2026-02-03T08:00:00Z", resp.Blocks[2].StartAt)

	// Most senior employees fill the first block in order.
	assert.Equal(t, "emp-01", resp.Blocks[0].Employees[0])
	assert.Equal(t, "emp-10", resp.Blocks[0].Employees[9])
	assert.Equal(t, "emp-11", resp.Blocks[1].Employees[0])
	assert.Equal(t, []string{"emp-21", "emp-22", "emp-23"}, resp.Blocks[2].Employees)

	// Queue positions restart per block.
	byEmployee := map[string]models.BlockAssignment{}
	for _, assignment := range fx.store.assignments {
		byEmployee[assignment.EmployeeID] = assignment
	}
	assert.Equal(t, 1, byEmployee["emp-01"].Position)
	assert.Equal(t, 10, byEmployee["emp-10"].Position)
	assert.Equal(t, 1, byEmployee["emp-11"].Position)
	assert.Equal(t, 3, byEmployee["emp-23"].Position)
}

func TestBlockServiceGenerateUsesDefaults(t *testing.T) {
	fx := newBlockFixture(t, 5, BlockDefaults{Capacity: 5, DurationHours: 48})

	resp, err := fx.service.Generate(context.Background(), dto.GenerateBlocksRequest{
		GroupID:   "group-1",
		ProgramID: "program-2026",
		StartAt:   "2026-02-01",
	})
	require.NoError(t, err)
	require.Len(t, resp.Blocks, 1)
	assert.Equal(t, "REGULAR", resp.Blocks[0].Kind)
	assert.Equal(t, 5, resp.Blocks[0].Capacity)
}

func TestBlockServiceGenerateWithoutSizingFails(t *testing.T) {
	fx := newBlockFixture(t, 5, BlockDefaults{})

	_, err := fx.service.Generate(context.Background(), dto.GenerateBlocksRequest{
		GroupID:   "group-1",
		ProgramID: "program-2026",
		StartAt:   "2026-02-01",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConfigurationGap.Code, appErrors.FromError(err).Code)
}

func TestBlockServiceGenerateIsIdempotent(t *testing.T) {
	fx := newBlockFixture(t, 5, BlockDefaults{Capacity: 5, DurationHours: 24})

	req := dto.GenerateBlocksRequest{GroupID: "group-1", ProgramID: "program-2026", StartAt: "2026-02-01"}
	_, err := fx.service.Generate(context.Background(), req)
	require.NoError(t, err)

	_, err = fx.service.Generate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestBlockServiceGenerateCollectsQueueFailures(t *testing.T) {
	fx := newBlockFixture(t, 5, BlockDefaults{Capacity: 5, DurationHours: 24})
	fx.store.queueErr = map[string]error{"emp-03": fmt.Errorf("employee suspended")}

	resp, err := fx.service.Generate(context.Background(), dto.GenerateBlocksRequest{
		GroupID:   "group-1",
		ProgramID: "program-2026",
		StartAt:   "2026-02-01",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Assigned)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "emp-03", resp.Failures[0].EmployeeID)
}

// seedBlocks creates two blocks and queues emp-01 into the first one.
func seedBlocks(t *testing.T, fx *blockFixture, capacity int, startAt, endAt time.Time) (first, second models.ReservationBlock) {
	t.Helper()
	first = models.ReservationBlock{
		ID: uuid.NewString(), GroupID: "group-1", ProgramID: "program-2026",
		Index: 1, Kind: models.BlockRegular, StartAt: startAt, EndAt: endAt, Capacity: capacity,
	}
	second = models.ReservationBlock{
		ID: uuid.NewString(), GroupID: "group-1", ProgramID: "program-2026",
		Index: 2, Kind: models.BlockRegular, StartAt: endAt, EndAt: endAt.Add(endAt.Sub(startAt)), Capacity: capacity,
	}
	fx.store.blocks = append(fx.store.blocks, first, second)
	fx.store.assignments = append(fx.store.assignments, models.BlockAssignment{
		ID: uuid.NewString(), BlockID: first.ID, EmployeeID: "emp-01",
		Position: 1, Status: models.BlockAssignmentActive,
	})
	return first, second
}

func TestBlockServiceListIncludesQueues(t *testing.T) {
	fx := newBlockFixture(t, 5, BlockDefaults{})
	first, second := seedBlocks(t, fx, 5, mustDate(t, "2026-02-01"), mustDate(t, "2026-02-02"))
	fx.store.assignments = append(fx.store.assignments, models.BlockAssignment{
		ID: uuid.NewString(), BlockID: first.ID, EmployeeID: "emp-02",
		Position: 2, Status: models.BlockAssignmentMoved,
	})

	summaries, err := fx.service.List(context.Background(), "group-1", "program-2026")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, first.ID, summaries[0].BlockID)
	assert.Equal(t, []string{"emp-01"}, summaries[0].Employees)
	assert.Equal(t, second.ID, summaries[1].BlockID)
	assert.Empty(t, summaries[1].Employees)

	_, err = fx.service.List(context.Background(), "", "program-2026")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBlockServiceChangeBlockMovesEmployee(t *testing.T) {
	fx := newBlockFixture(t, 5, BlockDefaults{})
	_, second := seedBlocks(t, fx, 5, mustDate(t, "2026-02-01"), mustDate(t, "2026-02-02"))

	moved, err := fx.service.ChangeBlock(context.Background(), dto.ChangeBlockRequest{
		EmployeeID:    "emp-01",
		TargetBlockID: second.ID,
		Motive:        "shift swap with colleague",
	})
	require.NoError(t, err)
	assert.Equal(t, second.ID, moved.BlockID)
	assert.Equal(t, 1, moved.Position)
	require.NotNil(t, moved.Motive)
	assert.Equal(t, "shift swap with colleague", *moved.Motive)
}

func TestBlockServiceChangeBlockKeepsPositionsUnique(t *testing.T) {
	fx := newBlockFixture(t, 5, BlockDefaults{})
	first, second := seedBlocks(t, fx, 5, mustDate(t, "2026-02-01"), mustDate(t, "2026-02-02"))
	for i, employeeID := range []string{"emp-02", "emp-03", "emp-04"} {
		fx.store.assignments = append(fx.store.assignments, models.BlockAssignment{
			ID: uuid.NewString(), BlockID: first.ID, EmployeeID: employeeID,
			Position: i + 2, Status: models.BlockAssignmentActive,
		})
	}
	fx.store.assignments = append(fx.store.assignments, models.BlockAssignment{
		ID: uuid.NewString(), BlockID: second.ID, EmployeeID: "emp-05",
		Position: 1, Status: models.BlockAssignmentActive,
	})

	// emp-02 leaves a hole at position 2 of the first block.
	_, err := fx.service.ChangeBlock(context.Background(), dto.ChangeBlockRequest{
		EmployeeID:    "emp-02",
		TargetBlockID: second.ID,
		Motive:        "family schedule",
	})
	require.NoError(t, err)

	// Moving into the first block must not land on an occupied position.
	moved, err := fx.service.ChangeBlock(context.Background(), dto.ChangeBlockRequest{
		EmployeeID:    "emp-05",
		TargetBlockID: first.ID,
		Motive:        "swap back",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, moved.Position)

	taken := map[int]string{}
	for _, assignment := range fx.store.assignments {
		if assignment.BlockID != first.ID {
			continue
		}
		require.NotContains(t, taken, assignment.Position,
			"position %d held by both %s and %s", assignment.Position, taken[assignment.Position], assignment.EmployeeID)
		taken[assignment.Position] = assignment.EmployeeID
	}
}

func TestBlockServiceChangeBlockRejectsFullTarget(t *testing.T) {
	fx := newBlockFixture(t, 5, BlockDefaults{})
	_, second := seedBlocks(t, fx, 1, mustDate(t, "2026-02-01"), mustDate(t, "2026-02-02"))
	fx.store.assignments = append(fx.store.assignments, models.BlockAssignment{
		ID: uuid.NewString(), BlockID: second.ID, EmployeeID: "emp-02",
		Position: 1, Status: models.BlockAssignmentActive,
	})

	_, err := fx.service.ChangeBlock(context.Background(), dto.ChangeBlockRequest{
		EmployeeID:    "emp-01",
		TargetBlockID: second.ID,
		Motive:        "late request",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErrors.FromError(err).Code)
}

func TestBlockServiceChangeBlockRejectsSameBlock(t *testing.T) {
	fx := newBlockFixture(t, 5, BlockDefaults{})
	first, _ := seedBlocks(t, fx, 5, mustDate(t, "2026-02-01"), mustDate(t, "2026-02-02"))

	_, err := fx.service.ChangeBlock(context.Background(), dto.ChangeBlockRequest{
		EmployeeID:    "emp-01",
		TargetBlockID: first.ID,
		Motive:        "no-op",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestBlockServiceChangeBlockUnknownAssignment(t *testing.T) {
	fx := newBlockFixture(t, 5, BlockDefaults{})
	_, second := seedBlocks(t, fx, 5, mustDate(t, "2026-02-01"), mustDate(t, "2026-02-02"))

	_, err := fx.service.ChangeBlock(context.Background(), dto.ChangeBlockRequest{
		EmployeeID:    "emp-99",
		TargetBlockID: second.ID,
		Motive:        "never queued",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBlockServiceReserveDatesBooksInsideWindow(t *testing.T) {
	fx := newBlockFixture(t, 5, BlockDefaults{})
	now := time.Now()
	first, _ := seedBlocks(t, fx, 5, now.Add(-time.Hour), now.Add(24*time.Hour))
	fx.calendar.days["emp-01"] = workWeekCalendar("emp-01", mustDate(t, "2026-03-02"), 2)

	resp, err := fx.service.ReserveDates(context.Background(), dto.ReserveDatesRequest{
		BlockID:    first.ID,
		EmployeeID: "emp-01",
		Dates:      []string{"2026-03-02", "2026-03-03"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-02", "2026-03-03"}, resp.Reserved)
	assert.Empty(t, resp.Rejected)
	assert.Equal(t, 3, resp.Remaining)

	require.Len(t, fx.vacations.records, 2)
	assert.Equal(t, models.OriginManual, fx.vacations.records[0].Origin)
	assert.Equal(t, models.ActivityVacation, fx.calendar.days["emp-01"][0].Activity)
}

func TestBlockServiceReserveDatesItemisesRejections(t *testing.T) {
	fx := newBlockFixture(t, 5, BlockDefaults{})
	now := time.Now()
	first, _ := seedBlocks(t, fx, 5, now.Add(-time.Hour), now.Add(24*time.Hour))
	fx.calendar.days["emp-01"] = workWeekCalendar("emp-01", mustDate(t, "2026-03-02"), 1)

	resp, err := fx.service.ReserveDates(context.Background(), dto.ReserveDatesRequest{
		BlockID:    first.ID,
		EmployeeID: "emp-01",
		Dates: []string{
			"03/02/2026", // wrong format
			"2025-12-30", // before the program
			"2026-03-07", // Saturday
			"2026-03-04", // fine
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-04"}, resp.Reserved)

	reasons := map[string]string{}
	for _, rejection := range resp.Rejected {
		reasons[rejection.Date] = rejection.Reason
	}
	assert.Equal(t, "INVALID_DATE", reasons["03/02/2026"])
	assert.Equal(t, "OUT_OF_PROGRAM", reasons["2025-12-30"])
	assert.Equal(t, "NOT_A_WORKING_DAY", reasons["2026-03-07"])
}

func TestBlockServiceReserveDatesQuotaExhausted(t *testing.T) {
	fx := newBlockFixture(t, 5, BlockDefaults{})
	now := time.Now()
	first, _ := seedBlocks(t, fx, 5, now.Add(-time.Hour), now.Add(24*time.Hour))
	fx.calendar.days["emp-01"] = workWeekCalendar("emp-01", mustDate(t, "2026-03-02"), 1)
	// Four of the five selectable days already booked.
	for i := 0; i < 4; i++ {
		fx.vacations.records = append(fx.vacations.records, models.VacationRecord{
			ID: uuid.NewString(), EmployeeID: "emp-01", ProgramID: "program-2026",
			Date: mustDate(t, "2026-06-01").AddDate(0, 0, i), Origin: models.OriginManual, Status: models.VacationActive,
		})
	}

	resp, err := fx.service.ReserveDates(context.Background(), dto.ReserveDatesRequest{
		BlockID:    first.ID,
		EmployeeID: "emp-01",
		Dates:      []string{"2026-03-02", "2026-03-03"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-02"}, resp.Reserved)
	require.Len(t, resp.Rejected, 1)
	assert.Equal(t, "QUOTA_EXHAUSTED", resp.Rejected[0].Reason)
	assert.Equal(t, 0, resp.Remaining)
}

func TestBlockServiceReserveDatesCeilingRejection(t *testing.T) {
	fx := newBlockFixture(t, 5, BlockDefaults{})
	fx.gate.capacity = 1
	fx.gate.absent["group-1|2026-03-02"] = 1
	now := time.Now()
	first, _ := seedBlocks(t, fx, 5, now.Add(-time.Hour), now.Add(24*time.Hour))
	fx.calendar.days["emp-01"] = workWeekCalendar("emp-01", mustDate(t, "2026-03-02"), 1)

	resp, err := fx.service.ReserveDates(context.Background(), dto.ReserveDatesRequest{
		BlockID:    first.ID,
		EmployeeID: "emp-01",
		Dates:      []string{"2026-03-02"},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Reserved)
	require.Len(t, resp.Rejected, 1)
	assert.Equal(t, "CEILING_EXCEEDED", resp.Rejected[0].Reason)
}

func TestBlockServiceReserveDatesClosedWindow(t *testing.T) {
	fx := newBlockFixture(t, 5, BlockDefaults{})
	first, _ := seedBlocks(t, fx, 5, mustDate(t, "2026-02-01"), mustDate(t, "2026-02-02"))

	_, err := fx.service.ReserveDates(context.Background(), dto.ReserveDatesRequest{
		BlockID:    first.ID,
		EmployeeID: "emp-01",
		Dates:      []string{"2026-03-02"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestBlockServiceReserveDatesRequiresMembership(t *testing.T) {
	fx := newBlockFixture(t, 5, BlockDefaults{})
	now := time.Now()
	// Seed so the second block's window is the open one.
	_, second := seedBlocks(t, fx, 5, now.Add(-25*time.Hour), now.Add(-time.Hour))

	// emp-01 is queued in the first block, not the second.
	_, err := fx.service.ReserveDates(context.Background(), dto.ReserveDatesRequest{
		BlockID:    second.ID,
		EmployeeID: "emp-01",
		Dates:      []string{"2026-03-02"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestBlockServiceReserveDatesLookupFailureIsInternal(t *testing.T) {
	fx := newBlockFixture(t, 5, BlockDefaults{})
	now := time.Now()
	first, _ := seedBlocks(t, fx, 5, now.Add(-time.Hour), now.Add(24*time.Hour))
	fx.store.findErr = fmt.Errorf("connection reset")

	_, err := fx.service.ReserveDates(context.Background(), dto.ReserveDatesRequest{
		BlockID:    first.ID,
		EmployeeID: "emp-01",
		Dates:      []string{"2026-03-02"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
