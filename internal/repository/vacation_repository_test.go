package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/shiftworks/vacation-api/internal/models"
)

func newVacationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestVacationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newVacationRepoMock(t)
	defer cleanup()

	repo := NewVacationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO vacation_records")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.VacationRecord{
		EmployeeID: "emp-1",
		ProgramID:  "program-1",
		Date:       time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Origin:     models.OriginAutomatic,
	}
	require.NoError(t, repo.Create(context.Background(), db, record))
	require.NotEmpty(t, record.ID)
	require.Equal(t, models.VacationActive, record.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVacationRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newVacationRepoMock(t)
	defer cleanup()

	repo := NewVacationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO vacation_records")).
		WillReturnError(&pq.Error{Code: "23505"})

	record := &models.VacationRecord{
		EmployeeID: "emp-1",
		ProgramID:  "program-1",
		Date:       time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Origin:     models.OriginManual,
	}
	err := repo.Create(context.Background(), db, record)
	require.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVacationRepositoryCountActiveByOrigin(t *testing.T) {
	db, mock, cleanup := newVacationRepoMock(t)
	defer cleanup()

	repo := NewVacationRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM vacation_records")).
		WithArgs("emp-1", "program-1", "MANUAL").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	origin := models.OriginManual
	count, err := repo.CountActiveByEmployeeProgram(context.Background(), "emp-1", "program-1", &origin)
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVacationRepositoryCountAbsences(t *testing.T) {
	db, mock, cleanup := newVacationRepoMock(t)
	defer cleanup()

	repo := NewVacationRepository(db)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT e.id)")).
		WithArgs("group-1", date).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountAbsences(context.Background(), "group-1", date)
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVacationRepositoryMarkStatusMissing(t *testing.T) {
	db, mock, cleanup := newVacationRepoMock(t)
	defer cleanup()

	repo := NewVacationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE vacation_records SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkStatus(context.Background(), db, "missing", models.VacationExchanged)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
