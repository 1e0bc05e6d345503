package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/shiftworks/vacation-api/internal/models"
)

func newEmployeeRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func employeeRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "full_name", "hire_date", "group_id", "active", "created_at", "updated_at"})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, id := range ids {
		rows.AddRow(id, "Employee "+id, now.AddDate(-5, 0, 0), "group-1", true, now, now)
	}
	return rows
}

func TestEmployeeRepositoryListByGroupBySeniority(t *testing.T) {
	db, mock, cleanup := newEmployeeRepoMock(t)
	defer cleanup()

	repo := NewEmployeeRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY hire_date ASC, id ASC")).
		WithArgs("group-1").
		WillReturnRows(employeeRows("emp-1", "emp-2"))

	employees, err := repo.ListByGroupBySeniority(context.Background(), "group-1")
	require.NoError(t, err)
	require.Len(t, employees, 2)
	require.Equal(t, "emp-1", employees[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryListFiltersAndPages(t *testing.T) {
	db, mock, cleanup := newEmployeeRepoMock(t)
	defer cleanup()

	repo := NewEmployeeRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT 10 OFFSET 10")).
		WithArgs("group-1", true).
		WillReturnRows(employeeRows("emp-11"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM employees")).
		WithArgs("group-1", true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	active := true
	employees, total, err := repo.List(context.Background(), models.EmployeeFilter{
		GroupID: "group-1", Active: &active, Page: 2, PageSize: 10,
	})
	require.NoError(t, err)
	require.Len(t, employees, 1)
	require.Equal(t, 11, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryListByArea(t *testing.T) {
	db, mock, cleanup := newEmployeeRepoMock(t)
	defer cleanup()

	repo := NewEmployeeRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("e.group_id IN (SELECT id FROM groups WHERE area_id = $1)")).
		WithArgs("area-1").
		WillReturnRows(employeeRows("emp-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM employees")).
		WithArgs("area-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	employees, total, err := repo.List(context.Background(), models.EmployeeFilter{AreaID: "area-1"})
	require.NoError(t, err)
	require.Len(t, employees, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
