package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftworks/vacation-api/internal/models"
	appErrors "github.com/shiftworks/vacation-api/pkg/errors"
)

type employeeReaderMock struct {
	employees  []models.Employee
	pagination *models.Pagination
	getErr     error
	lastFilter models.EmployeeFilter
}

func (m *employeeReaderMock) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, *models.Pagination, error) {
	m.lastFilter = filter
	return m.employees, m.pagination, nil
}

func (m *employeeReaderMock) Get(ctx context.Context, id string) (*models.Employee, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for i := range m.employees {
		if m.employees[i].ID == id {
			return &m.employees[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
}

func TestEmployeeHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &employeeReaderMock{
		employees:  []models.Employee{{ID: "emp-1"}},
		pagination: &models.Pagination{Page: 2, PageSize: 10, TotalCount: 11},
	}
	handler := NewEmployeeHandler(mock)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/employees?groupId=group-1&active=true&page=2&pageSize=10", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "group-1", mock.lastFilter.GroupID)
	require.NotNil(t, mock.lastFilter.Active)
	assert.True(t, *mock.lastFilter.Active)
	assert.Equal(t, 2, mock.lastFilter.Page)
	assert.Equal(t, 10, mock.lastFilter.PageSize)

	var envelope struct {
		Data       []models.Employee  `json:"data"`
		Pagination *models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 11, envelope.Pagination.TotalCount)
}

func TestEmployeeHandlerListInvalidActive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewEmployeeHandler(&employeeReaderMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/employees?active=maybe", nil)
	c.Request = req

	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEmployeeHandlerListInvalidPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewEmployeeHandler(&employeeReaderMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/employees?page=0", nil)
	c.Request = req

	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEmployeeHandlerGet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &employeeReaderMock{employees: []models.Employee{{ID: "emp-1", FullName: "Alex Doe"}}}
	handler := NewEmployeeHandler(mock)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/employees/emp-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "employeeId", Value: "emp-1"}}

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.Employee `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "Alex Doe", envelope.Data.FullName)
}

func TestEmployeeHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewEmployeeHandler(&employeeReaderMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/employees/emp-9", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "employeeId", Value: "emp-9"}}

	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
