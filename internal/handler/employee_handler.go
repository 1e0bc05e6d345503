package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shiftworks/vacation-api/internal/models"
	appErrors "github.com/shiftworks/vacation-api/pkg/errors"
	"github.com/shiftworks/vacation-api/pkg/response"
)

type employeeReader interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Employee, error)
}

// EmployeeHandler exposes roster read endpoints.
type EmployeeHandler struct {
	service employeeReader
}

// NewEmployeeHandler constructs the handler.
func NewEmployeeHandler(svc employeeReader) *EmployeeHandler {
	return &EmployeeHandler{service: svc}
}

// List godoc
// @Summary List employees with optional group, area and active filters
// @Tags Employees
// @Produce json
// @Param groupId query string false "Group ID"
// @Param areaId query string false "Area ID"
// @Param active query boolean false "Active flag"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size, max 100"
// @Success 200 {object} response.Envelope
// @Router /employees [get]
func (h *EmployeeHandler) List(c *gin.Context) {
	filter := models.EmployeeFilter{
		GroupID: c.Query("groupId"),
		AreaID:  c.Query("areaId"),
	}

	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "active must be true or false"))
			return
		}
		filter.Active = &active
	}
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "page must be a positive integer"))
			return
		}
		filter.Page = page
	}
	if raw := c.Query("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "pageSize must be a positive integer"))
			return
		}
		filter.PageSize = size
	}

	employees, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employees, pagination)
}

// Get godoc
// @Summary Load one employee by id
// @Tags Employees
// @Produce json
// @Param employeeId path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /employees/{employeeId} [get]
func (h *EmployeeHandler) Get(c *gin.Context) {
	employee, err := h.service.Get(c.Request.Context(), c.Param("employeeId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}
