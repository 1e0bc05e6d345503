package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shiftworks/vacation-api/internal/dto"
	"github.com/shiftworks/vacation-api/internal/models"
	"github.com/shiftworks/vacation-api/internal/service"
	appErrors "github.com/shiftworks/vacation-api/pkg/errors"
	"github.com/shiftworks/vacation-api/pkg/response"
)

const dateLayout = "2006-01-02"

type calendarGenerator interface {
	Generate(ctx context.Context, req dto.GenerateCalendarRequest) (*dto.GenerateCalendarResponse, error)
	ListPersisted(ctx context.Context, employeeID string, from, to time.Time) ([]models.CalendarDay, error)
}

// CalendarHandler exposes rotation calendar endpoints.
type CalendarHandler struct {
	service calendarGenerator
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(svc *service.RotationService) *CalendarHandler {
	return &CalendarHandler{service: svc}
}

// Generate godoc
// @Summary Expand an employee's rotation rule into a day-by-day calendar
// @Description Computes each day's activity from the group's weekly role cycle. Set persist=true to store the result.
// @Tags Calendar
// @Accept json
// @Produce json
// @Param payload body dto.GenerateCalendarRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Router /calendars/generate [post]
func (h *CalendarHandler) Generate(c *gin.Context) {
	var req dto.GenerateCalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List an employee's persisted calendar days
// @Tags Calendar
// @Produce json
// @Param employeeId path string true "Employee ID"
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /employees/{employeeId}/calendar [get]
func (h *CalendarHandler) List(c *gin.Context) {
	employeeID := c.Param("employeeId")
	from, err := time.Parse(dateLayout, c.Query("from"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid from date"))
		return
	}
	to, err := time.Parse(dateLayout, c.Query("to"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid to date"))
		return
	}
	days, err := h.service.ListPersisted(c.Request.Context(), employeeID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days, nil)
}
