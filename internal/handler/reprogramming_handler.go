package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shiftworks/vacation-api/internal/dto"
	"github.com/shiftworks/vacation-api/internal/models"
	"github.com/shiftworks/vacation-api/internal/service"
	appErrors "github.com/shiftworks/vacation-api/pkg/errors"
	"github.com/shiftworks/vacation-api/pkg/response"
)

type requestArbiter interface {
	Submit(ctx context.Context, req dto.SubmitReprogrammingRequest) (*dto.SubmitReprogrammingResponse, error)
	Decide(ctx context.Context, requestID string, req dto.DecideReprogrammingRequest) (*models.ReprogrammingRequest, error)
	ListEscalations(ctx context.Context) ([]models.ReprogrammingRequest, error)
	ListVacations(ctx context.Context, employeeID, programID string) ([]models.VacationRecord, error)
}

// ReprogrammingHandler exposes the relocation and holiday-exchange arbiter.
type ReprogrammingHandler struct {
	service requestArbiter
	metrics *service.MetricsService
}

// NewReprogrammingHandler constructs the handler.
func NewReprogrammingHandler(svc requestArbiter, metrics *service.MetricsService) *ReprogrammingHandler {
	return &ReprogrammingHandler{service: svc, metrics: metrics}
}

// Submit godoc
// @Summary Submit a vacation relocation or holiday exchange
// @Description A request that fits under the absence ceiling is approved immediately; one that does not stays pending for manual review. The arbiter never rejects on its own.
// @Tags Reprogramming
// @Accept json
// @Produce json
// @Param payload body dto.SubmitReprogrammingRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reprogramming [post]
func (h *ReprogrammingHandler) Submit(c *gin.Context) {
	var req dto.SubmitReprogrammingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}
	result, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Request.NeedsApproval {
		h.metrics.RecordEscalation()
	}
	response.Created(c, result)
}

// Decide godoc
// @Summary Approve or reject a pending request
// @Description Approvals re-run the admission gate on the new date. Decided requests are terminal.
// @Tags Reprogramming
// @Accept json
// @Produce json
// @Param requestId path string true "Request ID"
// @Param payload body dto.DecideReprogrammingRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reprogramming/{requestId}/decision [post]
func (h *ReprogrammingHandler) Decide(c *gin.Context) {
	var req dto.DecideReprogrammingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}
	request, err := h.service.Decide(c.Request.Context(), c.Param("requestId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// ListVacations godoc
// @Summary List an employee's vacation records within a program
// @Tags Reprogramming
// @Produce json
// @Param employeeId path string true "Employee ID"
// @Param programId query string true "Annual program ID"
// @Success 200 {object} response.Envelope
// @Router /employees/{employeeId}/vacations [get]
func (h *ReprogrammingHandler) ListVacations(c *gin.Context) {
	records, err := h.service.ListVacations(c.Request.Context(), c.Param("employeeId"), c.Query("programId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// ListEscalations godoc
// @Summary List requests waiting for manual review, oldest first
// @Tags Reprogramming
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reprogramming/escalations [get]
func (h *ReprogrammingHandler) ListEscalations(c *gin.Context) {
	requests, err := h.service.ListEscalations(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}
