package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shiftworks/vacation-api/internal/dto"
	"github.com/shiftworks/vacation-api/internal/service"
	appErrors "github.com/shiftworks/vacation-api/pkg/errors"
	"github.com/shiftworks/vacation-api/pkg/response"
)

type assignmentRunner interface {
	Run(ctx context.Context, req dto.RunAssignmentRequest) (*dto.RunAssignmentResponse, error)
}

// AssignmentHandler exposes the automatic assignment batch.
type AssignmentHandler struct {
	service assignmentRunner
	metrics *service.MetricsService
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(svc *service.AssignmentService, metrics *service.MetricsService) *AssignmentHandler {
	return &AssignmentHandler{service: svc, metrics: metrics}
}

// Run godoc
// @Summary Run the automatic vacation assignment batch
// @Description Places each employee's company-assigned days, one per eligible week, under the absence ceiling. Set dryRun=true to preview the plan without writing.
// @Tags Assignment
// @Accept json
// @Produce json
// @Param payload body dto.RunAssignmentRequest true "Run payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments/run [post]
func (h *AssignmentHandler) Run(c *gin.Context) {
	var req dto.RunAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid run payload"))
		return
	}
	result, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordAssignmentRun(result.DryRun, result.Assigned)
	response.JSON(c, http.StatusOK, result, nil)
}
