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

type blockScheduler interface {
	Generate(ctx context.Context, req dto.GenerateBlocksRequest) (*dto.GenerateBlocksResponse, error)
	List(ctx context.Context, groupID, programID string) ([]dto.BlockSummary, error)
	ChangeBlock(ctx context.Context, req dto.ChangeBlockRequest) (*models.BlockAssignment, error)
	ReserveDates(ctx context.Context, req dto.ReserveDatesRequest) (*dto.ReserveDatesResponse, error)
}

// BlockHandler exposes reservation block endpoints.
type BlockHandler struct {
	service blockScheduler
	metrics *service.MetricsService
}

// NewBlockHandler constructs the handler.
func NewBlockHandler(svc *service.BlockService, metrics *service.MetricsService) *BlockHandler {
	return &BlockHandler{service: svc, metrics: metrics}
}

// Generate godoc
// @Summary Partition a group's roster into reservation blocks
// @Description Most senior employees fill the first block; a remainder smaller than one block becomes a trailing overflow block.
// @Tags Blocks
// @Accept json
// @Produce json
// @Param payload body dto.GenerateBlocksRequest true "Generation payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /blocks/generate [post]
func (h *BlockHandler) Generate(c *gin.Context) {
	var req dto.GenerateBlocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List a group's reservation blocks within a program
// @Tags Blocks
// @Produce json
// @Param groupId query string true "Group ID"
// @Param programId query string true "Program ID"
// @Success 200 {object} response.Envelope
// @Router /blocks [get]
func (h *BlockHandler) List(c *gin.Context) {
	blocks, err := h.service.List(c.Request.Context(), c.Query("groupId"), c.Query("programId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blocks, nil)
}

// ChangeBlock godoc
// @Summary Move an employee to another reservation block
// @Description The destination must have free capacity. The motive is recorded with the move.
// @Tags Blocks
// @Accept json
// @Produce json
// @Param payload body dto.ChangeBlockRequest true "Change payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /blocks/change [post]
func (h *BlockHandler) ChangeBlock(c *gin.Context) {
	var req dto.ChangeBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid change payload"))
		return
	}
	assignment, err := h.service.ChangeBlock(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// ReserveDates godoc
// @Summary Reserve vacation dates inside an open block window
// @Description Each date passes the absence ceiling independently; accepted dates stay booked even when later ones are rejected.
// @Tags Blocks
// @Accept json
// @Produce json
// @Param payload body dto.ReserveDatesRequest true "Reservation payload"
// @Success 200 {object} response.Envelope
// @Router /blocks/reserve [post]
func (h *BlockHandler) ReserveDates(c *gin.Context) {
	var req dto.ReserveDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reservation payload"))
		return
	}
	result, err := h.service.ReserveDates(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	for range result.Reserved {
		h.metrics.RecordReservation("reserved")
	}
	for _, rejection := range result.Rejected {
		h.metrics.RecordReservation("rejected")
		if rejection.Reason == dto.RejectCeiling {
			h.metrics.RecordAdmissionDenied()
		}
	}
	response.JSON(c, http.StatusOK, result, nil)
}
