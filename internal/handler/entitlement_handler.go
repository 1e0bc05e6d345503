package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shiftworks/vacation-api/internal/models"
	appErrors "github.com/shiftworks/vacation-api/pkg/errors"
	"github.com/shiftworks/vacation-api/pkg/response"
)

type entitlementResolver interface {
	Resolve(ctx context.Context, employeeID string, year int) (*models.Entitlement, error)
	RefreshBrackets(ctx context.Context) ([]models.SeniorityBracket, error)
}

type ceilingChecker interface {
	Check(ctx context.Context, groupID string, date time.Time) (*models.CeilingCheck, error)
}

// EntitlementHandler exposes entitlement resolution and ceiling checks.
type EntitlementHandler struct {
	entitlements entitlementResolver
	ceilings     ceilingChecker
}

// NewEntitlementHandler constructs the handler.
func NewEntitlementHandler(entitlements entitlementResolver, ceilings ceilingChecker) *EntitlementHandler {
	return &EntitlementHandler{entitlements: entitlements, ceilings: ceilings}
}

// Resolve godoc
// @Summary Resolve an employee's vacation entitlement for a year
// @Description Seniority is computed as of December 31 of the requested year and matched against the bracket table.
// @Tags Entitlements
// @Produce json
// @Param employeeId path string true "Employee ID"
// @Param year query int true "Reference year"
// @Success 200 {object} response.Envelope
// @Router /employees/{employeeId}/entitlement [get]
func (h *EntitlementHandler) Resolve(c *gin.Context) {
	employeeID := c.Param("employeeId")
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid year"))
		return
	}
	entitlement, err := h.entitlements.Resolve(c.Request.Context(), employeeID, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entitlement, nil)
}

// RefreshBrackets godoc
// @Summary Reload the seniority bracket table, dropping the cache
// @Tags Entitlements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /entitlements/brackets/refresh [post]
func (h *EntitlementHandler) RefreshBrackets(c *gin.Context) {
	brackets, err := h.entitlements.RefreshBrackets(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, brackets, nil)
}

// CheckCeiling godoc
// @Summary Evaluate the absence ceiling for a group on a date
// @Description Read-only evaluation; booking paths run the same rule under the admission gate.
// @Tags Ceiling
// @Produce json
// @Param groupId path string true "Group ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/ceiling [get]
func (h *EntitlementHandler) CheckCeiling(c *gin.Context) {
	groupID := c.Param("groupId")
	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date"))
		return
	}
	check, err := h.ceilings.Check(c.Request.Context(), groupID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, check, nil)
}
