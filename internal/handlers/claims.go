package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rotaiq/rotaiq/internal/services"
	"github.com/rotaiq/rotaiq/pkg/errors"
	"github.com/rotaiq/rotaiq/pkg/response"
)

// ClaimHandler serves claim listing and arbitration.
type ClaimHandler struct {
	shifts *services.ShiftService
}

func NewClaimHandler(shifts *services.ShiftService) *ClaimHandler {
	return &ClaimHandler{shifts: shifts}
}

// GET /api/claims
func (h *ClaimHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	claims, err := h.shifts.ListClaims(requestContext(c), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, claims)
}

// POST /api/claims/:id/approve
func (h *ClaimHandler) Approve(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	claim, err := h.shifts.ApproveClaim(requestContext(c), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, claim)
}

// POST /api/claims/:id/decline
func (h *ClaimHandler) Decline(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	claim, err := h.shifts.DeclineClaim(requestContext(c), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, claim)
}
