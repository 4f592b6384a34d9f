package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rotaiq/rotaiq/internal/services"
	"github.com/rotaiq/rotaiq/pkg/errors"
	"github.com/rotaiq/rotaiq/pkg/response"
)

// ShiftHandler serves the shift lifecycle endpoints.
type ShiftHandler struct {
	shifts *services.ShiftService
}

func NewShiftHandler(shifts *services.ShiftService) *ShiftHandler {
	return &ShiftHandler{shifts: shifts}
}

type createShiftRequest struct {
	BranchID    string    `json:"branch_id" validate:"required,uuid4"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	Role        string    `json:"role" validate:"required"`
	Description string    `json:"description"`
}

// POST /api/shifts
func (h *ShiftHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req createShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}

	shift, err := h.shifts.Create(requestContext(c), actor, services.CreateShiftInput{
		BranchID:    req.BranchID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Role:        req.Role,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, shift)
}

// GET /api/shifts
func (h *ShiftHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	shifts, err := h.shifts.List(requestContext(c), actor, services.ListShiftsOptions{
		Status: c.Query("status"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, shifts)
}

// GET /api/shifts/mine
func (h *ShiftHandler) Mine(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	shifts, err := h.shifts.Mine(requestContext(c), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, shifts)
}

// POST /api/shifts/:id/claim
func (h *ShiftHandler) Claim(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	claim, err := h.shifts.Claim(requestContext(c), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, claim)
}

type assignStaffRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
}

// POST /api/shifts/:id/assign_staff
func (h *ShiftHandler) AssignStaff(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req assignStaffRequest
	if !bindAndValidate(c, &req) {
		return
	}

	shift, err := h.shifts.AssignStaff(requestContext(c), actor, c.Param("id"), req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, shift)
}
