package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rotaiq/rotaiq/internal/services"
	"github.com/rotaiq/rotaiq/pkg/errors"
	"github.com/rotaiq/rotaiq/pkg/response"
)

// InvitationHandler serves invitation management for managers plus the public
// token details lookup used by the registration page.
type InvitationHandler struct {
	invitations *services.InvitationService
}

func NewInvitationHandler(invitations *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations}
}

type createInvitationRequest struct {
	Email    string `json:"email" validate:"required,email"`
	BranchID string `json:"branch_id" validate:"required,uuid4"`
	Role     string `json:"role" validate:"required"`
}

// POST /api/invitations
func (h *InvitationHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req createInvitationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	invitation, err := h.invitations.Create(requestContext(c), actor, services.CreateInvitationInput{
		Email:    req.Email,
		BranchID: req.BranchID,
		Role:     req.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, invitation)
}

// GET /api/invitations
func (h *InvitationHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	invitations, err := h.invitations.List(requestContext(c), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, invitations)
}

// GET /api/invitations/details?token=
func (h *InvitationHandler) Details(c *gin.Context) {
	invitation, err := h.invitations.Details(requestContext(c), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}

	// The invitee is not authenticated yet: expose only what the
	// registration form needs.
	response.Success(c, http.StatusOK, gin.H{
		"email":  invitation.Email,
		"role":   invitation.Role,
		"branch": invitation.Branch,
	})
}
