package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rotaiq/rotaiq/internal/services"
	"github.com/rotaiq/rotaiq/pkg/response"
)

// RegisterHandler serves the two public signup flows: invitation redemption
// and branch manager self-registration.
type RegisterHandler struct {
	invitations *services.InvitationService
	users       *services.UserService
}

func NewRegisterHandler(invitations *services.InvitationService, users *services.UserService) *RegisterHandler {
	return &RegisterHandler{invitations: invitations, users: users}
}

type registerRequest struct {
	Token     string `json:"token" validate:"required"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// POST /api/register
func (h *RegisterHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.invitations.Redeem(requestContext(c), services.RedeemInvitationInput{
		Token:     req.Token,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, user)
}

type registerManagerRequest struct {
	Email         string  `json:"email" validate:"required,email"`
	Password      string  `json:"password" validate:"required,min=8"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	BranchName    string  `json:"branch_name" validate:"required"`
	BranchAddress string  `json:"branch_address"`
	RegionID      *string `json:"region_id"`
}

// POST /api/register/manager
func (h *RegisterHandler) RegisterManager(c *gin.Context) {
	var req registerManagerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.RegisterManager(requestContext(c), services.RegisterManagerInput{
		Email:         req.Email,
		Password:      req.Password,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		BranchName:    req.BranchName,
		BranchAddress: req.BranchAddress,
		RegionID:      req.RegionID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, user)
}
