package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rotaiq/rotaiq/internal/services"
	"github.com/rotaiq/rotaiq/pkg/errors"
	"github.com/rotaiq/rotaiq/pkg/response"
)

// AuthHandler manages the login and profile endpoints.
type AuthHandler struct {
	users *services.UserService
}

func NewAuthHandler(users *services.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, token, err := h.users.Authenticate(requestContext(c), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	profile, err := h.users.Profile(requestContext(c), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, profile)
}
