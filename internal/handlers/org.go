package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rotaiq/rotaiq/internal/models"
	"github.com/rotaiq/rotaiq/internal/services"
	apperrors "github.com/rotaiq/rotaiq/pkg/errors"
	"github.com/rotaiq/rotaiq/pkg/response"
)

// OrgHandler serves the branch and region directories.
type OrgHandler struct {
	org *services.OrgService
}

func NewOrgHandler(org *services.OrgService) *OrgHandler {
	return &OrgHandler{org: org}
}

// GET /api/branches
func (h *OrgHandler) ListBranches(c *gin.Context) {
	branches, err := h.org.ListBranches(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, branches)
}

// GET /api/regions
func (h *OrgHandler) ListRegions(c *gin.Context) {
	regions, err := h.org.ListRegions(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, regions)
}

type createRegionRequest struct {
	Name string `json:"name" binding:"required"`
}

// POST /api/regions
func (h *OrgHandler) CreateRegion(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}
	if actor.Role != models.RoleHeadOffice {
		response.Error(c, apperrors.ErrForbidden)
		return
	}

	var req createRegionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	region, err := h.org.CreateRegion(requestContext(c), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, region)
}
