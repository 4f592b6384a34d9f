package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rotaiq/rotaiq/internal/services"
	"github.com/rotaiq/rotaiq/pkg/errors"
	"github.com/rotaiq/rotaiq/pkg/response"
)

// AnalyticsHandler serves the scoped reporting endpoints.
type AnalyticsHandler struct {
	analytics *services.AnalyticsService
}

func NewAnalyticsHandler(analytics *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// GET /api/analytics/shifts-by-branch
func (h *AnalyticsHandler) ShiftsByBranch(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	counts, err := h.analytics.ShiftsByBranch(requestContext(c), actor, analyticsFilters(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, counts)
}

// GET /api/analytics/all-shifts-timeline
func (h *AnalyticsHandler) Timeline(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	buckets, err := h.analytics.Timeline(requestContext(c), actor, analyticsFilters(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, buckets)
}

func analyticsFilters(c *gin.Context) services.AnalyticsFilters {
	return services.AnalyticsFilters{
		BranchID: strings.TrimSpace(c.Query("branch_id")),
		RegionID: strings.TrimSpace(c.Query("region_id")),
		Year:     parseIntQuery(c, "year", 0),
		Month:    parseIntQuery(c, "month", 0),
	}
}
