package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/a1gato/olimpiad/internal/service"
	"github.com/a1gato/olimpiad/pkg/response"
)

// DashboardHandler serves the combined console snapshot.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Snapshot returns the room occupancy and roster view.
func (h *DashboardHandler) Snapshot(c *gin.Context) {
	snapshot, cacheHit, err := h.service.Snapshot(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, map[string]interface{}{"cache_hit": cacheHit})
}
