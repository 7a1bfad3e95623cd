package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/a1gato/olimpiad/internal/models"
	"github.com/a1gato/olimpiad/internal/service"
	appErrors "github.com/a1gato/olimpiad/pkg/errors"
	"github.com/a1gato/olimpiad/pkg/response"
)

// ScoreHandler exposes the marking endpoints.
type ScoreHandler struct {
	service *service.ScoreService
}

// NewScoreHandler creates a new handler.
func NewScoreHandler(svc *service.ScoreService) *ScoreHandler {
	return &ScoreHandler{service: svc}
}

// UpdateScore writes one section mark for a student. When the save fails the
// error envelope carries the refreshed roster in meta so the console can fall
// back to authoritative state without a second round trip.
func (h *ScoreHandler) UpdateScore(c *gin.Context) {
	section, err := strconv.Atoi(c.Param("section"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "section must be a number"))
		return
	}

	var req models.UpdateScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid score payload"))
		return
	}

	student, err := h.service.UpdateScore(c.Request.Context(), c.Param("id"), section, req)
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Code == appErrors.ErrScoreSaveFailed.Code {
			if roster, rosterErr := h.service.Roster(c.Request.Context()); rosterErr == nil {
				c.Header("Cache-Control", "no-store")
				c.JSON(appErr.Status, response.Envelope{
					Error: appErr,
					Meta:  map[string]interface{}{"roster": roster},
				})
				return
			}
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Roster returns all students in marking order.
func (h *ScoreHandler) Roster(c *gin.Context) {
	roster, err := h.service.Roster(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster)
}
