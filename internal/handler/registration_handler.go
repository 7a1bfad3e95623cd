package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/a1gato/olimpiad/internal/models"
	"github.com/a1gato/olimpiad/internal/service"
	appErrors "github.com/a1gato/olimpiad/pkg/errors"
	"github.com/a1gato/olimpiad/pkg/response"
)

// RegistrationHandler exposes the student registration endpoint.
type RegistrationHandler struct {
	service *service.RegistrationService
}

// NewRegistrationHandler creates a new handler.
func NewRegistrationHandler(svc *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// Register places a participant into a room. A 409 with code ROOM_FULL means
// the seat was taken since the console last refreshed; the client should
// reload occupancy and pick another room.
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req models.RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	student, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}
