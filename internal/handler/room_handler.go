package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/a1gato/olimpiad/internal/models"
	"github.com/a1gato/olimpiad/internal/service"
	appErrors "github.com/a1gato/olimpiad/pkg/errors"
	"github.com/a1gato/olimpiad/pkg/response"
)

// RoomHandler exposes room management endpoints.
type RoomHandler struct {
	service *service.RoomService
}

// NewRoomHandler creates a new handler.
func NewRoomHandler(svc *service.RoomService) *RoomHandler {
	return &RoomHandler{service: svc}
}

// List returns all rooms with live occupancy.
func (h *RoomHandler) List(c *gin.Context) {
	rooms, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms)
}

// Get returns a single room with live occupancy.
func (h *RoomHandler) Get(c *gin.Context) {
	room, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room)
}

// Create opens a new room.
func (h *RoomHandler) Create(c *gin.Context) {
	var req models.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room payload"))
		return
	}

	room, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// Delete removes a room. Deletion is refused with a conflict while students
// are still assigned.
func (h *RoomHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
