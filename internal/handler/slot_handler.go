package handler

import (
	"context"
	"time"

	"github.com/ParkEase/service-parking/internal/application"
	"github.com/ParkEase/service-parking/internal/common/auth"
	"github.com/ParkEase/service-parking/internal/common/middleware"
	"github.com/ParkEase/service-parking/internal/common/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SlotUseCases is the slot inventory.
type SlotUseCases interface {
	CreateSlot(ctx context.Context, req application.CreateSlotRequest) (*application.SlotDTO, error)
	ListByLocation(ctx context.Context, locationID uuid.UUID) ([]application.SlotDTO, error)
	ListAvailable(ctx context.Context, locationID uuid.UUID, start time.Time) ([]application.SlotDTO, error)
	UpdateSlot(ctx context.Context, slotID uuid.UUID, req application.UpdateSlotRequest) (*application.SlotDTO, error)
	ChangeStatus(ctx context.Context, slotID uuid.UUID, status string) (*application.SlotDTO, error)
	DeleteSlot(ctx context.Context, slotID uuid.UUID) error
}

// SlotHandler handles HTTP requests for parking slots.
type SlotHandler struct {
	service SlotUseCases
}

// NewSlotHandler creates a new SlotHandler.
func NewSlotHandler(service SlotUseCases) *SlotHandler {
	return &SlotHandler{service: service}
}

// RegisterRoutes registers slot routes. Reads are public; writes require an admin.
func (h *SlotHandler) RegisterRoutes(r *gin.RouterGroup, authenticator auth.Authenticator) {
	slots := r.Group("/slots")
	slots.GET("/location/:locationId", h.ListByLocation)
	slots.GET("/location/:locationId/available", h.ListAvailable)

	admin := slots.Group("")
	admin.Use(middleware.AuthMiddleware(authenticator), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.POST("", h.CreateSlot)
		admin.PUT("/:id", h.UpdateSlot)
		admin.PATCH("/:id/status", h.ChangeStatus)
		admin.DELETE("/:id", h.DeleteSlot)
	}
}

// ListByLocation handles GET /api/v1/slots/location/:locationId.
func (h *SlotHandler) ListByLocation(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("locationId"))
	if err != nil {
		response.BadRequest(c, "invalid location ID")
		return
	}

	result, err := h.service.ListByLocation(c.Request.Context(), locationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListAvailable handles GET /api/v1/slots/location/:locationId/available?startTime=.
func (h *SlotHandler) ListAvailable(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("locationId"))
	if err != nil {
		response.BadRequest(c, "invalid location ID")
		return
	}

	var start time.Time
	if raw := c.Query("startTime"); raw != "" {
		start, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(c, "startTime must be an RFC3339 timestamp")
			return
		}
	}

	result, err := h.service.ListAvailable(c.Request.Context(), locationID, start)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CreateSlot handles POST /api/v1/slots.
func (h *SlotHandler) CreateSlot(c *gin.Context) {
	var req application.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateSlot(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// UpdateSlot handles PUT /api/v1/slots/:id.
func (h *SlotHandler) UpdateSlot(c *gin.Context) {
	slotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid slot ID")
		return
	}

	var req application.UpdateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateSlot(c.Request.Context(), slotID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ChangeStatus handles PATCH /api/v1/slots/:id/status.
func (h *SlotHandler) ChangeStatus(c *gin.Context) {
	slotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid slot ID")
		return
	}

	var req application.ChangeSlotStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ChangeStatus(c.Request.Context(), slotID, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteSlot handles DELETE /api/v1/slots/:id.
func (h *SlotHandler) DeleteSlot(c *gin.Context) {
	slotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid slot ID")
		return
	}

	if err := h.service.DeleteSlot(c.Request.Context(), slotID); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMessage(c, "Slot deleted successfully", nil)
}
