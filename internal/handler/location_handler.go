package handler

import (
	"context"

	"github.com/ParkEase/service-parking/internal/application"
	"github.com/ParkEase/service-parking/internal/common/auth"
	"github.com/ParkEase/service-parking/internal/common/middleware"
	"github.com/ParkEase/service-parking/internal/common/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LocationUseCases is the location catalogue.
type LocationUseCases interface {
	CreateLocation(ctx context.Context, createdBy uuid.UUID, req application.CreateLocationRequest) (*application.LocationDTO, error)
	GetLocation(ctx context.Context, locationID uuid.UUID) (*application.LocationDTO, error)
	ListLocations(ctx context.Context) ([]application.LocationDTO, error)
	UpdateLocation(ctx context.Context, locationID uuid.UUID, req application.UpdateLocationRequest) (*application.LocationDTO, error)
	UpdatePricing(ctx context.Context, locationID uuid.UUID, req application.UpdatePricingRequest) (*application.LocationDTO, error)
	DeleteLocation(ctx context.Context, locationID uuid.UUID) error
}

// LocationHandler handles HTTP requests for parking locations.
type LocationHandler struct {
	service LocationUseCases
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(service LocationUseCases) *LocationHandler {
	return &LocationHandler{service: service}
}

// RegisterRoutes registers location routes. Reads are public; writes require an admin.
func (h *LocationHandler) RegisterRoutes(r *gin.RouterGroup, authenticator auth.Authenticator) {
	locations := r.Group("/locations")
	locations.GET("", h.ListLocations)
	locations.GET("/:id", h.GetLocation)

	admin := locations.Group("")
	admin.Use(middleware.AuthMiddleware(authenticator), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.POST("", h.CreateLocation)
		admin.PUT("/:id", h.UpdateLocation)
		admin.PATCH("/:id/pricing", h.UpdatePricing)
		admin.DELETE("/:id", h.DeleteLocation)
	}
}

// ListLocations handles GET /api/v1/locations.
func (h *LocationHandler) ListLocations(c *gin.Context) {
	result, err := h.service.ListLocations(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetLocation handles GET /api/v1/locations/:id.
func (h *LocationHandler) GetLocation(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid location ID")
		return
	}

	result, err := h.service.GetLocation(c.Request.Context(), locationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CreateLocation handles POST /api/v1/locations.
func (h *LocationHandler) CreateLocation(c *gin.Context) {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateLocation(c.Request.Context(), adminID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// UpdateLocation handles PUT /api/v1/locations/:id.
func (h *LocationHandler) UpdateLocation(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid location ID")
		return
	}

	var req application.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateLocation(c.Request.Context(), locationID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UpdatePricing handles PATCH /api/v1/locations/:id/pricing.
func (h *LocationHandler) UpdatePricing(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid location ID")
		return
	}

	var req application.UpdatePricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdatePricing(c.Request.Context(), locationID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteLocation handles DELETE /api/v1/locations/:id.
func (h *LocationHandler) DeleteLocation(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid location ID")
		return
	}

	if err := h.service.DeleteLocation(c.Request.Context(), locationID); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMessage(c, "Location deleted successfully", nil)
}
