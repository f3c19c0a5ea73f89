package handler

import (
	"context"
	"strconv"

	"github.com/ParkEase/service-parking/internal/application"
	"github.com/ParkEase/service-parking/internal/common/auth"
	"github.com/ParkEase/service-parking/internal/common/middleware"
	"github.com/ParkEase/service-parking/internal/common/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BookingUseCases is the booking workflow exposed to drivers.
type BookingUseCases interface {
	CreateBooking(ctx context.Context, caller auth.Identity, req application.CreateBookingRequest) (*application.BookingDTO, error)
	GetBooking(ctx context.Context, caller auth.Identity, bookingID uuid.UUID) (*application.BookingDTO, error)
	ListMyBookings(ctx context.Context, caller auth.Identity, status string) (*application.CategorizedBookingsDTO, error)
	StartTimer(ctx context.Context, caller auth.Identity, bookingID uuid.UUID) (*application.BookingDTO, error)
	StopTimer(ctx context.Context, caller auth.Identity, bookingID uuid.UUID) (*application.BookingDTO, error)
	ExtendBooking(ctx context.Context, caller auth.Identity, bookingID uuid.UUID) (*application.BookingDTO, error)
	CancelBooking(ctx context.Context, caller auth.Identity, bookingID uuid.UUID, reason string) (*application.BookingDTO, error)
	DeleteBooking(ctx context.Context, caller auth.Identity, bookingID uuid.UUID) error
}

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service BookingUseCases
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service BookingUseCases) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, authenticator auth.Authenticator) {
	bookings := r.Group("/bookings")
	bookings.Use(middleware.AuthMiddleware(authenticator))
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("/my-bookings", h.ListMyBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/start-timer", h.StartTimer)
		bookings.POST("/:id/stop-timer", h.StopTimer)
		bookings.POST("/:id/extend", h.ExtendBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
		bookings.DELETE("/:id", h.DeleteBooking)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	caller, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListMyBookings handles GET /api/v1/bookings/my-bookings.
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	caller, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.ListMyBookings(c.Request.Context(), caller, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	h.withBooking(c, h.service.GetBooking)
}

// StartTimer handles POST /api/v1/bookings/:id/start-timer.
func (h *BookingHandler) StartTimer(c *gin.Context) {
	h.withBooking(c, h.service.StartTimer)
}

// StopTimer handles POST /api/v1/bookings/:id/stop-timer.
func (h *BookingHandler) StopTimer(c *gin.Context) {
	h.withBooking(c, h.service.StopTimer)
}

// ExtendBooking handles POST /api/v1/bookings/:id/extend.
func (h *BookingHandler) ExtendBooking(c *gin.Context) {
	h.withBooking(c, h.service.ExtendBooking)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var body application.CancelBookingRequest
	_ = c.ShouldBindJSON(&body)

	h.withBooking(c, func(ctx context.Context, caller auth.Identity, id uuid.UUID) (*application.BookingDTO, error) {
		return h.service.CancelBooking(ctx, caller, id, body.Reason)
	})
}

// DeleteBooking handles DELETE /api/v1/bookings/:id.
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	caller, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	if err := h.service.DeleteBooking(c.Request.Context(), caller, bookingID); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMessage(c, "Booking deleted successfully", nil)
}

type bookingAction func(ctx context.Context, caller auth.Identity, bookingID uuid.UUID) (*application.BookingDTO, error)

func (h *BookingHandler) withBooking(c *gin.Context, action bookingAction) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	caller, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := action(c.Request.Context(), caller, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}

// optionalUUID parses an optional UUID query parameter.
func optionalUUID(c *gin.Context, key string) (*uuid.UUID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.BadRequest(c, "invalid "+key)
		return nil, false
	}
	return &id, true
}
