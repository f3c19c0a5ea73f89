package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/ParkEase/service-parking/internal/application"
	"github.com/ParkEase/service-parking/internal/common/auth"
	"github.com/ParkEase/service-parking/internal/common/domain"
	"github.com/ParkEase/service-parking/internal/common/middleware"
	"github.com/ParkEase/service-parking/internal/common/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminBookingUseCases is the booking oversight available to admins.
type AdminBookingUseCases interface {
	ListAllBookings(ctx context.Context, filter application.AdminBookingFilter, page, limit int) (domain.PaginatedResult[application.BookingDTO], error)
	GetBookingStats(ctx context.Context) (map[string]int64, error)
	DeleteBooking(ctx context.Context, caller auth.Identity, bookingID uuid.UUID) error
}

// UserUseCases is the account administration available to admins.
type UserUseCases interface {
	ListUsers(ctx context.Context, role string, active *bool, page, limit int) (domain.PaginatedResult[application.UserDTO], error)
	GetUserDetail(ctx context.Context, userID uuid.UUID) (*application.UserDetailDTO, error)
	ToggleUserStatus(ctx context.Context, userID uuid.UUID) (*application.ToggleUserResult, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// AdminHandler handles admin HTTP requests for bookings and users.
type AdminHandler struct {
	bookings AdminBookingUseCases
	users    UserUseCases
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(bookings AdminBookingUseCases, users UserUseCases) *AdminHandler {
	return &AdminHandler{bookings: bookings, users: users}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, authenticator auth.Authenticator) {
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(authenticator), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/bookings", h.ListBookings)
		admin.DELETE("/bookings/:id", h.DeleteBooking)
		admin.GET("/stats/bookings", h.BookingStats)
		admin.GET("/users", h.ListUsers)
		admin.GET("/users/:id", h.GetUser)
		admin.PATCH("/users/:id/toggle-status", h.ToggleUserStatus)
		admin.DELETE("/users/:id", h.DeleteUser)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	var filter application.AdminBookingFilter
	var ok bool
	if filter.LocationID, ok = optionalUUID(c, "locationId"); !ok {
		return
	}
	filter.Status = c.Query("status")
	if filter.StartDate, ok = optionalDate(c, "startDate"); !ok {
		return
	}
	if filter.EndDate, ok = optionalDate(c, "endDate"); !ok {
		return
	}

	result, err := h.bookings.ListAllBookings(c.Request.Context(), filter, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// DeleteBooking handles DELETE /api/v1/admin/bookings/:id.
func (h *AdminHandler) DeleteBooking(c *gin.Context) {
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

	if err := h.bookings.DeleteBooking(c.Request.Context(), caller, bookingID); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMessage(c, "Booking deleted successfully", nil)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminHandler) BookingStats(c *gin.Context) {
	stats, err := h.bookings.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// ListUsers handles GET /api/v1/admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := parsePagination(c)

	var active *bool
	if raw := c.Query("isActive"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(c, "isActive must be true or false")
			return
		}
		active = &v
	}

	result, err := h.users.ListUsers(c.Request.Context(), c.Query("role"), active, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetUser handles GET /api/v1/admin/users/:id.
func (h *AdminHandler) GetUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user ID")
		return
	}

	result, err := h.users.GetUserDetail(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ToggleUserStatus handles PATCH /api/v1/admin/users/:id/toggle-status.
func (h *AdminHandler) ToggleUserStatus(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user ID")
		return
	}

	result, err := h.users.ToggleUserStatus(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMessage(c, result.Message, result.User)
}

// DeleteUser handles DELETE /api/v1/admin/users/:id.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user ID")
		return
	}

	if err := h.users.DeleteUser(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMessage(c, "User and associated bookings deleted successfully", nil)
}

// optionalDate parses an optional date query parameter given as YYYY-MM-DD or RFC3339.
func optionalDate(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, true
		}
	}
	response.BadRequest(c, key+" must be a date (YYYY-MM-DD)")
	return nil, false
}
