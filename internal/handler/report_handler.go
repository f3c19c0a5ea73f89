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

// ReportUseCases is the analytics surface.
type ReportUseCases interface {
	Dashboard(ctx context.Context, locationID *uuid.UUID, period string) (*application.DashboardDTO, error)
	RevenueComparison(ctx context.Context, locationID *uuid.UUID) (*application.RevenueComparisonDTO, error)
	PeakHourAnalysis(ctx context.Context, locationID *uuid.UUID, days int) (*application.PeakHoursDTO, error)
	MonthlyUsage(ctx context.Context, locationID *uuid.UUID, year, month int) (*application.MonthlyUsageDTO, error)
}

// ReportHandler handles admin analytics requests.
type ReportHandler struct {
	service ReportUseCases
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(service ReportUseCases) *ReportHandler {
	return &ReportHandler{service: service}
}

// RegisterRoutes registers statistics and report routes.
func (h *ReportHandler) RegisterRoutes(r *gin.RouterGroup, authenticator auth.Authenticator) {
	authMW := middleware.AuthMiddleware(authenticator)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	stats := r.Group("/admin/statistics")
	stats.Use(authMW, adminRole)
	{
		stats.GET("/dashboard", h.Dashboard)
		stats.GET("/revenue-comparison", h.RevenueComparison)
		stats.GET("/peak-hours", h.PeakHours)
	}

	reports := r.Group("/reports")
	reports.Use(authMW, adminRole)
	{
		reports.GET("/monthly-usage", h.MonthlyUsage)
	}
}

// Dashboard handles GET /api/v1/admin/statistics/dashboard.
func (h *ReportHandler) Dashboard(c *gin.Context) {
	locationID, ok := optionalUUID(c, "locationId")
	if !ok {
		return
	}

	result, err := h.service.Dashboard(c.Request.Context(), locationID, c.Query("period"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RevenueComparison handles GET /api/v1/admin/statistics/revenue-comparison.
func (h *ReportHandler) RevenueComparison(c *gin.Context) {
	locationID, ok := optionalUUID(c, "locationId")
	if !ok {
		return
	}

	result, err := h.service.RevenueComparison(c.Request.Context(), locationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// PeakHours handles GET /api/v1/admin/statistics/peak-hours.
func (h *ReportHandler) PeakHours(c *gin.Context) {
	locationID, ok := optionalUUID(c, "locationId")
	if !ok {
		return
	}
	days, ok := optionalInt(c, "days")
	if !ok {
		return
	}

	result, err := h.service.PeakHourAnalysis(c.Request.Context(), locationID, days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// MonthlyUsage handles GET /api/v1/reports/monthly-usage.
func (h *ReportHandler) MonthlyUsage(c *gin.Context) {
	locationID, ok := optionalUUID(c, "locationId")
	if !ok {
		return
	}
	year, ok := optionalInt(c, "year")
	if !ok {
		return
	}
	month, ok := optionalInt(c, "month")
	if !ok {
		return
	}

	result, err := h.service.MonthlyUsage(c.Request.Context(), locationID, year, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// optionalInt parses an optional integer query parameter, returning 0 when absent.
func optionalInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		response.BadRequest(c, key+" must be an integer")
		return 0, false
	}
	return v, true
}
