package application

import (
	"context"
	"fmt"
	"time"

	"github.com/ParkEase/service-parking/internal/common/domain"
	"github.com/ParkEase/service-parking/internal/domain/report"
	slotDomain "github.com/ParkEase/service-parking/internal/domain/slot"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPeakDays = 7
	maxPeakDays     = 365
	peakHourCount   = 5
)

// ReportReader loads the read-side projections that reports aggregate over.
type ReportReader interface {
	BookingFacts(ctx context.Context, q report.FactQuery) ([]report.BookingFact, error)
	SlotCounts(ctx context.Context, locationID *uuid.UUID) (slotDomain.Counts, error)
}

// DashboardDTO is the admin overview for one period.
type DashboardDTO struct {
	Period          string           `json:"period"`
	Since           time.Time        `json:"since"`
	Revenue         RevenueDTO       `json:"revenue"`
	Bookings        BookingCountsDTO `json:"bookings"`
	Slots           SlotOccupancyDTO `json:"slots"`
	AverageDuration int              `json:"average_duration"`
	ByStatus        map[string]int   `json:"by_status"`
}

// RevenueDTO totals paid bookings.
type RevenueDTO struct {
	Total         float64            `json:"total"`
	Bookings      int                `json:"bookings"`
	ByVehicleType map[string]float64 `json:"by_vehicle_type,omitempty"`
}

// BookingCountsDTO counts bookings by lifecycle status.
type BookingCountsDTO struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Active    int `json:"active"`
	Cancelled int `json:"cancelled"`
}

// SlotOccupancyDTO counts slots by status.
type SlotOccupancyDTO struct {
	Total         int64   `json:"total"`
	Available     int64   `json:"available"`
	Booked        int64   `json:"booked"`
	Maintenance   int64   `json:"maintenance"`
	OccupancyRate float64 `json:"occupancy_rate"`
}

// RevenueComparisonDTO compares paid revenue across calendar windows ending now.
type RevenueComparisonDTO struct {
	Today     RevenueDTO `json:"today"`
	ThisWeek  RevenueDTO `json:"this_week"`
	ThisMonth RevenueDTO `json:"this_month"`
}

// HourCountDTO is one bucket of the peak-hour histogram.
type HourCountDTO struct {
	Hour     int `json:"hour"`
	Bookings int `json:"bookings"`
}

// PeakHoursDTO ranks start hours by booking count.
type PeakHoursDTO struct {
	Days         int            `json:"days"`
	PeakHours    []HourCountDTO `json:"peak_hours"`
	Distribution []HourCountDTO `json:"distribution"`
}

// MonthlyUsageDTO is the usage report for one calendar month.
type MonthlyUsageDTO struct {
	Year          int                 `json:"year"`
	Month         int                 `json:"month"`
	StartDate     time.Time           `json:"start_date"`
	EndDate       time.Time           `json:"end_date"`
	Summary       MonthlySummaryDTO   `json:"summary"`
	DailyBookings map[int]int         `json:"daily_bookings"`
	Segmentation  UserSegmentsDTO     `json:"user_segmentation"`
	Bookings      []MonthlyBookingDTO `json:"bookings"`
}

// MonthlySummaryDTO holds the headline numbers of a monthly report.
type MonthlySummaryDTO struct {
	TotalBookings     int     `json:"total_bookings"`
	CompletedBookings int     `json:"completed_bookings"`
	TotalRevenue      float64 `json:"total_revenue"`
	AverageDuration   int     `json:"average_duration"`
	PeakHour          string  `json:"peak_hour"`
}

// UserSegmentsDTO splits users into first-time and returning.
type UserSegmentsDTO struct {
	NewUsers       int `json:"new_users"`
	ReturningUsers int `json:"returning_users"`
}

// MonthlyBookingDTO is one row of the monthly report.
type MonthlyBookingDTO struct {
	BookingID       uuid.UUID `json:"booking_id"`
	BookingNumber   string    `json:"booking_number"`
	UserID          uuid.UUID `json:"user_id"`
	LocationID      uuid.UUID `json:"location_id"`
	VehicleType     string    `json:"vehicle_type"`
	BookingDate     time.Time `json:"booking_date"`
	DurationMinutes int       `json:"duration_minutes"`
	TotalAmount     float64   `json:"total_amount"`
	Status          string    `json:"status"`
}

// ReportService computes admin statistics and usage reports.
type ReportService struct {
	reader ReportReader
	loc    *time.Location
	logger *zap.Logger
	now    Clock
}

// NewReportService creates a new ReportService. Calendar boundaries are computed in loc.
func NewReportService(reader ReportReader, loc *time.Location, logger *zap.Logger) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{reader: reader, loc: loc, logger: logger, now: systemClock}
}

// SetClock replaces the time source.
func (s *ReportService) SetClock(c Clock) {
	s.now = c
}

// Dashboard summarizes paid bookings created during the period and the current slot occupancy.
func (s *ReportService) Dashboard(ctx context.Context, locationID *uuid.UUID, period string) (*DashboardDTO, error) {
	p, err := report.ParsePeriod(period)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	since := p.Since(s.now(), s.loc)

	var (
		facts  []report.BookingFact
		counts slotDomain.Counts
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		facts, err = s.reader.BookingFacts(gctx, report.FactQuery{
			LocationID:    locationID,
			CreatedFrom:   &since,
			PaymentStatus: "completed",
		})
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.reader.SlotCounts(gctx, locationID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load dashboard data", zap.Error(err))
		return nil, err
	}

	revenue := report.Revenue(facts)
	status := report.CountByStatus(facts)
	return &DashboardDTO{
		Period:  string(p),
		Since:   since,
		Revenue: toRevenueDTO(revenue),
		Bookings: BookingCountsDTO{
			Total:     status.Total,
			Completed: status.Completed,
			Active:    status.Active,
			Cancelled: status.Cancelled,
		},
		Slots: SlotOccupancyDTO{
			Total:         counts.Total,
			Available:     counts.Available,
			Booked:        counts.Booked,
			Maintenance:   counts.Maintenance,
			OccupancyRate: report.OccupancyRate(counts.Booked, counts.Total),
		},
		AverageDuration: report.AverageDuration(facts),
		ByStatus:        status.ByStatus,
	}, nil
}

// RevenueComparison returns paid revenue for today, this week (from Sunday) and this month.
func (s *ReportService) RevenueComparison(ctx context.Context, locationID *uuid.UUID) (*RevenueComparisonDTO, error) {
	now := s.now()
	dayStart := report.StartOfDay(now, s.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	weekStart := report.StartOfWeek(now, s.loc)
	monthStart := report.StartOfMonth(now, s.loc)

	from := monthStart
	if weekStart.Before(from) {
		from = weekStart
	}
	facts, err := s.reader.BookingFacts(ctx, report.FactQuery{
		LocationID:    locationID,
		CreatedFrom:   &from,
		PaymentStatus: "completed",
	})
	if err != nil {
		return nil, err
	}

	var today, week, month []report.BookingFact
	for _, f := range facts {
		if !f.CreatedAt.Before(dayStart) && f.CreatedAt.Before(dayEnd) {
			today = append(today, f)
		}
		if !f.CreatedAt.Before(weekStart) {
			week = append(week, f)
		}
		if !f.CreatedAt.Before(monthStart) {
			month = append(month, f)
		}
	}

	return &RevenueComparisonDTO{
		Today:     toRevenueDTO(report.Revenue(today)),
		ThisWeek:  toRevenueDTO(report.Revenue(week)),
		ThisMonth: toRevenueDTO(report.Revenue(month)),
	}, nil
}

// PeakHourAnalysis ranks start hours of completed and active bookings created in the last days.
func (s *ReportService) PeakHourAnalysis(ctx context.Context, locationID *uuid.UUID, days int) (*PeakHoursDTO, error) {
	if days <= 0 {
		days = defaultPeakDays
	}
	if days > maxPeakDays {
		return nil, domain.NewValidationError(fmt.Sprintf("days must be at most %d", maxPeakDays))
	}
	since := s.now().AddDate(0, 0, -days)

	facts, err := s.reader.BookingFacts(ctx, report.FactQuery{
		LocationID:  locationID,
		CreatedFrom: &since,
		Statuses:    []string{"completed", "active"},
	})
	if err != nil {
		return nil, err
	}

	ranked := report.PeakHours(facts, s.loc)
	return &PeakHoursDTO{
		Days:         days,
		PeakHours:    toHourCountDTOs(ranked[:peakHourCount]),
		Distribution: toHourCountDTOs(report.HourlyDistribution(facts, s.loc)),
	}, nil
}

// MonthlyUsage reports on bookings dated within the given calendar month.
func (s *ReportService) MonthlyUsage(ctx context.Context, locationID *uuid.UUID, year, month int) (*MonthlyUsageDTO, error) {
	now := s.now().In(s.loc)
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	start, end, err := report.MonthWindow(year, time.Month(month), s.loc)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	facts, err := s.reader.BookingFacts(ctx, report.FactQuery{
		LocationID:      locationID,
		BookingDateFrom: &start,
		BookingDateTo:   &end,
	})
	if err != nil {
		return nil, err
	}

	status := report.CountByStatus(facts)
	peak := "N/A"
	if len(facts) > 0 {
		peak = fmt.Sprintf("%d:00", report.PeakHours(facts, s.loc)[0].Hour)
	}

	daily := make(map[int]int)
	for _, d := range report.DailyCounts(facts, s.loc) {
		daily[d.Day] = d.Bookings
	}
	segments := report.SegmentUsers(facts)

	rows := make([]MonthlyBookingDTO, 0, len(facts))
	for _, f := range facts {
		rows = append(rows, MonthlyBookingDTO{
			BookingID:       f.BookingID,
			BookingNumber:   f.BookingNumber,
			UserID:          f.UserID,
			LocationID:      f.LocationID,
			VehicleType:     f.VehicleType,
			BookingDate:     f.BookingDate,
			DurationMinutes: f.DurationMinutes,
			TotalAmount:     f.TotalAmount,
			Status:          f.Status,
		})
	}

	return &MonthlyUsageDTO{
		Year:      year,
		Month:     month,
		StartDate: start,
		EndDate:   end,
		Summary: MonthlySummaryDTO{
			TotalBookings:     status.Total,
			CompletedBookings: status.Completed,
			TotalRevenue:      report.Revenue(facts).Total,
			AverageDuration:   report.AverageDuration(facts),
			PeakHour:          peak,
		},
		DailyBookings: daily,
		Segmentation:  UserSegmentsDTO{NewUsers: segments.NewUsers, ReturningUsers: segments.ReturningUsers},
		Bookings:      rows,
	}, nil
}

func toRevenueDTO(r report.RevenueSummary) RevenueDTO {
	return RevenueDTO{Total: r.Total, Bookings: r.Bookings, ByVehicleType: r.ByVehicleType}
}

func toHourCountDTOs(in []report.HourCount) []HourCountDTO {
	out := make([]HourCountDTO, 0, len(in))
	for _, h := range in {
		out = append(out, HourCountDTO{Hour: h.Hour, Bookings: h.Bookings})
	}
	return out
}
