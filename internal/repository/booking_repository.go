package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ParkEase/service-parking/internal/common/domain"
	bookingDomain "github.com/ParkEase/service-parking/internal/domain/booking"
	"github.com/ParkEase/service-parking/internal/domain/vehicle"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingNumber      string     `gorm:"uniqueIndex;not null;size:20"`
	UserID             uuid.UUID  `gorm:"type:uuid;index;not null"`
	SlotID             uuid.UUID  `gorm:"type:uuid;index;not null"`
	LocationID         uuid.UUID  `gorm:"type:uuid;index;not null"`
	VehicleNumber      string     `gorm:"not null;size:20"`
	VehicleType        string     `gorm:"not null;size:10"`
	BookingDate        time.Time  `gorm:"not null;index"`
	StartTime          time.Time  `gorm:"not null"`
	EndTime            time.Time  `gorm:"not null"`
	ActualStartTime    *time.Time `gorm:""`
	ActualEndTime      *time.Time `gorm:""`
	DurationMinutes    int        `gorm:"not null"`
	BaseAmount         float64    `gorm:"type:decimal(10,2);not null"`
	TotalAmount        float64    `gorm:"type:decimal(10,2);not null"`
	Currency           string     `gorm:"not null;size:3;default:'INR'"`
	PaymentStatus      string     `gorm:"not null;size:20"`
	PaymentRef         string     `gorm:"size:20"`
	BookingStatus      string     `gorm:"not null;size:20;index"`
	TimerStarted       bool       `gorm:"not null;default:false"`
	TimerEndedAt       *time.Time `gorm:""`
	CancellationReason string     `gorm:"size:500"`
	CancelledAt        *time.Time `gorm:""`
	Version            int64      `gorm:"not null;default:1"`
	CreatedAt          time.Time  `gorm:"not null;index"`
	UpdatedAt          time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model), nil
}

// FindByUserID retrieves all bookings of a user, newest start first.
func (r *GormBookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, status *bookingDomain.BookingStatus) ([]*bookingDomain.Booking, error) {
	query := conn(ctx, r.db).Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("booking_status = ?", status.String())
	}

	var models []BookingModel
	if err := query.Order("start_time DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find user bookings: %w", err)
	}
	return toDomainBookings(models), nil
}

// List retrieves bookings matching filter with pagination (admin).
func (r *GormBookingRepository) List(ctx context.Context, filter bookingDomain.ListFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.LocationID != nil {
			db = db.Where("location_id = ?", *filter.LocationID)
		}
		if filter.UserID != nil {
			db = db.Where("user_id = ?", *filter.UserID)
		}
		if filter.Status != nil {
			db = db.Where("booking_status = ?", filter.Status.String())
		}
		if filter.DateFrom != nil {
			db = db.Where("booking_date >= ?", *filter.DateFrom)
		}
		if filter.DateTo != nil {
			db = db.Where("booking_date <= ?", *filter.DateTo)
		}
		return db
	}

	var total int64
	if err := conn(ctx, r.db).Model(&BookingModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := conn(ctx, r.db).
		Scopes(scope).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	return toDomainBookings(models), total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		BookingStatus string
		Count         int64
	}
	var results []statusCount
	if err := conn(ctx, r.db).Model(&BookingModel{}).
		Select("booking_status, count(*) as count").
		Group("booking_status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.BookingStatus] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	if err := conn(ctx, r.db).Create(toBookingModel(bk)).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// IncrementVersion has already been called on bk.
	expectedVersion := bk.Version() - 1
	result := conn(ctx, r.db).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"end_time":            model.EndTime,
			"actual_start_time":   model.ActualStartTime,
			"actual_end_time":     model.ActualEndTime,
			"duration_minutes":    model.DurationMinutes,
			"total_amount":        model.TotalAmount,
			"payment_status":      model.PaymentStatus,
			"booking_status":      model.BookingStatus,
			"timer_started":       model.TimerStarted,
			"timer_ended_at":      model.TimerEndedAt,
			"cancellation_reason": model.CancellationReason,
			"cancelled_at":        model.CancelledAt,
			"version":             model.Version,
			"updated_at":          model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// Delete permanently removes a booking.
func (r *GormBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Where("id = ?", id).Delete(&BookingModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Booking", id.String())
	}
	return nil
}

// DeleteByUserID removes every booking of a user.
func (r *GormBookingRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := conn(ctx, r.db).Where("user_id = ?", userID).Delete(&BookingModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete user bookings: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	s := bk.Snapshot()
	return &BookingModel{
		ID:                 s.ID,
		BookingNumber:      s.BookingNumber,
		UserID:             s.UserID,
		SlotID:             s.SlotID,
		LocationID:         s.LocationID,
		VehicleNumber:      s.VehicleNumber,
		VehicleType:        s.VehicleType.String(),
		BookingDate:        s.BookingDate,
		StartTime:          s.StartTime,
		EndTime:            s.EndTime,
		ActualStartTime:    s.ActualStartTime,
		ActualEndTime:      s.ActualEndTime,
		DurationMinutes:    s.DurationMinutes,
		BaseAmount:         s.BaseAmount,
		TotalAmount:        s.TotalAmount,
		Currency:           s.Currency,
		PaymentStatus:      string(s.PaymentStatus),
		PaymentRef:         s.PaymentRef,
		BookingStatus:      s.Status.String(),
		TimerStarted:       s.TimerStarted,
		TimerEndedAt:       s.TimerEndedAt,
		CancellationReason: s.CancellationReason,
		CancelledAt:        s.CancelledAt,
		Version:            s.Version,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func toDomainBooking(m *BookingModel) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(bookingDomain.Snapshot{
		ID:                 m.ID,
		BookingNumber:      m.BookingNumber,
		UserID:             m.UserID,
		SlotID:             m.SlotID,
		LocationID:         m.LocationID,
		VehicleNumber:      m.VehicleNumber,
		VehicleType:        vehicle.Type(m.VehicleType),
		BookingDate:        m.BookingDate,
		StartTime:          m.StartTime,
		EndTime:            m.EndTime,
		ActualStartTime:    m.ActualStartTime,
		ActualEndTime:      m.ActualEndTime,
		DurationMinutes:    m.DurationMinutes,
		BaseAmount:         m.BaseAmount,
		TotalAmount:        m.TotalAmount,
		Currency:           m.Currency,
		PaymentStatus:      bookingDomain.PaymentStatus(m.PaymentStatus),
		PaymentRef:         m.PaymentRef,
		Status:             bookingDomain.BookingStatus(m.BookingStatus),
		TimerStarted:       m.TimerStarted,
		TimerEndedAt:       m.TimerEndedAt,
		CancellationReason: m.CancellationReason,
		CancelledAt:        m.CancelledAt,
		Version:            m.Version,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	})
}

func toDomainBookings(models []BookingModel) []*bookingDomain.Booking {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bookings[i] = toDomainBooking(&models[i])
	}
	return bookings
}
