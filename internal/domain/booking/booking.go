package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ParkEase/service-parking/internal/common/domain"
	"github.com/ParkEase/service-parking/internal/domain/vehicle"
	"github.com/google/uuid"
)

const (
	bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	bookingNumberLen   = 10

	// DefaultCancellationReason is recorded when the caller gives none.
	DefaultCancellationReason = "User cancelled"
)

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	userID        uuid.UUID
	slotID        uuid.UUID
	locationID    uuid.UUID
	vehicleNumber string
	vehicleType   vehicle.Type

	bookingDate     time.Time
	startTime       time.Time
	endTime         time.Time
	actualStartTime *time.Time
	actualEndTime   *time.Time
	durationMinutes int

	baseAmount    float64
	totalAmount   float64
	currency      string
	paymentStatus PaymentStatus
	paymentRef    string

	status             BookingStatus
	timerStarted       bool
	timerEndedAt       *time.Time
	cancellationReason string
	cancelledAt        *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBookingParams holds the validated inputs of a reservation.
type NewBookingParams struct {
	UserID        uuid.UUID
	SlotID        uuid.UUID
	LocationID    uuid.UUID
	VehicleNumber string
	VehicleType   vehicle.Type
	BookingDate   time.Time
	StartTime     time.Time
	EndTime       time.Time
	Rate          float64
	Currency      string
}

func randomCode(prefix string, n int) (string, error) {
	result := make([]byte, n)
	for i := range result {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		result[i] = bookingNumberChars[idx.Int64()]
	}
	return prefix + string(result), nil
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXXXXXX".
func generateBookingNumber() (string, error) {
	return randomCode("BK-", bookingNumberLen)
}

// generatePaymentRef creates the simulated payment reference.
func generatePaymentRef() (string, error) {
	return randomCode("PAY", bookingNumberLen)
}

// NewBooking prices the window and creates an upcoming booking whose simulated payment has completed.
func NewBooking(p NewBookingParams, pricing PricingStrategy, now time.Time) (*Booking, error) {
	if p.UserID == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}
	if p.SlotID == uuid.Nil || p.LocationID == uuid.Nil {
		return nil, domain.NewValidationError("slot and location are required")
	}
	number := vehicle.NormalizeNumber(p.VehicleNumber)
	if number == "" {
		return nil, domain.NewValidationError("vehicle number is required")
	}
	if !p.VehicleType.IsBookable() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid vehicle type: %s", p.VehicleType))
	}
	if p.Rate < 0 {
		return nil, domain.NewValidationError("rate must not be negative")
	}

	charge, err := pricing.Calculate(p.Rate, p.StartTime, p.EndTime)
	if err != nil {
		return nil, err
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}
	paymentRef, err := generatePaymentRef()
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(p.Currency))
	if currency == "" {
		currency = domain.CurrencyINR
	}

	now = now.UTC()
	return &Booking{
		id:              uuid.New(),
		bookingNumber:   bookingNumber,
		userID:          p.UserID,
		slotID:          p.SlotID,
		locationID:      p.LocationID,
		vehicleNumber:   number,
		vehicleType:     p.VehicleType,
		bookingDate:     p.BookingDate.UTC(),
		startTime:       p.StartTime.UTC(),
		endTime:         p.EndTime.UTC(),
		durationMinutes: charge.DurationMinutes,
		baseAmount:      p.Rate,
		totalAmount:     charge.TotalAmount,
		currency:        currency,
		paymentStatus:   PaymentCompleted,
		paymentRef:      paymentRef,
		status:          StatusUpcoming,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// Snapshot carries persisted booking state.
type Snapshot struct {
	ID                 uuid.UUID
	BookingNumber      string
	UserID             uuid.UUID
	SlotID             uuid.UUID
	LocationID         uuid.UUID
	VehicleNumber      string
	VehicleType        vehicle.Type
	BookingDate        time.Time
	StartTime          time.Time
	EndTime            time.Time
	ActualStartTime    *time.Time
	ActualEndTime      *time.Time
	DurationMinutes    int
	BaseAmount         float64
	TotalAmount        float64
	Currency           string
	PaymentStatus      PaymentStatus
	PaymentRef         string
	Status             BookingStatus
	TimerStarted       bool
	TimerEndedAt       *time.Time
	CancellationReason string
	CancelledAt        *time.Time
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(s Snapshot) *Booking {
	return &Booking{
		id:                 s.ID,
		bookingNumber:      s.BookingNumber,
		userID:             s.UserID,
		slotID:             s.SlotID,
		locationID:         s.LocationID,
		vehicleNumber:      s.VehicleNumber,
		vehicleType:        s.VehicleType,
		bookingDate:        s.BookingDate,
		startTime:          s.StartTime,
		endTime:            s.EndTime,
		actualStartTime:    s.ActualStartTime,
		actualEndTime:      s.ActualEndTime,
		durationMinutes:    s.DurationMinutes,
		baseAmount:         s.BaseAmount,
		totalAmount:        s.TotalAmount,
		currency:           s.Currency,
		paymentStatus:      s.PaymentStatus,
		paymentRef:         s.PaymentRef,
		status:             s.Status,
		timerStarted:       s.TimerStarted,
		timerEndedAt:       s.TimerEndedAt,
		cancellationReason: s.CancellationReason,
		cancelledAt:        s.CancelledAt,
		version:            s.Version,
		createdAt:          s.CreatedAt,
		updatedAt:          s.UpdatedAt,
	}
}

// Snapshot returns a copy of the booking state for persistence.
func (b *Booking) Snapshot() Snapshot {
	return Snapshot{
		ID:                 b.id,
		BookingNumber:      b.bookingNumber,
		UserID:             b.userID,
		SlotID:             b.slotID,
		LocationID:         b.locationID,
		VehicleNumber:      b.vehicleNumber,
		VehicleType:        b.vehicleType,
		BookingDate:        b.bookingDate,
		StartTime:          b.startTime,
		EndTime:            b.endTime,
		ActualStartTime:    b.actualStartTime,
		ActualEndTime:      b.actualEndTime,
		DurationMinutes:    b.durationMinutes,
		BaseAmount:         b.baseAmount,
		TotalAmount:        b.totalAmount,
		Currency:           b.currency,
		PaymentStatus:      b.paymentStatus,
		PaymentRef:         b.paymentRef,
		Status:             b.status,
		TimerStarted:       b.timerStarted,
		TimerEndedAt:       b.timerEndedAt,
		CancellationReason: b.cancellationReason,
		CancelledAt:        b.cancelledAt,
		Version:            b.version,
		CreatedAt:          b.createdAt,
		UpdatedAt:          b.updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// UserID returns the owning user's ID.
func (b *Booking) UserID() uuid.UUID { return b.userID }

// SlotID returns the reserved slot's ID.
func (b *Booking) SlotID() uuid.UUID { return b.slotID }

// LocationID returns the location's ID.
func (b *Booking) LocationID() uuid.UUID { return b.locationID }

// VehicleNumber returns the normalized vehicle number.
func (b *Booking) VehicleNumber() string { return b.vehicleNumber }

// VehicleType returns the vehicle type.
func (b *Booking) VehicleType() vehicle.Type { return b.vehicleType }

// BookingDate returns the requested date.
func (b *Booking) BookingDate() time.Time { return b.bookingDate }

// StartTime returns the scheduled start.
func (b *Booking) StartTime() time.Time { return b.startTime }

// EndTime returns the scheduled end.
func (b *Booking) EndTime() time.Time { return b.endTime }

// ActualStartTime returns when the timer was started.
func (b *Booking) ActualStartTime() *time.Time { return b.actualStartTime }

// ActualEndTime returns when the timer was stopped.
func (b *Booking) ActualEndTime() *time.Time { return b.actualEndTime }

// DurationMinutes returns the current duration in minutes.
func (b *Booking) DurationMinutes() int { return b.durationMinutes }

// BaseAmount returns the rate per billing interval.
func (b *Booking) BaseAmount() float64 { return b.baseAmount }

// TotalAmount returns the amount charged.
func (b *Booking) TotalAmount() float64 { return b.totalAmount }

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

// PaymentStatus returns the payment status.
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }

// PaymentRef returns the payment reference.
func (b *Booking) PaymentRef() string { return b.paymentRef }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// TimerStarted returns true once the user has started the timer.
func (b *Booking) TimerStarted() bool { return b.timerStarted }

// TimerEndedAt returns when the timer ended.
func (b *Booking) TimerEndedAt() *time.Time { return b.timerEndedAt }

// CancellationReason returns the cancellation reason.
func (b *Booking) CancellationReason() string { return b.cancellationReason }

// CancelledAt returns the cancellation time.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// IsOwnedBy returns true if userID owns the booking.
func (b *Booking) IsOwnedBy(userID uuid.UUID) bool { return b.userID == userID }

// --- Behavior ---

// StartTimer begins actual usage. The caller must own the booking and the scheduled start must have passed.
func (b *Booking) StartTimer(callerID uuid.UUID, now time.Time) error {
	if !b.IsOwnedBy(callerID) {
		return ErrNotOwner
	}
	if b.timerStarted {
		return ErrTimerAlreadyStarted
	}
	if !b.status.CanTransitionTo(StatusActive) {
		return ErrAlreadyFinalized
	}
	if now.Before(b.startTime) {
		return ErrTooEarly
	}

	now = now.UTC()
	b.timerStarted = true
	b.actualStartTime = &now
	b.status = StatusActive
	b.updatedAt = now
	return nil
}

// StopTimer completes an active booking. Duration becomes the actual elapsed minutes; the amount is not re-billed.
func (b *Booking) StopTimer(callerID uuid.UUID, now time.Time) error {
	if !b.IsOwnedBy(callerID) {
		return ErrNotOwner
	}
	if !b.timerStarted {
		return ErrTimerNotStarted
	}
	if !b.status.CanTransitionTo(StatusCompleted) {
		return ErrAlreadyFinalized
	}

	now = now.UTC()
	b.actualEndTime = &now
	b.timerEndedAt = &now
	b.status = StatusCompleted
	if b.actualStartTime != nil {
		b.durationMinutes = CeilMinutes(now.Sub(*b.actualStartTime))
	}
	b.updatedAt = now
	return nil
}

// Extend pushes the scheduled end back by extension and adds a flat fee.
func (b *Booking) Extend(callerID uuid.UUID, extension time.Duration, fee float64, now time.Time) error {
	if !b.IsOwnedBy(callerID) {
		return ErrNotOwner
	}
	if !b.timerStarted {
		return ErrTimerNotStarted
	}
	if b.status == StatusCompleted {
		return ErrAlreadyCompleted
	}
	if b.status != StatusActive {
		return ErrAlreadyFinalized
	}
	if extension <= 0 || fee < 0 {
		return domain.NewValidationError("extension must be positive and fee non-negative")
	}

	b.endTime = b.endTime.Add(extension)
	b.totalAmount += fee
	b.durationMinutes = CeilMinutes(b.endTime.Sub(b.startTime))
	b.updatedAt = now.UTC()
	return nil
}

// Cancel cancels a booking whose timer has not started and refunds the simulated payment.
func (b *Booking) Cancel(callerID uuid.UUID, reason string, now time.Time) error {
	if !b.IsOwnedBy(callerID) {
		return ErrNotOwner
	}
	if b.timerStarted {
		return ErrCannotCancelAfterStart
	}
	if !b.status.CanTransitionTo(StatusCancelled) {
		return ErrAlreadyFinalized
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultCancellationReason
	}
	now = now.UTC()
	b.status = StatusCancelled
	b.paymentStatus = PaymentRefunded
	b.cancellationReason = reason
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

// MarkNoShow records that an upcoming booking was never started. The payment is kept.
func (b *Booking) MarkNoShow(now time.Time) error {
	if b.timerStarted {
		return ErrTimerAlreadyStarted
	}
	if !b.status.CanTransitionTo(StatusNoShow) {
		return ErrAlreadyFinalized
	}
	if now.Before(b.startTime) {
		return ErrTooEarly
	}

	b.status = StatusNoShow
	b.updatedAt = now.UTC()
	return nil
}

// CheckDeletable verifies that the caller may remove the booking.
func (b *Booking) CheckDeletable(callerID uuid.UUID, isAdmin bool) error {
	if !isAdmin && !b.IsOwnedBy(callerID) {
		return ErrNotOwner
	}
	if !b.status.IsDeletable() {
		return ErrNotFinalized
	}
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
}
