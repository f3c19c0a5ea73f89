package application

import (
	"time"

	bookingDomain "github.com/ParkEase/service-parking/internal/domain/booking"
	locationDomain "github.com/ParkEase/service-parking/internal/domain/location"
	slotDomain "github.com/ParkEase/service-parking/internal/domain/slot"
	userDomain "github.com/ParkEase/service-parking/internal/domain/user"
	"github.com/google/uuid"
)

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                 uuid.UUID        `json:"id"`
	BookingNumber      string           `json:"booking_number"`
	UserID             uuid.UUID        `json:"user_id"`
	SlotID             uuid.UUID        `json:"slot_id"`
	LocationID         uuid.UUID        `json:"location_id"`
	VehicleNumber      string           `json:"vehicle_number"`
	VehicleType        string           `json:"vehicle_type"`
	BookingDate        time.Time        `json:"booking_date"`
	StartTime          time.Time        `json:"start_time"`
	EndTime            time.Time        `json:"end_time"`
	ActualStartTime    *time.Time       `json:"actual_start_time,omitempty"`
	ActualEndTime      *time.Time       `json:"actual_end_time,omitempty"`
	DurationMinutes    int              `json:"duration_minutes"`
	BaseAmount         float64          `json:"base_amount"`
	TotalAmount        float64          `json:"total_amount"`
	Currency           string           `json:"currency"`
	PaymentStatus      string           `json:"payment_status"`
	PaymentRef         string           `json:"payment_ref"`
	Status             string           `json:"status"`
	TimerStarted       bool             `json:"timer_started"`
	TimerEndedAt       *time.Time       `json:"timer_ended_at,omitempty"`
	CancellationReason string           `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time       `json:"cancelled_at,omitempty"`
	Slot               *SlotSummary     `json:"slot,omitempty"`
	Location           *LocationSummary `json:"location,omitempty"`
	User               *UserSummary     `json:"user,omitempty"`
	Version            int64            `json:"version"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// SlotSummary is the slot embedded in a booking response.
type SlotSummary struct {
	ID          uuid.UUID `json:"id"`
	SlotNo      string    `json:"slot_no"`
	VehicleType string    `json:"vehicle_type"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
}

// LocationSummary is the location embedded in a booking response.
type LocationSummary struct {
	ID      uuid.UUID `json:"id"`
	Code    string    `json:"code"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
}

// UserSummary is the user embedded in a booking response.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone string    `json:"phone,omitempty"`
}

// CategorizedBookingsDTO groups a user's bookings relative to now.
type CategorizedBookingsDTO struct {
	Past     []BookingDTO `json:"past"`
	Current  []BookingDTO `json:"current"`
	Upcoming []BookingDTO `json:"upcoming"`
	Total    int          `json:"total"`
}

// SlotDTO is the response representation of a slot.
type SlotDTO struct {
	ID                uuid.UUID `json:"id"`
	LocationID        uuid.UUID `json:"location_id"`
	SlotNo            string    `json:"slot_no"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	Status            string    `json:"status"`
	VehicleType       string    `json:"vehicle_type"`
	NextAvailableTime time.Time `json:"next_available_time"`
	Version           int64     `json:"version"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// LocationDTO is the response representation of a location.
type LocationDTO struct {
	ID             uuid.UUID          `json:"id"`
	Code           string             `json:"code"`
	Name           string             `json:"name"`
	Address        string             `json:"address"`
	Latitude       float64            `json:"latitude"`
	Longitude      float64            `json:"longitude"`
	TotalSlots     int                `json:"total_slots"`
	AvailableSlots int                `json:"available_slots"`
	Pricing        map[string]float64 `json:"pricing"`
	Version        int64              `json:"version"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// UserDTO is the response representation of a user account.
type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// toBookingDTO converts a domain Booking to a BookingDTO without expansions.
func toBookingDTO(b *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:                 b.ID(),
		BookingNumber:      b.BookingNumber(),
		UserID:             b.UserID(),
		SlotID:             b.SlotID(),
		LocationID:         b.LocationID(),
		VehicleNumber:      b.VehicleNumber(),
		VehicleType:        b.VehicleType().String(),
		BookingDate:        b.BookingDate(),
		StartTime:          b.StartTime(),
		EndTime:            b.EndTime(),
		ActualStartTime:    b.ActualStartTime(),
		ActualEndTime:      b.ActualEndTime(),
		DurationMinutes:    b.DurationMinutes(),
		BaseAmount:         b.BaseAmount(),
		TotalAmount:        b.TotalAmount(),
		Currency:           b.Currency(),
		PaymentStatus:      string(b.PaymentStatus()),
		PaymentRef:         b.PaymentRef(),
		Status:             b.Status().String(),
		TimerStarted:       b.TimerStarted(),
		TimerEndedAt:       b.TimerEndedAt(),
		CancellationReason: b.CancellationReason(),
		CancelledAt:        b.CancelledAt(),
		Version:            b.Version(),
		CreatedAt:          b.CreatedAt(),
		UpdatedAt:          b.UpdatedAt(),
	}
}

func toSlotSummary(s *slotDomain.Slot) *SlotSummary {
	if s == nil {
		return nil
	}
	return &SlotSummary{
		ID:          s.ID(),
		SlotNo:      s.SlotNo(),
		VehicleType: s.VehicleType().String(),
		Latitude:    s.Latitude(),
		Longitude:   s.Longitude(),
	}
}

func toLocationSummary(l *locationDomain.Location) *LocationSummary {
	if l == nil {
		return nil
	}
	return &LocationSummary{ID: l.ID(), Code: l.Code(), Name: l.Name(), Address: l.Address()}
}

func toUserSummary(u *userDomain.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID(), Name: u.Name(), Email: u.Email(), Phone: u.Phone()}
}

func toSlotDTO(s *slotDomain.Slot) SlotDTO {
	return SlotDTO{
		ID:                s.ID(),
		LocationID:        s.LocationID(),
		SlotNo:            s.SlotNo(),
		Latitude:          s.Latitude(),
		Longitude:         s.Longitude(),
		Status:            s.Status().String(),
		VehicleType:       s.VehicleType().String(),
		NextAvailableTime: s.NextAvailableTime(),
		Version:           s.Version(),
		CreatedAt:         s.CreatedAt(),
		UpdatedAt:         s.UpdatedAt(),
	}
}

func toLocationDTO(l *locationDomain.Location) LocationDTO {
	pricing := make(map[string]float64)
	for t, rate := range l.Pricing() {
		pricing[t.String()] = rate
	}
	return LocationDTO{
		ID:             l.ID(),
		Code:           l.Code(),
		Name:           l.Name(),
		Address:        l.Address(),
		Latitude:       l.Latitude(),
		Longitude:      l.Longitude(),
		TotalSlots:     l.TotalSlots(),
		AvailableSlots: l.AvailableSlots(),
		Pricing:        pricing,
		Version:        l.Version(),
		CreatedAt:      l.CreatedAt(),
		UpdatedAt:      l.UpdatedAt(),
	}
}

func toUserDTO(u *userDomain.User) UserDTO {
	return UserDTO{
		ID:        u.ID(),
		Name:      u.Name(),
		Email:     u.Email(),
		Phone:     u.Phone(),
		Role:      string(u.Role()),
		IsActive:  u.IsActive(),
		CreatedAt: u.CreatedAt(),
		UpdatedAt: u.UpdatedAt(),
	}
}
