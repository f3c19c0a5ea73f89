package events

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics.
const (
	TopicBookingEvents  = "parking.booking.events"
	TopicSlotEvents     = "parking.slot.events"
	TopicReconciliation = "parking.reconciliation"
)

// Booking lifecycle event types.
const (
	BookingCreated   = "parking.booking.created"
	TimerStarted     = "parking.booking.timer_started"
	TimerStopped     = "parking.booking.timer_stopped"
	BookingExtended  = "parking.booking.extended"
	BookingCancelled = "parking.booking.cancelled"
	BookingNoShow    = "parking.booking.no_show"
	BookingDeleted   = "parking.booking.deleted"
)

// Slot event types.
const (
	SlotStatusChanged = "parking.slot.status_changed"
)

// BookingCreatedEvent is published after a reservation is committed.
type BookingCreatedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	UserID        uuid.UUID `json:"user_id"`
	SlotID        uuid.UUID `json:"slot_id"`
	LocationID    uuid.UUID `json:"location_id"`
	VehicleType   string    `json:"vehicle_type"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	TotalAmount   float64   `json:"total_amount"`
	Currency      string    `json:"currency"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingStatusEvent is published on every later lifecycle transition.
type BookingStatusEvent struct {
	BookingID       uuid.UUID `json:"booking_id"`
	BookingNumber   string    `json:"booking_number"`
	UserID          uuid.UUID `json:"user_id"`
	SlotID          uuid.UUID `json:"slot_id"`
	LocationID      uuid.UUID `json:"location_id"`
	Status          string    `json:"status"`
	PaymentStatus   string    `json:"payment_status"`
	TotalAmount     float64   `json:"total_amount"`
	DurationMinutes int       `json:"duration_minutes"`
	Reason          string    `json:"reason,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// NoShowRequestedEvent is consumed from the reconciliation topic.
type NoShowRequestedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	DetectedAt time.Time `json:"detected_at"`
}

// SlotStatusChangedEvent is published when a slot moves between statuses.
type SlotStatusChangedEvent struct {
	SlotID     uuid.UUID `json:"slot_id"`
	LocationID uuid.UUID `json:"location_id"`
	SlotNo     string    `json:"slot_no"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	OccurredAt time.Time `json:"occurred_at"`
}
