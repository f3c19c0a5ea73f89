package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows an admin booking listing. Nil fields are ignored.
type ListFilter struct {
	LocationID *uuid.UUID
	UserID     *uuid.UUID
	Status     *BookingStatus
	DateFrom   *time.Time
	DateTo     *time.Time
}

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByUserID retrieves all bookings of a user, newest start first, optionally filtered by status.
	FindByUserID(ctx context.Context, userID uuid.UUID, status *BookingStatus) ([]*Booking, error)

	// List retrieves bookings matching filter, newest first, with pagination (admin).
	List(ctx context.Context, filter ListFilter, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error

	// Delete permanently removes a booking.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByUserID removes every booking of a user and returns how many were removed.
	DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}
