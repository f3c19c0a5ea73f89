package slot

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Counts summarizes slots by status.
type Counts struct {
	Total       int64
	Available   int64
	Booked      int64
	Maintenance int64
}

// SlotRepository defines persistence operations for slots.
type SlotRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Slot, error)

	// FindByLocation lists the active slots of a location ordered by slot number.
	FindByLocation(ctx context.Context, locationID uuid.UUID) ([]*Slot, error)

	// FindAvailable lists active, available slots free from start onward.
	FindAvailable(ctx context.Context, locationID uuid.UUID, start time.Time) ([]*Slot, error)

	// CountByStatus counts active slots, optionally for one location.
	CountByStatus(ctx context.Context, locationID *uuid.UUID) (Counts, error)

	// Save persists a new slot. A duplicate slot number fails with ErrDuplicateSlotNo.
	Save(ctx context.Context, s *Slot) error

	// Update persists descriptive fields with optimistic locking.
	Update(ctx context.Context, s *Slot) error

	// UpdateStatus persists status, next-available time and the active flag only if the
	// stored slot is still active and in expected status. Otherwise it fails with ErrSlotUnavailable.
	UpdateStatus(ctx context.Context, s *Slot, expected SlotStatus) error
}
