package application

import (
	"context"
	"time"

	locationDomain "github.com/ParkEase/service-parking/internal/domain/location"
	slotDomain "github.com/ParkEase/service-parking/internal/domain/slot"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CapacityLedger is the only writer of slot status and location counters.
// Every slot move into or out of available is paired with a ±1 on the location's
// available counter. Callers run ledger methods inside a transaction.
type CapacityLedger struct {
	slots     slotDomain.SlotRepository
	locations locationDomain.LocationRepository
	logger    *zap.Logger
}

// NewCapacityLedger creates a new CapacityLedger.
func NewCapacityLedger(
	slots slotDomain.SlotRepository,
	locations locationDomain.LocationRepository,
	logger *zap.Logger,
) *CapacityLedger {
	return &CapacityLedger{slots: slots, locations: locations, logger: logger}
}

// Register persists a new slot and adds it to its location's counters.
func (l *CapacityLedger) Register(ctx context.Context, s *slotDomain.Slot) error {
	if err := l.slots.Save(ctx, s); err != nil {
		return err
	}
	available := 0
	if s.Status() == slotDomain.StatusAvailable {
		available = 1
	}
	return l.locations.AdjustCounters(ctx, s.LocationID(), 1, available)
}

// Reserve books s until the given instant. It fails with ErrSlotUnavailable if
// the slot stopped being available since it was read.
func (l *CapacityLedger) Reserve(ctx context.Context, s *slotDomain.Slot, until, now time.Time) error {
	if err := s.Reserve(until, now); err != nil {
		return err
	}
	if err := l.slots.UpdateStatus(ctx, s, slotDomain.StatusAvailable); err != nil {
		return err
	}
	return l.locations.AdjustCounters(ctx, s.LocationID(), 0, -1)
}

// Release frees the booked slot from now on. A slot that is no longer booked is
// left untouched so that a counter is never incremented twice; it reports false.
func (l *CapacityLedger) Release(ctx context.Context, slotID uuid.UUID, now time.Time) (bool, error) {
	s, err := l.slots.FindByID(ctx, slotID)
	if err != nil {
		return false, err
	}
	if !s.Release(now) {
		l.logger.Warn("slot release skipped, slot is not booked",
			zap.String("slot_id", slotID.String()),
			zap.String("status", s.Status().String()),
		)
		return false, nil
	}
	if err := l.slots.UpdateStatus(ctx, s, slotDomain.StatusBooked); err != nil {
		return false, err
	}
	if err := l.locations.AdjustCounters(ctx, s.LocationID(), 0, 1); err != nil {
		return false, err
	}
	return true, nil
}

// ChangeStatus applies an administrative status change and returns the previous status.
func (l *CapacityLedger) ChangeStatus(ctx context.Context, s *slotDomain.Slot, to slotDomain.SlotStatus, now time.Time) (slotDomain.SlotStatus, error) {
	from := s.Status()
	if err := s.SetStatus(to, now); err != nil {
		return from, err
	}
	if from == to {
		return from, nil
	}
	if err := l.slots.UpdateStatus(ctx, s, from); err != nil {
		return from, err
	}
	if delta := slotDomain.AvailabilityDelta(from, to); delta != 0 {
		if err := l.locations.AdjustCounters(ctx, s.LocationID(), 0, delta); err != nil {
			return from, err
		}
	}
	return from, nil
}

// Retire soft-deletes s and removes it from its location's counters.
func (l *CapacityLedger) Retire(ctx context.Context, s *slotDomain.Slot, now time.Time) error {
	status := s.Status()
	if err := s.Retire(now); err != nil {
		return err
	}
	if err := l.slots.UpdateStatus(ctx, s, status); err != nil {
		return err
	}
	available := 0
	if status == slotDomain.StatusAvailable {
		available = -1
	}
	return l.locations.AdjustCounters(ctx, s.LocationID(), -1, available)
}
