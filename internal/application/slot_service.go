package application

import (
	"context"
	"errors"
	"time"

	"github.com/ParkEase/service-parking/internal/common/domain"
	"github.com/ParkEase/service-parking/internal/common/events"
	"github.com/ParkEase/service-parking/internal/common/lock"
	locationDomain "github.com/ParkEase/service-parking/internal/domain/location"
	slotDomain "github.com/ParkEase/service-parking/internal/domain/slot"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateSlotRequest holds the data needed to add a slot to a location.
type CreateSlotRequest struct {
	LocationID  uuid.UUID `json:"location_id" binding:"required"`
	SlotNo      string    `json:"slot_no" binding:"required"`
	Latitude    float64   `json:"latitude" binding:"min=-90,max=90"`
	Longitude   float64   `json:"longitude" binding:"min=-180,max=180"`
	VehicleType string    `json:"vehicle_type" binding:"omitempty,slotvehicletype"`
}

// UpdateSlotRequest holds a partial slot update.
type UpdateSlotRequest struct {
	SlotNo            *string    `json:"slot_no"`
	Latitude          *float64   `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude         *float64   `json:"longitude" binding:"omitempty,min=-180,max=180"`
	VehicleType       *string    `json:"vehicle_type" binding:"omitempty,slotvehicletype"`
	NextAvailableTime *time.Time `json:"next_available_time"`
}

// ChangeSlotStatusRequest holds an administrative status change.
type ChangeSlotStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=available maintenance"`
}

// SlotService manages slots and their effect on location capacity.
type SlotService struct {
	slots     slotDomain.SlotRepository
	locations locationDomain.LocationRepository
	ledger    *CapacityLedger
	tx        TxManager
	locker    lock.Locker
	producer  EventPublisher
	logger    *zap.Logger
	now       Clock
}

// NewSlotService creates a new SlotService.
func NewSlotService(
	slots slotDomain.SlotRepository,
	locations locationDomain.LocationRepository,
	ledger *CapacityLedger,
	tx TxManager,
	locker lock.Locker,
	producer EventPublisher,
	logger *zap.Logger,
) *SlotService {
	return &SlotService{
		slots:     slots,
		locations: locations,
		ledger:    ledger,
		tx:        tx,
		locker:    locker,
		producer:  producer,
		logger:    logger,
		now:       systemClock,
	}
}

// SetClock replaces the time source.
func (s *SlotService) SetClock(c Clock) {
	s.now = c
}

// CreateSlot adds an available slot to an active location.
func (s *SlotService) CreateSlot(ctx context.Context, req CreateSlotRequest) (*SlotDTO, error) {
	loc, err := s.locations.FindByID(ctx, req.LocationID)
	if err != nil {
		return nil, err
	}
	if !loc.IsActive() {
		return nil, locationDomain.ErrLocationNotFound
	}

	sl, err := slotDomain.NewSlot(loc.ID(), req.SlotNo, req.Latitude, req.Longitude, req.VehicleType, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		return s.ledger.Register(txCtx, sl)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("slot created",
		zap.String("slot_id", sl.ID().String()),
		zap.String("location_id", loc.ID().String()),
		zap.String("slot_no", sl.SlotNo()),
	)

	dto := toSlotDTO(sl)
	return &dto, nil
}

// GetSlot retrieves an active slot.
func (s *SlotService) GetSlot(ctx context.Context, slotID uuid.UUID) (*SlotDTO, error) {
	sl, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if !sl.IsActive() {
		return nil, slotDomain.ErrSlotNotFound
	}
	dto := toSlotDTO(sl)
	return &dto, nil
}

// ListByLocation returns the active slots of a location ordered by slot number.
func (s *SlotService) ListByLocation(ctx context.Context, locationID uuid.UUID) ([]SlotDTO, error) {
	list, err := s.slots.FindByLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	return toSlotDTOs(list), nil
}

// ListAvailable returns the slots of a location that can be booked from start.
// A zero start means now.
func (s *SlotService) ListAvailable(ctx context.Context, locationID uuid.UUID, start time.Time) ([]SlotDTO, error) {
	if start.IsZero() {
		start = s.now()
	}
	list, err := s.slots.FindAvailable(ctx, locationID, start)
	if err != nil {
		return nil, err
	}
	return toSlotDTOs(list), nil
}

// UpdateSlot applies a partial update to a slot's descriptive fields.
func (s *SlotService) UpdateSlot(ctx context.Context, slotID uuid.UUID, req UpdateSlotRequest) (*SlotDTO, error) {
	sl, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if !sl.IsActive() {
		return nil, slotDomain.ErrSlotNotFound
	}

	if err := sl.Update(slotDomain.UpdateParams{
		SlotNo:            req.SlotNo,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		VehicleType:       req.VehicleType,
		NextAvailableTime: req.NextAvailableTime,
	}, s.now()); err != nil {
		return nil, err
	}

	sl.IncrementVersion()
	if err := s.slots.Update(ctx, sl); err != nil {
		return nil, err
	}

	dto := toSlotDTO(sl)
	return &dto, nil
}

// ChangeStatus toggles a slot between available and maintenance and adjusts its location's counter.
func (s *SlotService) ChangeStatus(ctx context.Context, slotID uuid.UUID, status string) (*SlotDTO, error) {
	to, err := slotDomain.ParseSlotStatus(status)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	release, err := s.locker.TryAcquire(ctx, slotLockKey(slotID))
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, slotDomain.ErrSlotInUse
		}
		return nil, domain.NewUnavailableError("failed to lock slot", err)
	}
	defer release()

	now := s.now()
	var (
		sl   *slotDomain.Slot
		from slotDomain.SlotStatus
	)
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		sl, err = s.slots.FindByID(txCtx, slotID)
		if err != nil {
			return err
		}
		if !sl.IsActive() {
			return slotDomain.ErrSlotNotFound
		}
		from, err = s.ledger.ChangeStatus(txCtx, sl, to, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	if from != to {
		s.logger.Info("slot status changed",
			zap.String("slot_id", slotID.String()),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
		publishEvent(ctx, s.producer, s.logger, events.TopicSlotEvents, events.SlotStatusChanged, slotID.String(), events.SlotStatusChangedEvent{
			SlotID:     sl.ID(),
			LocationID: sl.LocationID(),
			SlotNo:     sl.SlotNo(),
			From:       from.String(),
			To:         to.String(),
			OccurredAt: now,
		})
	}

	dto := toSlotDTO(sl)
	return &dto, nil
}

// DeleteSlot soft-deletes a slot that is not booked and removes it from its location's counters.
func (s *SlotService) DeleteSlot(ctx context.Context, slotID uuid.UUID) error {
	release, err := s.locker.TryAcquire(ctx, slotLockKey(slotID))
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return slotDomain.ErrSlotInUse
		}
		return domain.NewUnavailableError("failed to lock slot", err)
	}
	defer release()

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		sl, err := s.slots.FindByID(txCtx, slotID)
		if err != nil {
			return err
		}
		return s.ledger.Retire(txCtx, sl, s.now())
	})
	if err != nil {
		return err
	}

	s.logger.Info("slot deleted", zap.String("slot_id", slotID.String()))
	return nil
}

func toSlotDTOs(list []*slotDomain.Slot) []SlotDTO {
	out := make([]SlotDTO, 0, len(list))
	for _, sl := range list {
		out = append(out, toSlotDTO(sl))
	}
	return out
}
