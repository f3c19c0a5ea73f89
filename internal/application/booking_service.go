package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ParkEase/service-parking/internal/common/auth"
	"github.com/ParkEase/service-parking/internal/common/domain"
	"github.com/ParkEase/service-parking/internal/common/events"
	"github.com/ParkEase/service-parking/internal/common/lock"
	bookingDomain "github.com/ParkEase/service-parking/internal/domain/booking"
	locationDomain "github.com/ParkEase/service-parking/internal/domain/location"
	slotDomain "github.com/ParkEase/service-parking/internal/domain/slot"
	userDomain "github.com/ParkEase/service-parking/internal/domain/user"
	"github.com/ParkEase/service-parking/internal/domain/vehicle"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateBookingRequest holds the data needed to reserve a slot.
type CreateBookingRequest struct {
	SlotID        uuid.UUID `json:"slot_id" binding:"required"`
	LocationID    uuid.UUID `json:"location_id" binding:"required"`
	VehicleNumber string    `json:"vehicle_number" binding:"required"`
	VehicleType   string    `json:"vehicle_type" binding:"required,vehicletype"`
	BookingDate   time.Time `json:"booking_date" binding:"required"`
	StartTime     time.Time `json:"start_time" binding:"required"`
	EndTime       time.Time `json:"end_time" binding:"required"`
}

// CancelBookingRequest holds the optional cancellation reason.
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// AdminBookingFilter narrows the admin booking listing. Zero values are ignored.
type AdminBookingFilter struct {
	LocationID *uuid.UUID
	Status     string
	StartDate  *time.Time
	EndDate    *time.Time
}

// BookingSettings holds the tunable booking rules.
type BookingSettings struct {
	ExtensionMinutes int
	ExtensionFee     float64
	DefaultRate      float64
	Currency         string
}

// DefaultBookingSettings returns a 15 minute extension for 10 and a fallback rate of 15 INR.
func DefaultBookingSettings() BookingSettings {
	return BookingSettings{
		ExtensionMinutes: 15,
		ExtensionFee:     10,
		DefaultRate:      locationDomain.FallbackRate,
		Currency:         domain.CurrencyINR,
	}
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	bookings  bookingDomain.BookingRepository
	slots     slotDomain.SlotRepository
	locations locationDomain.LocationRepository
	users     userDomain.UserRepository
	ledger    *CapacityLedger
	tx        TxManager
	locker    lock.Locker
	pricing   bookingDomain.PricingStrategy
	producer  EventPublisher
	settings  BookingSettings
	logger    *zap.Logger
	now       Clock
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings bookingDomain.BookingRepository,
	slots slotDomain.SlotRepository,
	locations locationDomain.LocationRepository,
	users userDomain.UserRepository,
	ledger *CapacityLedger,
	tx TxManager,
	locker lock.Locker,
	pricing bookingDomain.PricingStrategy,
	producer EventPublisher,
	settings BookingSettings,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings:  bookings,
		slots:     slots,
		locations: locations,
		users:     users,
		ledger:    ledger,
		tx:        tx,
		locker:    locker,
		pricing:   pricing,
		producer:  producer,
		settings:  settings,
		logger:    logger,
		now:       systemClock,
	}
}

// SetClock replaces the time source.
func (s *BookingService) SetClock(c Clock) {
	s.now = c
}

func slotLockKey(slotID uuid.UUID) string {
	return "slot:" + slotID.String()
}

// CreateBooking reserves a slot for the caller and records the simulated payment.
func (s *BookingService) CreateBooking(ctx context.Context, caller auth.Identity, req CreateBookingRequest) (*BookingDTO, error) {
	sl, err := s.slots.FindByID(ctx, req.SlotID)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, slotDomain.ErrSlotUnavailable
		}
		return nil, err
	}
	if !sl.IsReservable() {
		return nil, slotDomain.ErrSlotUnavailable
	}

	loc, err := s.locations.FindByID(ctx, req.LocationID)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, locationDomain.ErrLocationNotFound
		}
		return nil, err
	}
	if !loc.IsActive() {
		return nil, locationDomain.ErrLocationNotFound
	}
	if sl.LocationID() != loc.ID() {
		return nil, domain.NewValidationError("slot does not belong to location")
	}

	vt, err := vehicle.Parse(req.VehicleType)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	now := s.now()
	bk, err := bookingDomain.NewBooking(bookingDomain.NewBookingParams{
		UserID:        caller.UserID,
		SlotID:        sl.ID(),
		LocationID:    loc.ID(),
		VehicleNumber: req.VehicleNumber,
		VehicleType:   vt,
		BookingDate:   req.BookingDate,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Rate:          loc.Rate(vt, s.settings.DefaultRate),
		Currency:      s.settings.Currency,
	}, s.pricing, now)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.TryAcquire(ctx, slotLockKey(sl.ID()))
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, slotDomain.ErrSlotUnavailable
		}
		return nil, domain.NewUnavailableError("failed to lock slot", err)
	}
	defer release()

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.slots.FindByID(txCtx, sl.ID())
		if err != nil {
			return err
		}
		if err := s.ledger.Reserve(txCtx, current, bk.EndTime(), now); err != nil {
			return err
		}
		if err := s.bookings.Save(txCtx, bk); err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_number", bk.BookingNumber()),
		zap.String("slot_id", sl.ID().String()),
		zap.Float64("total_amount", bk.TotalAmount()),
	)

	publishEvent(ctx, s.producer, s.logger, events.TopicBookingEvents, events.BookingCreated, bk.ID().String(), events.BookingCreatedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		UserID:        bk.UserID(),
		SlotID:        bk.SlotID(),
		LocationID:    bk.LocationID(),
		VehicleType:   bk.VehicleType().String(),
		StartTime:     bk.StartTime(),
		EndTime:       bk.EndTime(),
		TotalAmount:   bk.TotalAmount(),
		Currency:      bk.Currency(),
		OccurredAt:    now,
	})

	return s.expandOne(ctx, bk), nil
}

// GetBooking retrieves a booking visible to the caller.
func (s *BookingService) GetBooking(ctx context.Context, caller auth.Identity, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !bk.IsOwnedBy(caller.UserID) {
		return nil, bookingDomain.ErrNotOwner
	}
	return s.expandOne(ctx, bk), nil
}

// ListMyBookings returns the caller's bookings grouped into past, current and upcoming.
func (s *BookingService) ListMyBookings(ctx context.Context, caller auth.Identity, status string) (*CategorizedBookingsDTO, error) {
	var filter *bookingDomain.BookingStatus
	if status != "" {
		st, err := bookingDomain.ParseBookingStatus(status)
		if err != nil {
			return nil, domain.NewValidationError(err.Error())
		}
		filter = &st
	}

	list, err := s.bookings.FindByUserID(ctx, caller.UserID, filter)
	if err != nil {
		return nil, err
	}

	groups := bookingDomain.Categorize(list, s.now())
	return &CategorizedBookingsDTO{
		Past:     s.expand(ctx, groups.Past),
		Current:  s.expand(ctx, groups.Current),
		Upcoming: s.expand(ctx, groups.Upcoming),
		Total:    len(list),
	}, nil
}

// StartTimer begins actual usage of a booking.
func (s *BookingService) StartTimer(ctx context.Context, caller auth.Identity, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := bk.StartTimer(caller.UserID, now); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	s.logger.Info("booking timer started", zap.String("booking_id", bookingID.String()))
	s.publishStatus(ctx, events.TimerStarted, bk, now)

	return s.expandOne(ctx, bk), nil
}

// StopTimer completes an active booking and releases its slot.
func (s *BookingService) StopTimer(ctx context.Context, caller auth.Identity, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := bk.StopTimer(caller.UserID, now); err != nil {
		return nil, err
	}

	if err := s.finalize(ctx, bk, now); err != nil {
		return nil, err
	}

	s.logger.Info("booking completed",
		zap.String("booking_id", bookingID.String()),
		zap.Int("duration_minutes", bk.DurationMinutes()),
	)
	s.publishStatus(ctx, events.TimerStopped, bk, now)

	return s.expandOne(ctx, bk), nil
}

// ExtendBooking pushes the end of an active booking back by the configured extension for a flat fee.
func (s *BookingService) ExtendBooking(ctx context.Context, caller auth.Identity, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	extension := time.Duration(s.settings.ExtensionMinutes) * time.Minute
	if err := bk.Extend(caller.UserID, extension, s.settings.ExtensionFee, now); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	s.logger.Info("booking extended",
		zap.String("booking_id", bookingID.String()),
		zap.Time("end_time", bk.EndTime()),
		zap.Float64("total_amount", bk.TotalAmount()),
	)
	s.publishStatus(ctx, events.BookingExtended, bk, now)

	return s.expandOne(ctx, bk), nil
}

// CancelBooking cancels a booking whose timer has not started and releases its slot.
func (s *BookingService) CancelBooking(ctx context.Context, caller auth.Identity, bookingID uuid.UUID, reason string) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := bk.Cancel(caller.UserID, reason, now); err != nil {
		return nil, err
	}

	if err := s.finalize(ctx, bk, now); err != nil {
		return nil, err
	}

	s.logger.Info("booking cancelled",
		zap.String("booking_id", bookingID.String()),
		zap.String("reason", bk.CancellationReason()),
	)
	s.publishStatus(ctx, events.BookingCancelled, bk, now)

	return s.expandOne(ctx, bk), nil
}

// MarkNoShow moves an upcoming booking that was never started to no-show and releases its slot.
// The payment is kept.
func (s *BookingService) MarkNoShow(ctx context.Context, bookingID uuid.UUID) error {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}

	now := s.now()
	if err := bk.MarkNoShow(now); err != nil {
		return err
	}

	if err := s.finalize(ctx, bk, now); err != nil {
		return err
	}

	s.logger.Info("booking marked no-show", zap.String("booking_id", bookingID.String()))
	s.publishStatus(ctx, events.BookingNoShow, bk, now)
	return nil
}

// DeleteBooking removes a completed or cancelled booking. Admins may delete any booking.
func (s *BookingService) DeleteBooking(ctx context.Context, caller auth.Identity, bookingID uuid.UUID) error {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if err := bk.CheckDeletable(caller.UserID, caller.IsAdmin()); err != nil {
		return err
	}

	if err := s.bookings.Delete(ctx, bookingID); err != nil {
		return err
	}

	s.logger.Info("booking deleted",
		zap.String("booking_id", bookingID.String()),
		zap.String("deleted_by", caller.UserID.String()),
	)
	s.publishStatus(ctx, events.BookingDeleted, bk, s.now())
	return nil
}

// ListAllBookings returns a paginated list of bookings for admins, newest first.
func (s *BookingService) ListAllBookings(ctx context.Context, filter AdminBookingFilter, page, limit int) (domain.PaginatedResult[BookingDTO], error) {
	f := bookingDomain.ListFilter{
		LocationID: filter.LocationID,
		DateFrom:   filter.StartDate,
		DateTo:     filter.EndDate,
	}
	if filter.Status != "" {
		st, err := bookingDomain.ParseBookingStatus(filter.Status)
		if err != nil {
			return domain.PaginatedResult[BookingDTO]{}, domain.NewValidationError(err.Error())
		}
		f.Status = &st
	}

	list, total, err := s.bookings.List(ctx, f, page, limit)
	if err != nil {
		return domain.PaginatedResult[BookingDTO]{}, err
	}

	return domain.NewPaginatedResult(s.expand(ctx, list), total, page, limit), nil
}

// GetBookingStats returns booking counts grouped by status.
func (s *BookingService) GetBookingStats(ctx context.Context) (map[string]int64, error) {
	return s.bookings.CountByStatus(ctx)
}

// finalize persists a booking that left the reservation and frees its slot in one transaction.
func (s *BookingService) finalize(ctx context.Context, bk *bookingDomain.Booking, now time.Time) error {
	bk.IncrementVersion()
	return s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.bookings.Update(txCtx, bk); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}
		_, err := s.ledger.Release(txCtx, bk.SlotID(), now)
		return err
	})
}

func (s *BookingService) publishStatus(ctx context.Context, eventType string, bk *bookingDomain.Booking, now time.Time) {
	publishEvent(ctx, s.producer, s.logger, events.TopicBookingEvents, eventType, bk.ID().String(), events.BookingStatusEvent{
		BookingID:       bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		UserID:          bk.UserID(),
		SlotID:          bk.SlotID(),
		LocationID:      bk.LocationID(),
		Status:          bk.Status().String(),
		PaymentStatus:   string(bk.PaymentStatus()),
		TotalAmount:     bk.TotalAmount(),
		DurationMinutes: bk.DurationMinutes(),
		Reason:          bk.CancellationReason(),
		OccurredAt:      now,
	})
}

func (s *BookingService) expandOne(ctx context.Context, bk *bookingDomain.Booking) *BookingDTO {
	out := s.expand(ctx, []*bookingDomain.Booking{bk})
	return &out[0]
}

// expand converts bookings to DTOs with their slot, location and user attached.
// A reference that cannot be loaded is left empty.
func (s *BookingService) expand(ctx context.Context, list []*bookingDomain.Booking) []BookingDTO {
	out := make([]BookingDTO, 0, len(list))
	if len(list) == 0 {
		return out
	}

	slotIDs := make([]uuid.UUID, 0, len(list))
	locationIDs := make([]uuid.UUID, 0, len(list))
	userIDs := make([]uuid.UUID, 0, len(list))
	for _, bk := range list {
		slotIDs = append(slotIDs, bk.SlotID())
		locationIDs = append(locationIDs, bk.LocationID())
		userIDs = append(userIDs, bk.UserID())
	}

	slots, err := s.slots.FindByIDs(ctx, slotIDs)
	if err != nil {
		s.logger.Warn("failed to load booking slots", zap.Error(err))
	}
	locations, err := s.locations.FindByIDs(ctx, locationIDs)
	if err != nil {
		s.logger.Warn("failed to load booking locations", zap.Error(err))
	}
	var users map[uuid.UUID]*userDomain.User
	if s.users != nil {
		users, err = s.users.FindByIDs(ctx, userIDs)
		if err != nil {
			s.logger.Warn("failed to load booking users", zap.Error(err))
		}
	}

	for _, bk := range list {
		dto := toBookingDTO(bk)
		dto.Slot = toSlotSummary(slots[bk.SlotID()])
		dto.Location = toLocationSummary(locations[bk.LocationID()])
		dto.User = toUserSummary(users[bk.UserID()])
		out = append(out, dto)
	}
	return out
}
