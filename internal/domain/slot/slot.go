package slot

import (
	"strings"
	"time"

	"github.com/ParkEase/service-parking/internal/common/domain"
	"github.com/ParkEase/service-parking/internal/domain/vehicle"
	"github.com/google/uuid"
)

var (
	ErrSlotUnavailable  = domain.New(domain.KindConflict, "slot_unavailable", "slot is not available")
	ErrSlotInUse        = domain.New(domain.KindConflict, "slot_in_use", "slot is currently booked")
	ErrDuplicateSlotNo  = domain.New(domain.KindConflict, "duplicate_slot_no", "slot number already exists for this location")
	ErrSlotNotFound     = domain.New(domain.KindNotFound, "slot_not_found", "slot not found")
	ErrStatusNotAllowed = domain.New(domain.KindValidation, "status_not_allowed", "slots can only be set to available or maintenance directly")
)

// Slot is the aggregate root for one physical parking bay.
type Slot struct {
	id                uuid.UUID
	locationID        uuid.UUID
	slotNo            string
	latitude          float64
	longitude         float64
	status            SlotStatus
	vehicleType       vehicle.Type
	nextAvailableTime time.Time
	active            bool
	version           int64
	createdAt         time.Time
	updatedAt         time.Time
}

// NewSlot creates an available, active slot under locationID.
func NewSlot(locationID uuid.UUID, slotNo string, lat, lng float64, vehicleType string, now time.Time) (*Slot, error) {
	if locationID == uuid.Nil {
		return nil, domain.NewValidationError("location ID is required")
	}
	slotNo = strings.ToUpper(strings.TrimSpace(slotNo))
	if slotNo == "" {
		return nil, domain.NewValidationError("slot number is required")
	}
	vt, err := vehicle.ParseForSlot(vehicleType)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	now = now.UTC()
	return &Slot{
		id:                uuid.New(),
		locationID:        locationID,
		slotNo:            slotNo,
		latitude:          lat,
		longitude:         lng,
		status:            StatusAvailable,
		vehicleType:       vt,
		nextAvailableTime: now,
		active:            true,
		version:           1,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// Snapshot carries persisted slot state.
type Snapshot struct {
	ID                uuid.UUID
	LocationID        uuid.UUID
	SlotNo            string
	Latitude          float64
	Longitude         float64
	Status            SlotStatus
	VehicleType       vehicle.Type
	NextAvailableTime time.Time
	Active            bool
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Reconstruct rebuilds a Slot from persistence data (no validation).
func Reconstruct(s Snapshot) *Slot {
	return &Slot{
		id:                s.ID,
		locationID:        s.LocationID,
		slotNo:            s.SlotNo,
		latitude:          s.Latitude,
		longitude:         s.Longitude,
		status:            s.Status,
		vehicleType:       s.VehicleType,
		nextAvailableTime: s.NextAvailableTime,
		active:            s.Active,
		version:           s.Version,
		createdAt:         s.CreatedAt,
		updatedAt:         s.UpdatedAt,
	}
}

// Snapshot returns a copy of the slot state for persistence.
func (s *Slot) Snapshot() Snapshot {
	return Snapshot{
		ID:                s.id,
		LocationID:        s.locationID,
		SlotNo:            s.slotNo,
		Latitude:          s.latitude,
		Longitude:         s.longitude,
		Status:            s.status,
		VehicleType:       s.vehicleType,
		NextAvailableTime: s.nextAvailableTime,
		Active:            s.active,
		Version:           s.version,
		CreatedAt:         s.createdAt,
		UpdatedAt:         s.updatedAt,
	}
}

// ID returns the slot's unique identifier.
func (s *Slot) ID() uuid.UUID { return s.id }

// LocationID returns the owning location's ID.
func (s *Slot) LocationID() uuid.UUID { return s.locationID }

// SlotNo returns the slot number, unique within its location.
func (s *Slot) SlotNo() string { return s.slotNo }

// Latitude returns the latitude.
func (s *Slot) Latitude() float64 { return s.latitude }

// Longitude returns the longitude.
func (s *Slot) Longitude() float64 { return s.longitude }

// Status returns the availability status.
func (s *Slot) Status() SlotStatus { return s.status }

// VehicleType returns the accepted vehicle type.
func (s *Slot) VehicleType() vehicle.Type { return s.vehicleType }

// NextAvailableTime returns the earliest instant the slot may be booked again.
func (s *Slot) NextAvailableTime() time.Time { return s.nextAvailableTime }

// IsActive returns false once the slot has been soft-deleted.
func (s *Slot) IsActive() bool { return s.active }

// Version returns the entity version for optimistic locking.
func (s *Slot) Version() int64 { return s.version }

// CreatedAt returns the creation timestamp.
func (s *Slot) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (s *Slot) UpdatedAt() time.Time { return s.updatedAt }

// IsReservable returns true if a new booking may take the slot.
func (s *Slot) IsReservable() bool {
	return s.active && s.status == StatusAvailable
}

// IsBookableAt returns true if the slot is reservable and free from start onward.
func (s *Slot) IsBookableAt(start time.Time) bool {
	return s.IsReservable() && !s.nextAvailableTime.After(start)
}

// Reserve marks the slot booked until the given instant.
func (s *Slot) Reserve(until, now time.Time) error {
	if !s.IsReservable() {
		return ErrSlotUnavailable
	}
	s.status = StatusBooked
	s.nextAvailableTime = until.UTC()
	s.updatedAt = now.UTC()
	return nil
}

// Release frees a booked slot from now on. It returns false if the slot was not booked.
func (s *Slot) Release(now time.Time) bool {
	if s.status != StatusBooked {
		return false
	}
	now = now.UTC()
	s.status = StatusAvailable
	s.nextAvailableTime = now
	s.updatedAt = now
	return true
}

// SetStatus applies an administrative status change. A booked slot cannot be changed
// and no slot can be booked outside the booking workflow.
func (s *Slot) SetStatus(to SlotStatus, now time.Time) error {
	if to != StatusAvailable && to != StatusMaintenance {
		return ErrStatusNotAllowed
	}
	if s.status == StatusBooked {
		return ErrSlotInUse
	}
	s.status = to
	s.updatedAt = now.UTC()
	return nil
}

// Retire soft-deletes the slot. A booked slot cannot be retired.
func (s *Slot) Retire(now time.Time) error {
	if !s.active {
		return ErrSlotNotFound
	}
	if s.status == StatusBooked {
		return ErrSlotInUse
	}
	s.active = false
	s.updatedAt = now.UTC()
	return nil
}

// UpdateParams holds a partial update. Nil fields are left unchanged.
type UpdateParams struct {
	SlotNo            *string
	Latitude          *float64
	Longitude         *float64
	VehicleType       *string
	NextAvailableTime *time.Time
}

// Update applies a partial update. Slot number uniqueness is checked by the store.
func (s *Slot) Update(p UpdateParams, now time.Time) error {
	if p.SlotNo != nil {
		no := strings.ToUpper(strings.TrimSpace(*p.SlotNo))
		if no == "" {
			return domain.NewValidationError("slot number must not be empty")
		}
		s.slotNo = no
	}
	if p.VehicleType != nil {
		vt, err := vehicle.ParseForSlot(*p.VehicleType)
		if err != nil {
			return domain.NewValidationError(err.Error())
		}
		s.vehicleType = vt
	}
	if p.Latitude != nil {
		s.latitude = *p.Latitude
	}
	if p.Longitude != nil {
		s.longitude = *p.Longitude
	}
	if p.NextAvailableTime != nil {
		s.nextAvailableTime = p.NextAvailableTime.UTC()
	}
	s.updatedAt = now.UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (s *Slot) IncrementVersion() {
	s.version++
}
