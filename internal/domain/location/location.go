package location

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ParkEase/service-parking/internal/common/domain"
	"github.com/ParkEase/service-parking/internal/domain/vehicle"
	"github.com/google/uuid"
)

// FallbackRate is charged per interval when a location has no rate for a vehicle type.
const FallbackRate = 15.0

var (
	ErrLocationNotFound   = domain.New(domain.KindNotFound, "location_not_found", "location not found or inactive")
	ErrDuplicateCode      = domain.New(domain.KindConflict, "duplicate_location_code", "location with this code already exists")
	ErrCapacityInvariant  = domain.New(domain.KindConflict, "capacity_invariant", "slot counters would leave the valid range")
	ErrLocationHasBooking = domain.New(domain.KindConflict, "location_in_use", "location still has booked slots")
)

// Pricing maps a vehicle type to the charge per 15-minute interval.
type Pricing map[vehicle.Type]float64

// DefaultPricing returns the rates applied to a new location.
func DefaultPricing() Pricing {
	return Pricing{
		vehicle.Car:   15,
		vehicle.Bike:  10,
		vehicle.Bus:   25,
		vehicle.Van:   20,
		vehicle.Truck: 22,
	}
}

// Clone returns a copy of p.
func (p Pricing) Clone() Pricing {
	out := make(Pricing, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge validates changes and returns p with them applied.
func (p Pricing) Merge(changes map[string]float64) (Pricing, error) {
	out := p.Clone()
	for raw, amount := range changes {
		t, err := vehicle.Parse(raw)
		if err != nil {
			return nil, domain.NewValidationError(err.Error())
		}
		if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
			return nil, domain.NewValidationError(fmt.Sprintf("rate for %s must be a non-negative number", t))
		}
		out[t] = amount
	}
	return out, nil
}

// Location is the aggregate root for a parking site.
type Location struct {
	id             uuid.UUID
	code           string
	name           string
	address        string
	latitude       float64
	longitude      float64
	totalSlots     int
	availableSlots int
	pricing        Pricing
	createdBy      uuid.UUID
	active         bool
	version        int64
	createdAt      time.Time
	updatedAt      time.Time
}

// NewLocationParams holds the inputs for a new location.
type NewLocationParams struct {
	Code      string
	Name      string
	Address   string
	Latitude  float64
	Longitude float64
	Pricing   map[string]float64
	CreatedBy uuid.UUID
}

// NewLocation creates an active location with no slots.
func NewLocation(p NewLocationParams, now time.Time) (*Location, error) {
	code := strings.ToUpper(strings.TrimSpace(p.Code))
	if code == "" {
		return nil, domain.NewValidationError("location code is required")
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, domain.NewValidationError("location name is required")
	}
	if err := validateCoordinates(p.Latitude, p.Longitude); err != nil {
		return nil, err
	}
	pricing, err := DefaultPricing().Merge(p.Pricing)
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Location{
		id:        uuid.New(),
		code:      code,
		name:      name,
		address:   strings.TrimSpace(p.Address),
		latitude:  p.Latitude,
		longitude: p.Longitude,
		pricing:   pricing,
		createdBy: p.CreatedBy,
		active:    true,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func validateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return domain.NewValidationError("latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return domain.NewValidationError("longitude must be between -180 and 180")
	}
	return nil
}

// Snapshot carries persisted location state.
type Snapshot struct {
	ID             uuid.UUID
	Code           string
	Name           string
	Address        string
	Latitude       float64
	Longitude      float64
	TotalSlots     int
	AvailableSlots int
	Pricing        Pricing
	CreatedBy      uuid.UUID
	Active         bool
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Reconstruct rebuilds a Location from persistence data (no validation).
func Reconstruct(s Snapshot) *Location {
	pricing := s.Pricing
	if pricing == nil {
		pricing = Pricing{}
	}
	return &Location{
		id:             s.ID,
		code:           s.Code,
		name:           s.Name,
		address:        s.Address,
		latitude:       s.Latitude,
		longitude:      s.Longitude,
		totalSlots:     s.TotalSlots,
		availableSlots: s.AvailableSlots,
		pricing:        pricing,
		createdBy:      s.CreatedBy,
		active:         s.Active,
		version:        s.Version,
		createdAt:      s.CreatedAt,
		updatedAt:      s.UpdatedAt,
	}
}

// Snapshot returns a copy of the location state for persistence.
func (l *Location) Snapshot() Snapshot {
	return Snapshot{
		ID:             l.id,
		Code:           l.code,
		Name:           l.name,
		Address:        l.address,
		Latitude:       l.latitude,
		Longitude:      l.longitude,
		TotalSlots:     l.totalSlots,
		AvailableSlots: l.availableSlots,
		Pricing:        l.pricing.Clone(),
		CreatedBy:      l.createdBy,
		Active:         l.active,
		Version:        l.version,
		CreatedAt:      l.createdAt,
		UpdatedAt:      l.updatedAt,
	}
}

// ID returns the location's unique identifier.
func (l *Location) ID() uuid.UUID { return l.id }

// Code returns the external location code.
func (l *Location) Code() string { return l.code }

// Name returns the display name.
func (l *Location) Name() string { return l.name }

// Address returns the street address.
func (l *Location) Address() string { return l.address }

// Latitude returns the latitude.
func (l *Location) Latitude() float64 { return l.latitude }

// Longitude returns the longitude.
func (l *Location) Longitude() float64 { return l.longitude }

// TotalSlots returns the number of active slots.
func (l *Location) TotalSlots() int { return l.totalSlots }

// AvailableSlots returns the number of slots currently available.
func (l *Location) AvailableSlots() int { return l.availableSlots }

// Pricing returns a copy of the pricing table.
func (l *Location) Pricing() Pricing { return l.pricing.Clone() }

// CreatedBy returns the creating admin's ID.
func (l *Location) CreatedBy() uuid.UUID { return l.createdBy }

// IsActive returns false once the location has been soft-deleted.
func (l *Location) IsActive() bool { return l.active }

// Version returns the entity version for optimistic locking.
func (l *Location) Version() int64 { return l.version }

// CreatedAt returns the creation timestamp.
func (l *Location) CreatedAt() time.Time { return l.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (l *Location) UpdatedAt() time.Time { return l.updatedAt }

// Rate returns the charge per interval for t, or fallback when the table has no entry.
func (l *Location) Rate(t vehicle.Type, fallback float64) float64 {
	if rate, ok := l.pricing[t]; ok {
		return rate
	}
	return fallback
}

// UpdateParams holds a partial update. Nil fields are left unchanged.
type UpdateParams struct {
	Name      *string
	Address   *string
	Latitude  *float64
	Longitude *float64
}

// Update applies a partial update.
func (l *Location) Update(p UpdateParams, now time.Time) error {
	lat, lng := l.latitude, l.longitude
	if p.Latitude != nil {
		lat = *p.Latitude
	}
	if p.Longitude != nil {
		lng = *p.Longitude
	}
	if err := validateCoordinates(lat, lng); err != nil {
		return err
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return domain.NewValidationError("location name must not be empty")
		}
		l.name = name
	}
	if p.Address != nil {
		l.address = strings.TrimSpace(*p.Address)
	}
	l.latitude, l.longitude = lat, lng
	l.updatedAt = now.UTC()
	return nil
}

// UpdatePricing merges changes into the pricing table.
func (l *Location) UpdatePricing(changes map[string]float64, now time.Time) error {
	if len(changes) == 0 {
		return domain.NewValidationError("no pricing changes given")
	}
	merged, err := l.pricing.Merge(changes)
	if err != nil {
		return err
	}
	l.pricing = merged
	l.updatedAt = now.UTC()
	return nil
}

// Deactivate soft-deletes the location.
func (l *Location) Deactivate(now time.Time) error {
	if !l.active {
		return ErrLocationNotFound
	}
	l.active = false
	l.updatedAt = now.UTC()
	return nil
}

// ApplyCounterDelta adjusts the slot counters, refusing any result outside 0 <= available <= total.
func (l *Location) ApplyCounterDelta(totalDelta, availableDelta int) error {
	total := l.totalSlots + totalDelta
	available := l.availableSlots + availableDelta
	if total < 0 || available < 0 || available > total {
		return ErrCapacityInvariant
	}
	l.totalSlots = total
	l.availableSlots = available
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (l *Location) IncrementVersion() {
	l.version++
}
