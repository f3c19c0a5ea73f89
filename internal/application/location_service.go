package application

import (
	"context"
	"time"

	locationDomain "github.com/ParkEase/service-parking/internal/domain/location"
	slotDomain "github.com/ParkEase/service-parking/internal/domain/slot"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateLocationRequest holds the data needed to create a location.
type CreateLocationRequest struct {
	Code      string             `json:"code" binding:"required"`
	Name      string             `json:"name" binding:"required"`
	Address   string             `json:"address"`
	Latitude  float64            `json:"latitude" binding:"min=-90,max=90"`
	Longitude float64            `json:"longitude" binding:"min=-180,max=180"`
	Pricing   map[string]float64 `json:"pricing"`
}

// UpdateLocationRequest holds a partial location update.
type UpdateLocationRequest struct {
	Name      *string  `json:"name"`
	Address   *string  `json:"address"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
}

// UpdatePricingRequest holds per-vehicle rate changes.
type UpdatePricingRequest struct {
	Pricing map[string]float64 `json:"pricing" binding:"required"`
}

// LocationService manages parking locations.
type LocationService struct {
	locations locationDomain.LocationRepository
	slots     slotDomain.SlotRepository
	logger    *zap.Logger
	now       Clock
}

// NewLocationService creates a new LocationService.
func NewLocationService(
	locations locationDomain.LocationRepository,
	slots slotDomain.SlotRepository,
	logger *zap.Logger,
) *LocationService {
	return &LocationService{
		locations: locations,
		slots:     slots,
		logger:    logger,
		now:       systemClock,
	}
}

// SetClock replaces the time source.
func (s *LocationService) SetClock(c Clock) {
	s.now = c
}

// CreateLocation creates an active location with the default rates overlaid by req.Pricing.
func (s *LocationService) CreateLocation(ctx context.Context, createdBy uuid.UUID, req CreateLocationRequest) (*LocationDTO, error) {
	loc, err := locationDomain.NewLocation(locationDomain.NewLocationParams{
		Code:      req.Code,
		Name:      req.Name,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Pricing:   req.Pricing,
		CreatedBy: createdBy,
	}, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.locations.Save(ctx, loc); err != nil {
		return nil, err
	}

	s.logger.Info("location created",
		zap.String("location_id", loc.ID().String()),
		zap.String("code", loc.Code()),
	)

	dto := toLocationDTO(loc)
	return &dto, nil
}

// GetLocation retrieves an active location.
func (s *LocationService) GetLocation(ctx context.Context, locationID uuid.UUID) (*LocationDTO, error) {
	loc, err := s.activeLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	dto := toLocationDTO(loc)
	return &dto, nil
}

// ListLocations returns all active locations.
func (s *LocationService) ListLocations(ctx context.Context) ([]LocationDTO, error) {
	list, err := s.locations.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]LocationDTO, 0, len(list))
	for _, loc := range list {
		out = append(out, toLocationDTO(loc))
	}
	return out, nil
}

// UpdateLocation applies a partial update.
func (s *LocationService) UpdateLocation(ctx context.Context, locationID uuid.UUID, req UpdateLocationRequest) (*LocationDTO, error) {
	return s.mutate(ctx, locationID, func(loc *locationDomain.Location, now time.Time) error {
		return loc.Update(locationDomain.UpdateParams{
			Name:      req.Name,
			Address:   req.Address,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		}, now)
	})
}

// UpdatePricing merges rate changes into the location's pricing table.
func (s *LocationService) UpdatePricing(ctx context.Context, locationID uuid.UUID, req UpdatePricingRequest) (*LocationDTO, error) {
	dto, err := s.mutate(ctx, locationID, func(loc *locationDomain.Location, now time.Time) error {
		return loc.UpdatePricing(req.Pricing, now)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("location pricing updated", zap.String("location_id", locationID.String()))
	return dto, nil
}

// DeleteLocation soft-deletes a location that has no booked slots.
func (s *LocationService) DeleteLocation(ctx context.Context, locationID uuid.UUID) error {
	counts, err := s.slots.CountByStatus(ctx, &locationID)
	if err != nil {
		return err
	}
	if counts.Booked > 0 {
		return locationDomain.ErrLocationHasBooking
	}

	if _, err := s.mutate(ctx, locationID, func(loc *locationDomain.Location, now time.Time) error {
		return loc.Deactivate(now)
	}); err != nil {
		return err
	}

	s.logger.Info("location deleted", zap.String("location_id", locationID.String()))
	return nil
}

func (s *LocationService) mutate(ctx context.Context, locationID uuid.UUID, fn func(*locationDomain.Location, time.Time) error) (*LocationDTO, error) {
	loc, err := s.activeLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if err := fn(loc, s.now()); err != nil {
		return nil, err
	}

	loc.IncrementVersion()
	if err := s.locations.Update(ctx, loc); err != nil {
		return nil, err
	}

	dto := toLocationDTO(loc)
	return &dto, nil
}

func (s *LocationService) activeLocation(ctx context.Context, locationID uuid.UUID) (*locationDomain.Location, error) {
	loc, err := s.locations.FindByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if !loc.IsActive() {
		return nil, locationDomain.ErrLocationNotFound
	}
	return loc, nil
}
