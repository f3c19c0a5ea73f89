package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ParkEase/service-parking/internal/common/domain"
	locationDomain "github.com/ParkEase/service-parking/internal/domain/location"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LocationModel is the GORM model for the locations table.
type LocationModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Code           string          `gorm:"uniqueIndex;not null;size:20"`
	Name           string          `gorm:"not null;size:100"`
	Address        string          `gorm:"size:500"`
	Latitude       float64         `gorm:"type:decimal(9,6);not null"`
	Longitude      float64         `gorm:"type:decimal(9,6);not null"`
	TotalSlots     int             `gorm:"not null;default:0"`
	AvailableSlots int             `gorm:"not null;default:0"`
	Pricing        json.RawMessage `gorm:"type:jsonb;not null"`
	CreatedBy      uuid.UUID       `gorm:"type:uuid"`
	Active         bool            `gorm:"not null;default:true;index"`
	Version        int64           `gorm:"not null;default:1"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (LocationModel) TableName() string { return "locations" }

// GormLocationRepository implements LocationRepository using GORM.
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GormLocationRepository.
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// FindByID retrieves a location by ID, including deactivated locations.
func (r *GormLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*locationDomain.Location, error) {
	var model LocationModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, locationDomain.ErrLocationNotFound
		}
		return nil, fmt.Errorf("failed to find location by ID: %w", err)
	}
	return toDomainLocation(&model)
}

// FindByIDs loads the given locations keyed by ID.
func (r *GormLocationRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*locationDomain.Location, error) {
	out := make(map[uuid.UUID]*locationDomain.Location, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var models []LocationModel
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find locations: %w", err)
	}
	for i := range models {
		loc, err := toDomainLocation(&models[i])
		if err != nil {
			return nil, err
		}
		out[loc.ID()] = loc
	}
	return out, nil
}

// ListActive lists active locations by name.
func (r *GormLocationRepository) ListActive(ctx context.Context) ([]*locationDomain.Location, error) {
	var models []LocationModel
	if err := conn(ctx, r.db).Where("active = ?", true).Order("name ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	locations := make([]*locationDomain.Location, 0, len(models))
	for i := range models {
		loc, err := toDomainLocation(&models[i])
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, nil
}

// Save persists a new location.
func (r *GormLocationRepository) Save(ctx context.Context, loc *locationDomain.Location) error {
	model, err := toLocationModel(loc)
	if err != nil {
		return err
	}
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return locationDomain.ErrDuplicateCode
		}
		return fmt.Errorf("failed to save location: %w", err)
	}
	return nil
}

// Update persists descriptive fields and pricing with optimistic locking.
// Slot counters are owned by AdjustCounters and never written here.
func (r *GormLocationRepository) Update(ctx context.Context, loc *locationDomain.Location) error {
	model, err := toLocationModel(loc)
	if err != nil {
		return err
	}
	result := conn(ctx, r.db).
		Model(&LocationModel{}).
		Where("id = ? AND version = ?", model.ID, loc.Version()-1).
		Updates(map[string]interface{}{
			"name":       model.Name,
			"address":    model.Address,
			"latitude":   model.Latitude,
			"longitude":  model.Longitude,
			"pricing":    model.Pricing,
			"active":     model.Active,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update location: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("location was modified by another transaction")
	}
	return nil
}

// AdjustCounters adds the deltas to the slot counters in one guarded statement.
func (r *GormLocationRepository) AdjustCounters(ctx context.Context, id uuid.UUID, totalDelta, availableDelta int) error {
	db := conn(ctx, r.db)
	result := db.Model(&LocationModel{}).
		Where("id = ?", id).
		Where("total_slots + ? >= 0", totalDelta).
		Where("available_slots + ? >= 0", availableDelta).
		Where("available_slots + ? <= total_slots + ?", availableDelta, totalDelta).
		Updates(map[string]interface{}{
			"total_slots":     gorm.Expr("total_slots + ?", totalDelta),
			"available_slots": gorm.Expr("available_slots + ?", availableDelta),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to adjust location counters: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var exists int64
	if err := db.Model(&LocationModel{}).Where("id = ?", id).Count(&exists).Error; err != nil {
		return fmt.Errorf("failed to check location: %w", err)
	}
	if exists == 0 {
		return locationDomain.ErrLocationNotFound
	}
	return locationDomain.ErrCapacityInvariant
}

// --- Conversions ---

func toLocationModel(loc *locationDomain.Location) (*LocationModel, error) {
	s := loc.Snapshot()
	pricing, err := json.Marshal(s.Pricing)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pricing: %w", err)
	}
	return &LocationModel{
		ID:             s.ID,
		Code:           s.Code,
		Name:           s.Name,
		Address:        s.Address,
		Latitude:       s.Latitude,
		Longitude:      s.Longitude,
		TotalSlots:     s.TotalSlots,
		AvailableSlots: s.AvailableSlots,
		Pricing:        pricing,
		CreatedBy:      s.CreatedBy,
		Active:         s.Active,
		Version:        s.Version,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}, nil
}

func toDomainLocation(m *LocationModel) (*locationDomain.Location, error) {
	pricing := make(locationDomain.Pricing)
	if len(m.Pricing) > 0 {
		if err := json.Unmarshal(m.Pricing, &pricing); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pricing: %w", err)
		}
	}
	return locationDomain.Reconstruct(locationDomain.Snapshot{
		ID:             m.ID,
		Code:           m.Code,
		Name:           m.Name,
		Address:        m.Address,
		Latitude:       m.Latitude,
		Longitude:      m.Longitude,
		TotalSlots:     m.TotalSlots,
		AvailableSlots: m.AvailableSlots,
		Pricing:        pricing,
		CreatedBy:      m.CreatedBy,
		Active:         m.Active,
		Version:        m.Version,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}), nil
}
