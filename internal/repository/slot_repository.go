package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ParkEase/service-parking/internal/common/domain"
	slotDomain "github.com/ParkEase/service-parking/internal/domain/slot"
	"github.com/ParkEase/service-parking/internal/domain/vehicle"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SlotModel is the GORM model for the slots table.
// Slot numbers are unique among the active slots of a location.
type SlotModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	LocationID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_slots_location_slot_no,where:active"`
	SlotNo            string    `gorm:"not null;size:20;uniqueIndex:idx_slots_location_slot_no,where:active"`
	Latitude          float64   `gorm:"type:decimal(9,6);not null"`
	Longitude         float64   `gorm:"type:decimal(9,6);not null"`
	Status            string    `gorm:"not null;size:20;index;default:'available'"`
	VehicleType       string    `gorm:"not null;size:10;default:'car'"`
	NextAvailableTime time.Time `gorm:"not null"`
	Active            bool      `gorm:"not null;default:true"`
	Version           int64     `gorm:"not null;default:1"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (SlotModel) TableName() string { return "slots" }

// GormSlotRepository implements SlotRepository using GORM.
type GormSlotRepository struct {
	db *gorm.DB
}

// NewGormSlotRepository creates a new GormSlotRepository.
func NewGormSlotRepository(db *gorm.DB) *GormSlotRepository {
	return &GormSlotRepository{db: db}
}

// FindByID retrieves a slot by ID, including retired slots.
func (r *GormSlotRepository) FindByID(ctx context.Context, id uuid.UUID) (*slotDomain.Slot, error) {
	var model SlotModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, slotDomain.ErrSlotNotFound
		}
		return nil, fmt.Errorf("failed to find slot by ID: %w", err)
	}
	return toDomainSlot(&model), nil
}

// FindByIDs loads the given slots keyed by ID. Missing IDs are absent from the result.
func (r *GormSlotRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*slotDomain.Slot, error) {
	out := make(map[uuid.UUID]*slotDomain.Slot, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var models []SlotModel
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find slots: %w", err)
	}
	for i := range models {
		out[models[i].ID] = toDomainSlot(&models[i])
	}
	return out, nil
}

// FindByLocation lists the active slots of a location ordered by slot number.
func (r *GormSlotRepository) FindByLocation(ctx context.Context, locationID uuid.UUID) ([]*slotDomain.Slot, error) {
	var models []SlotModel
	if err := conn(ctx, r.db).
		Where("location_id = ? AND active = ?", locationID, true).
		Order("slot_no ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find location slots: %w", err)
	}
	return toDomainSlots(models), nil
}

// FindAvailable lists active, available slots free from start onward.
func (r *GormSlotRepository) FindAvailable(ctx context.Context, locationID uuid.UUID, start time.Time) ([]*slotDomain.Slot, error) {
	var models []SlotModel
	if err := conn(ctx, r.db).
		Where("location_id = ? AND active = ? AND status = ? AND next_available_time <= ?",
			locationID, true, slotDomain.StatusAvailable.String(), start).
		Order("slot_no ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find available slots: %w", err)
	}
	return toDomainSlots(models), nil
}

// CountByStatus counts active slots, optionally for one location.
func (r *GormSlotRepository) CountByStatus(ctx context.Context, locationID *uuid.UUID) (slotDomain.Counts, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	query := conn(ctx, r.db).Model(&SlotModel{}).Where("active = ?", true)
	if locationID != nil {
		query = query.Where("location_id = ?", *locationID)
	}

	var results []statusCount
	if err := query.Select("status, count(*) as count").Group("status").Find(&results).Error; err != nil {
		return slotDomain.Counts{}, fmt.Errorf("failed to count slots by status: %w", err)
	}

	var counts slotDomain.Counts
	for _, sc := range results {
		counts.Total += sc.Count
		switch slotDomain.SlotStatus(sc.Status) {
		case slotDomain.StatusAvailable:
			counts.Available = sc.Count
		case slotDomain.StatusBooked:
			counts.Booked = sc.Count
		case slotDomain.StatusMaintenance:
			counts.Maintenance = sc.Count
		}
	}
	return counts, nil
}

// Save persists a new slot.
func (r *GormSlotRepository) Save(ctx context.Context, s *slotDomain.Slot) error {
	if err := conn(ctx, r.db).Create(toSlotModel(s)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return slotDomain.ErrDuplicateSlotNo
		}
		return fmt.Errorf("failed to save slot: %w", err)
	}
	return nil
}

// Update persists descriptive fields with optimistic locking.
func (r *GormSlotRepository) Update(ctx context.Context, s *slotDomain.Slot) error {
	model := toSlotModel(s)
	result := conn(ctx, r.db).
		Model(&SlotModel{}).
		Where("id = ? AND version = ?", model.ID, s.Version()-1).
		Updates(map[string]interface{}{
			"slot_no":             model.SlotNo,
			"latitude":            model.Latitude,
			"longitude":           model.Longitude,
			"vehicle_type":        model.VehicleType,
			"next_available_time": model.NextAvailableTime,
			"version":             model.Version,
			"updated_at":          model.UpdatedAt,
		})

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return slotDomain.ErrDuplicateSlotNo
		}
		return fmt.Errorf("failed to update slot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("slot was modified by another transaction")
	}
	return nil
}

// UpdateStatus writes the status fields only while the stored slot is active and in expected status.
func (r *GormSlotRepository) UpdateStatus(ctx context.Context, s *slotDomain.Slot, expected slotDomain.SlotStatus) error {
	result := conn(ctx, r.db).
		Model(&SlotModel{}).
		Where("id = ? AND active = ? AND status = ?", s.ID(), true, expected.String()).
		Updates(map[string]interface{}{
			"status":              s.Status().String(),
			"next_available_time": s.NextAvailableTime(),
			"active":              s.IsActive(),
			"version":             gorm.Expr("version + 1"),
			"updated_at":          s.UpdatedAt(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update slot status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return slotDomain.ErrSlotUnavailable
	}
	return nil
}

// --- Conversions ---

func toSlotModel(s *slotDomain.Slot) *SlotModel {
	snap := s.Snapshot()
	return &SlotModel{
		ID:                snap.ID,
		LocationID:        snap.LocationID,
		SlotNo:            snap.SlotNo,
		Latitude:          snap.Latitude,
		Longitude:         snap.Longitude,
		Status:            snap.Status.String(),
		VehicleType:       snap.VehicleType.String(),
		NextAvailableTime: snap.NextAvailableTime,
		Active:            snap.Active,
		Version:           snap.Version,
		CreatedAt:         snap.CreatedAt,
		UpdatedAt:         snap.UpdatedAt,
	}
}

func toDomainSlot(m *SlotModel) *slotDomain.Slot {
	return slotDomain.Reconstruct(slotDomain.Snapshot{
		ID:                m.ID,
		LocationID:        m.LocationID,
		SlotNo:            m.SlotNo,
		Latitude:          m.Latitude,
		Longitude:         m.Longitude,
		Status:            slotDomain.SlotStatus(m.Status),
		VehicleType:       vehicle.Type(m.VehicleType),
		NextAvailableTime: m.NextAvailableTime,
		Active:            m.Active,
		Version:           m.Version,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	})
}

func toDomainSlots(models []SlotModel) []*slotDomain.Slot {
	slots := make([]*slotDomain.Slot, len(models))
	for i := range models {
		slots[i] = toDomainSlot(&models[i])
	}
	return slots
}
