package slot

import (
	"testing"
	"time"

	"github.com/ParkEase/service-parking/internal/domain/vehicle"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestNewSlot(t *testing.T) {
	s, err := NewSlot(uuid.New(), " a-01 ", 12.9, 77.6, "", now)
	require.NoError(t, err)
	assert.Equal(t, "A-01", s.SlotNo())
	assert.Equal(t, vehicle.Car, s.VehicleType())
	assert.Equal(t, StatusAvailable, s.Status())
	assert.True(t, s.IsActive())

	_, err = NewSlot(uuid.New(), "A-02", 0, 0, "spaceship", now)
	assert.Error(t, err)

	s, err = NewSlot(uuid.New(), "A-03", 0, 0, "ALL", now)
	require.NoError(t, err)
	assert.Equal(t, vehicle.All, s.VehicleType())
}

func TestAvailabilityDelta(t *testing.T) {
	tests := []struct {
		from, to SlotStatus
		want     int
	}{
		{StatusAvailable, StatusBooked, -1},
		{StatusAvailable, StatusMaintenance, -1},
		{StatusBooked, StatusAvailable, 1},
		{StatusMaintenance, StatusAvailable, 1},
		{StatusBooked, StatusMaintenance, 0},
		{StatusAvailable, StatusAvailable, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AvailabilityDelta(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestReserveRelease(t *testing.T) {
	s, err := NewSlot(uuid.New(), "B-1", 0, 0, "car", now)
	require.NoError(t, err)

	until := now.Add(2 * time.Hour)
	require.NoError(t, s.Reserve(until, now))
	assert.Equal(t, StatusBooked, s.Status())
	assert.Equal(t, until, s.NextAvailableTime())
	assert.ErrorIs(t, s.Reserve(until, now), ErrSlotUnavailable)

	released := now.Add(time.Hour)
	assert.True(t, s.Release(released))
	assert.Equal(t, StatusAvailable, s.Status())
	assert.Equal(t, released, s.NextAvailableTime())
	assert.False(t, s.Release(released), "second release is a no-op")
}

func TestIsBookableAt(t *testing.T) {
	s := Reconstruct(Snapshot{
		ID:                uuid.New(),
		Status:            StatusAvailable,
		Active:            true,
		NextAvailableTime: now.Add(time.Hour),
	})
	assert.False(t, s.IsBookableAt(now))
	assert.True(t, s.IsBookableAt(now.Add(time.Hour)))

	inactive := Reconstruct(Snapshot{ID: uuid.New(), Status: StatusAvailable, NextAvailableTime: now})
	assert.False(t, inactive.IsBookableAt(now))
}

func TestSetStatusAndRetire(t *testing.T) {
	s, err := NewSlot(uuid.New(), "C-1", 0, 0, "bike", now)
	require.NoError(t, err)

	assert.ErrorIs(t, s.SetStatus(StatusBooked, now), ErrStatusNotAllowed)
	require.NoError(t, s.SetStatus(StatusMaintenance, now))
	require.NoError(t, s.SetStatus(StatusAvailable, now))

	require.NoError(t, s.Reserve(now.Add(time.Hour), now))
	assert.ErrorIs(t, s.SetStatus(StatusMaintenance, now), ErrSlotInUse)
	assert.ErrorIs(t, s.Retire(now), ErrSlotInUse)

	s.Release(now)
	require.NoError(t, s.Retire(now))
	assert.False(t, s.IsActive())
	assert.ErrorIs(t, s.Retire(now), ErrSlotNotFound)
}
