//go:build integration

package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ParkEase/service-parking/internal/common/database"
	"github.com/ParkEase/service-parking/internal/common/domain"
	bookingDomain "github.com/ParkEase/service-parking/internal/domain/booking"
	locationDomain "github.com/ParkEase/service-parking/internal/domain/location"
	"github.com/ParkEase/service-parking/internal/domain/report"
	slotDomain "github.com/ParkEase/service-parking/internal/domain/slot"
	"github.com/ParkEase/service-parking/internal/domain/vehicle"
	"github.com/ParkEase/service-parking/migrations"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "test_repository",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := database.PostgresConfig{
		Host:     host,
		Port:     port.Port(),
		User:     "test",
		Password: "test",
		DBName:   "test_repository",
		SSLMode:  "disable",
	}

	var db *gorm.DB
	require.Eventually(t, func() bool {
		db, err = database.Connect(cfg, logger)
		return err == nil
	}, 30*time.Second, time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(ctx, db, migrations.FS, logger))
	return db
}

func seedLocation(t *testing.T, repo *GormLocationRepository) *locationDomain.Location {
	t.Helper()
	loc, err := locationDomain.NewLocation(locationDomain.NewLocationParams{
		Code:      fmt.Sprintf("L%s", uuid.New().String()[:6]),
		Name:      "Koramangala Lot",
		Latitude:  12.9352,
		Longitude: 77.6245,
		CreatedBy: uuid.New(),
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), loc))
	return loc
}

func seedSlot(t *testing.T, repo *GormSlotRepository, locationID uuid.UUID, slotNo string) *slotDomain.Slot {
	t.Helper()
	s, err := slotDomain.NewSlot(locationID, slotNo, 12.9352, 77.6245, "car", time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), s))
	return s
}

func TestLocationRepository_AdjustCountersGuardsInvariant(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewGormLocationRepository(db)
	loc := seedLocation(t, repo)

	require.NoError(t, repo.AdjustCounters(ctx, loc.ID(), 2, 2))
	require.NoError(t, repo.AdjustCounters(ctx, loc.ID(), 0, -1))

	// available may never exceed total nor drop below zero.
	err := repo.AdjustCounters(ctx, loc.ID(), 0, 2)
	assert.ErrorIs(t, err, locationDomain.ErrCapacityInvariant)
	err = repo.AdjustCounters(ctx, loc.ID(), 0, -2)
	assert.ErrorIs(t, err, locationDomain.ErrCapacityInvariant)

	err = repo.AdjustCounters(ctx, uuid.New(), 1, 1)
	assert.ErrorIs(t, err, locationDomain.ErrLocationNotFound)

	stored, err := repo.FindByID(ctx, loc.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TotalSlots())
	assert.Equal(t, 1, stored.AvailableSlots())
	assert.Equal(t, loc.Version(), stored.Version())
}

func TestLocationRepository_DuplicateCode(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewGormLocationRepository(db)
	loc := seedLocation(t, repo)

	dup, err := locationDomain.NewLocation(locationDomain.NewLocationParams{
		Code:      loc.Code(),
		Name:      "Another Lot",
		Latitude:  12.9,
		Longitude: 77.6,
	}, time.Now())
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Save(ctx, dup), locationDomain.ErrDuplicateCode)
}

func TestSlotRepository_SlotNumbersUniqueAmongActiveSlots(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	locations := NewGormLocationRepository(db)
	slots := NewGormSlotRepository(db)
	loc := seedLocation(t, locations)

	first := seedSlot(t, slots, loc.ID(), "B-01")

	dup, err := slotDomain.NewSlot(loc.ID(), "b-01", 12.9, 77.6, "car", time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, slots.Save(ctx, dup), slotDomain.ErrDuplicateSlotNo)

	// A retired slot frees its number.
	require.NoError(t, first.Retire(time.Now()))
	require.NoError(t, slots.UpdateStatus(ctx, first, slotDomain.StatusAvailable))
	require.NoError(t, slots.Save(ctx, dup))

	active, err := slots.FindByLocation(ctx, loc.ID())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, dup.ID(), active[0].ID())

	retired, err := slots.FindByID(ctx, first.ID())
	require.NoError(t, err)
	assert.False(t, retired.IsActive())
}

func TestSlotRepository_UpdateStatusIsCompareAndSet(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	locations := NewGormLocationRepository(db)
	slots := NewGormSlotRepository(db)
	loc := seedLocation(t, locations)
	seeded := seedSlot(t, slots, loc.ID(), "C-01")

	now := time.Now()
	until := now.Add(2 * time.Hour)

	a, err := slots.FindByID(ctx, seeded.ID())
	require.NoError(t, err)
	b, err := slots.FindByID(ctx, seeded.ID())
	require.NoError(t, err)

	require.NoError(t, a.Reserve(until, now))
	require.NoError(t, b.Reserve(until, now))

	require.NoError(t, slots.UpdateStatus(ctx, a, slotDomain.StatusAvailable))
	assert.ErrorIs(t, slots.UpdateStatus(ctx, b, slotDomain.StatusAvailable), slotDomain.ErrSlotUnavailable)

	stored, err := slots.FindByID(ctx, seeded.ID())
	require.NoError(t, err)
	assert.Equal(t, slotDomain.StatusBooked, stored.Status())
	assert.Equal(t, seeded.Version()+1, stored.Version())

	available, err := slots.FindAvailable(ctx, loc.ID(), until.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, available)

	// A descriptive update from a stale read loses to the status write.
	require.NoError(t, seeded.Update(slotDomain.UpdateParams{Latitude: ptr(12.95)}, now))
	seeded.IncrementVersion()
	err = slots.Update(ctx, seeded)
	assert.True(t, domain.IsKind(err, domain.KindConflict))
}

func TestGormTransactor_RollsBackOnError(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	locations := NewGormLocationRepository(db)
	slots := NewGormSlotRepository(db)
	tx := NewGormTransactor(db)
	loc := seedLocation(t, locations)

	s, err := slotDomain.NewSlot(loc.ID(), "D-01", 12.9, 77.6, "car", time.Now())
	require.NoError(t, err)

	boom := errors.New("boom")
	err = tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := slots.Save(txCtx, s); err != nil {
			return err
		}
		if err := locations.AdjustCounters(txCtx, loc.ID(), 1, 1); err != nil {
			return err
		}
		// Nested calls join the outer transaction.
		return tx.WithinTransaction(txCtx, func(context.Context) error { return boom })
	})
	assert.ErrorIs(t, err, boom)

	_, err = slots.FindByID(ctx, s.ID())
	assert.ErrorIs(t, err, slotDomain.ErrSlotNotFound)

	stored, err := locations.FindByID(ctx, loc.ID())
	require.NoError(t, err)
	assert.Zero(t, stored.TotalSlots())
}

func TestReportRepository_BookingFactsFilters(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	locations := NewGormLocationRepository(db)
	slots := NewGormSlotRepository(db)
	bookings := NewGormBookingRepository(db)

	reader, err := database.Reader(db)
	require.NoError(t, err)
	reports := NewSQLReportRepository(reader)

	loc := seedLocation(t, locations)
	other := seedLocation(t, locations)
	s1 := seedSlot(t, slots, loc.ID(), "E-01")
	s2 := seedSlot(t, slots, loc.ID(), "E-02")
	s3 := seedSlot(t, slots, other.ID(), "E-01")
	require.NoError(t, locations.AdjustCounters(ctx, loc.ID(), 2, 2))
	require.NoError(t, locations.AdjustCounters(ctx, other.ID(), 1, 1))

	now := time.Now().UTC()
	start := now.Add(time.Hour).Truncate(time.Minute)
	driver := uuid.New()
	newBooking := func(slotID, locationID uuid.UUID) *bookingDomain.Booking {
		bk, err := bookingDomain.NewBooking(bookingDomain.NewBookingParams{
			UserID:        driver,
			SlotID:        slotID,
			LocationID:    locationID,
			VehicleNumber: "KA05MN4321",
			VehicleType:   vehicle.Car,
			BookingDate:   start,
			StartTime:     start,
			EndTime:       start.Add(time.Hour),
			Rate:          15,
			Currency:      "INR",
		}, bookingDomain.NewIntervalPricingStrategy(), now)
		require.NoError(t, err)
		require.NoError(t, bookings.Save(ctx, bk))
		return bk
	}

	kept := newBooking(s1.ID(), loc.ID())
	cancelled := newBooking(s2.ID(), loc.ID())
	newBooking(s3.ID(), other.ID())

	require.NoError(t, cancelled.Cancel(driver, "", now))
	cancelled.IncrementVersion()
	require.NoError(t, bookings.Update(ctx, cancelled))

	all, err := reports.BookingFacts(ctx, report.FactQuery{LocationID: ptr(loc.ID())})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	upcoming, err := reports.BookingFacts(ctx, report.FactQuery{
		LocationID: ptr(loc.ID()),
		Statuses:   []string{"upcoming", "active"},
	})
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, kept.ID(), upcoming[0].BookingID)
	assert.Equal(t, "car", upcoming[0].VehicleType)
	assert.InDelta(t, kept.TotalAmount(), upcoming[0].TotalAmount, 0.001)

	from := now.Add(-time.Minute)
	to := now.Add(time.Minute)
	everywhere, err := reports.BookingFacts(ctx, report.FactQuery{CreatedFrom: &from, CreatedTo: &to})
	require.NoError(t, err)
	assert.Len(t, everywhere, 3)

	none, err := reports.BookingFacts(ctx, report.FactQuery{CreatedFrom: &to})
	require.NoError(t, err)
	assert.Empty(t, none)

	counts, err := reports.SlotCounts(ctx, ptr(loc.ID()))
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.Total)
	assert.Equal(t, int64(2), counts.Available)
}

func ptr[T any](v T) *T { return &v }
