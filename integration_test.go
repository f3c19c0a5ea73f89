//go:build integration

package main_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ParkEase/service-parking/internal/application"
	"github.com/ParkEase/service-parking/internal/common/domain"
	"github.com/ParkEase/service-parking/internal/common/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNoShowRequest_ReleasesSlot verifies that a no-show request published to
// the reconciliation topic finalizes the booking, frees its slot and restores
// the location's available counter while keeping the payment.
func TestNoShowRequest_ReleasesSlot(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupParkingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx := context.Background()
	driver := seedDriver(t, infra.DB)
	loc, slot := seedLocationWithSlot(t, stack)

	// The reservation window has already begun so the no-show is not premature.
	start := time.Now().UTC().Add(-15 * time.Minute).Truncate(time.Minute)
	booking, err := stack.Bookings.CreateBooking(ctx, driver, application.CreateBookingRequest{
		SlotID:        slot.ID,
		LocationID:    loc.ID,
		VehicleNumber: "KA01AB1234",
		VehicleType:   "car",
		BookingDate:   start,
		StartTime:     start,
		EndTime:       start.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "upcoming", booking.Status)
	assert.Equal(t, "booked", loadSlot(t, infra.DB, slot.ID).Status)
	assert.Equal(t, 0, loadLocation(t, infra.DB, loc.ID).AvailableSlots)

	consumerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = stack.Consumer.Start(consumerCtx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	publishTestEvent(t, infra.KafkaBrokers, events.TopicReconciliation,
		"service-attendance", events.BookingNoShow, events.NoShowRequestedEvent{
			BookingID:  booking.ID,
			DetectedAt: time.Now().UTC(),
		})

	model := waitForBookingStatus(t, infra.DB, booking.ID, "no-show", 15*time.Second)
	assert.Equal(t, "completed", model.PaymentStatus)
	assert.Equal(t, booking.TotalAmount, model.TotalAmount)

	storedSlot := loadSlot(t, infra.DB, slot.ID)
	assert.Equal(t, "available", storedSlot.Status)
	storedLocation := loadLocation(t, infra.DB, loc.ID)
	assert.Equal(t, 1, storedLocation.TotalSlots)
	assert.Equal(t, 1, storedLocation.AvailableSlots)

	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicBookingEvents,
		events.BookingNoShow, booking.ID.String(), 15*time.Second)

	var statusEvt events.BookingStatusEvent
	require.NoError(t, ce.ParseData(&statusEvt))
	assert.Equal(t, booking.ID, statusEvt.BookingID)
	assert.Equal(t, slot.ID, statusEvt.SlotID)
	assert.Equal(t, "no-show", statusEvt.Status)
}

// TestCreateBooking_ConcurrentRequestsReserveOnce races several drivers for
// the same slot against a real database. Exactly one reservation may commit.
func TestCreateBooking_ConcurrentRequestsReserveOnce(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupParkingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	loc, slot := seedLocationWithSlot(t, stack)
	start := time.Now().UTC().Add(time.Hour).Truncate(time.Minute)

	const drivers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for i := 0; i < drivers; i++ {
		caller := seedDriver(t, infra.DB)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := stack.Bookings.CreateBooking(context.Background(), caller, application.CreateBookingRequest{
				SlotID:        slot.ID,
				LocationID:    loc.ID,
				VehicleNumber: "MH12CD5678",
				VehicleType:   "car",
				BookingDate:   start,
				StartTime:     start,
				EndTime:       start.Add(time.Hour),
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			succeeded++
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	require.Len(t, failures, drivers-1)
	for _, err := range failures {
		assert.True(t, domain.IsKind(err, domain.KindConflict), "unexpected error: %v", err)
	}

	var stored int64
	require.NoError(t, infra.DB.Table("bookings").Where("slot_id = ?", slot.ID).Count(&stored).Error)
	assert.Equal(t, int64(1), stored)
	assert.Equal(t, "booked", loadSlot(t, infra.DB, slot.ID).Status)
	assert.Equal(t, 0, loadLocation(t, infra.DB, loc.ID).AvailableSlots)
}

// TestDashboard_ReadsCommittedBookings checks the sqlx report queries
// against the migrated schema.
func TestDashboard_ReadsCommittedBookings(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupParkingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	ctx := context.Background()
	driver := seedDriver(t, infra.DB)
	loc, slot := seedLocationWithSlot(t, stack)

	start := time.Now().UTC().Add(time.Hour).Truncate(time.Minute)
	booking, err := stack.Bookings.CreateBooking(ctx, driver, application.CreateBookingRequest{
		SlotID:        slot.ID,
		LocationID:    loc.ID,
		VehicleNumber: "DL3CAB0001",
		VehicleType:   "car",
		BookingDate:   start,
		StartTime:     start,
		EndTime:       start.Add(90 * time.Minute),
	})
	require.NoError(t, err)

	dashboard, err := stack.Reports.Dashboard(ctx, &loc.ID, "monthly")
	require.NoError(t, err)
	assert.Equal(t, 1, dashboard.Revenue.Bookings)
	assert.InDelta(t, booking.TotalAmount, dashboard.Revenue.Total, 0.001)
	assert.Equal(t, 1, dashboard.Bookings.Total)
	assert.Equal(t, 1, dashboard.ByStatus["upcoming"])
	assert.Equal(t, int64(1), dashboard.Slots.Total)
	assert.Equal(t, int64(1), dashboard.Slots.Booked)
	assert.InDelta(t, 100.0, dashboard.Slots.OccupancyRate, 0.001)
}
