package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ParkEase/service-parking/internal/common/auth"
	"github.com/ParkEase/service-parking/internal/common/domain"
	"github.com/ParkEase/service-parking/internal/common/kafka"
	"github.com/ParkEase/service-parking/internal/common/lock"
	bookingDomain "github.com/ParkEase/service-parking/internal/domain/booking"
	locationDomain "github.com/ParkEase/service-parking/internal/domain/location"
	"github.com/ParkEase/service-parking/internal/domain/report"
	slotDomain "github.com/ParkEase/service-parking/internal/domain/slot"
	userDomain "github.com/ParkEase/service-parking/internal/domain/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type userRow struct {
	id        uuid.UUID
	name      string
	email     string
	role      auth.Role
	active    bool
	version   int64
	createdAt time.Time
}

// memStore is an in-memory store whose transactions are serialized and roll back on error.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	bookings  map[uuid.UUID]bookingDomain.Snapshot
	slots     map[uuid.UUID]slotDomain.Snapshot
	locations map[uuid.UUID]locationDomain.Snapshot
	users     map[uuid.UUID]userRow
}

func newMemStore() *memStore {
	return &memStore{
		bookings:  make(map[uuid.UUID]bookingDomain.Snapshot),
		slots:     make(map[uuid.UUID]slotDomain.Snapshot),
		locations: make(map[uuid.UUID]locationDomain.Snapshot),
		users:     make(map[uuid.UUID]userRow),
	}
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	bookings, slots, locations, users := copyMap(m.bookings), copyMap(m.slots), copyMap(m.locations), copyMap(m.users)
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.bookings, m.slots, m.locations, m.users = bookings, slots, locations, users
		m.mu.Unlock()
		return err
	}
	return nil
}

// --- bookings ---

type memBookings struct{ *memStore }

func (r memBookings) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return bookingDomain.ReconstructBooking(s), nil
}

func (r memBookings) FindByUserID(_ context.Context, userID uuid.UUID, status *bookingDomain.BookingStatus) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, s := range r.bookings {
		if s.UserID != userID || (status != nil && s.Status != *status) {
			continue
		}
		out = append(out, bookingDomain.ReconstructBooking(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime().After(out[j].StartTime()) })
	return out, nil
}

func (r memBookings) List(_ context.Context, f bookingDomain.ListFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*bookingDomain.Booking
	for _, s := range r.bookings {
		switch {
		case f.LocationID != nil && s.LocationID != *f.LocationID,
			f.UserID != nil && s.UserID != *f.UserID,
			f.Status != nil && s.Status != *f.Status,
			f.DateFrom != nil && s.BookingDate.Before(*f.DateFrom),
			f.DateTo != nil && s.BookingDate.After(*f.DateTo):
			continue
		}
		all = append(all, bookingDomain.ReconstructBooking(s))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt().After(all[j].CreatedAt()) })

	total := int64(len(all))
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r memBookings) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64)
	for _, s := range r.bookings {
		out[s.Status.String()]++
	}
	return out, nil
}

func (r memBookings) Save(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID()] = b.Snapshot()
	return nil
}

func (r memBookings) Update(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[b.ID()]
	if !ok || stored.Version != b.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.bookings[b.ID()] = b.Snapshot()
	return nil
}

func (r memBookings) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return domain.NewNotFoundError("booking", id.String())
	}
	delete(r.bookings, id)
	return nil
}

func (r memBookings) DeleteByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.bookings {
		if s.UserID == userID {
			delete(r.bookings, id)
			n++
		}
	}
	return n, nil
}

// --- slots ---

type memSlots struct{ *memStore }

func (r memSlots) FindByID(_ context.Context, id uuid.UUID) (*slotDomain.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return nil, slotDomain.ErrSlotNotFound
	}
	return slotDomain.Reconstruct(s), nil
}

func (r memSlots) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*slotDomain.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]*slotDomain.Slot)
	for _, id := range ids {
		if s, ok := r.slots[id]; ok {
			out[id] = slotDomain.Reconstruct(s)
		}
	}
	return out, nil
}

func (r memSlots) FindByLocation(_ context.Context, locationID uuid.UUID) ([]*slotDomain.Slot, error) {
	return r.filter(func(s slotDomain.Snapshot) bool { return s.LocationID == locationID && s.Active }), nil
}

func (r memSlots) FindAvailable(_ context.Context, locationID uuid.UUID, start time.Time) ([]*slotDomain.Slot, error) {
	return r.filter(func(s slotDomain.Snapshot) bool {
		return s.LocationID == locationID && slotDomain.Reconstruct(s).IsBookableAt(start)
	}), nil
}

func (r memSlots) filter(keep func(slotDomain.Snapshot) bool) []*slotDomain.Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*slotDomain.Slot
	for _, s := range r.slots {
		if keep(s) {
			out = append(out, slotDomain.Reconstruct(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlotNo() < out[j].SlotNo() })
	return out
}

func (r memSlots) CountByStatus(_ context.Context, locationID *uuid.UUID) (slotDomain.Counts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var c slotDomain.Counts
	for _, s := range r.slots {
		if !s.Active || (locationID != nil && s.LocationID != *locationID) {
			continue
		}
		c.Total++
		switch s.Status {
		case slotDomain.StatusAvailable:
			c.Available++
		case slotDomain.StatusBooked:
			c.Booked++
		case slotDomain.StatusMaintenance:
			c.Maintenance++
		}
	}
	return c, nil
}

func (r memSlots) Save(_ context.Context, s *slotDomain.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.slots {
		if existing.LocationID == s.LocationID() && existing.SlotNo == s.SlotNo() && existing.Active {
			return slotDomain.ErrDuplicateSlotNo
		}
	}
	r.slots[s.ID()] = s.Snapshot()
	return nil
}

func (r memSlots) Update(_ context.Context, s *slotDomain.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.slots[s.ID()]
	if !ok || stored.Version != s.Version()-1 {
		return domain.NewConflictError("slot was modified by another transaction")
	}
	r.slots[s.ID()] = s.Snapshot()
	return nil
}

func (r memSlots) UpdateStatus(_ context.Context, s *slotDomain.Slot, expected slotDomain.SlotStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.slots[s.ID()]
	if !ok || !stored.Active || stored.Status != expected {
		return slotDomain.ErrSlotUnavailable
	}
	r.slots[s.ID()] = s.Snapshot()
	return nil
}

// --- locations ---

type memLocations struct{ *memStore }

func (r memLocations) FindByID(_ context.Context, id uuid.UUID) (*locationDomain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.locations[id]
	if !ok {
		return nil, locationDomain.ErrLocationNotFound
	}
	return locationDomain.Reconstruct(s), nil
}

func (r memLocations) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*locationDomain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]*locationDomain.Location)
	for _, id := range ids {
		if s, ok := r.locations[id]; ok {
			out[id] = locationDomain.Reconstruct(s)
		}
	}
	return out, nil
}

func (r memLocations) ListActive(_ context.Context) ([]*locationDomain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*locationDomain.Location
	for _, s := range r.locations {
		if s.Active {
			out = append(out, locationDomain.Reconstruct(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

func (r memLocations) Save(_ context.Context, l *locationDomain.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.locations {
		if existing.Code == l.Code() {
			return locationDomain.ErrDuplicateCode
		}
	}
	r.locations[l.ID()] = l.Snapshot()
	return nil
}

func (r memLocations) Update(_ context.Context, l *locationDomain.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.locations[l.ID()]
	if !ok || stored.Version != l.Version()-1 {
		return domain.NewConflictError("location was modified by another transaction")
	}
	snap := l.Snapshot()
	snap.TotalSlots, snap.AvailableSlots = stored.TotalSlots, stored.AvailableSlots
	r.locations[l.ID()] = snap
	return nil
}

func (r memLocations) AdjustCounters(_ context.Context, id uuid.UUID, totalDelta, availableDelta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.locations[id]
	if !ok {
		return locationDomain.ErrLocationNotFound
	}
	loc := locationDomain.Reconstruct(s)
	if err := loc.ApplyCounterDelta(totalDelta, availableDelta); err != nil {
		return err
	}
	s.TotalSlots, s.AvailableSlots = loc.TotalSlots(), loc.AvailableSlots()
	r.locations[id] = s
	return nil
}

// --- users ---

type memUsers struct{ *memStore }

func (r memUsers) toUser(row userRow) *userDomain.User {
	return userDomain.Reconstruct(row.id, row.name, row.email, "", row.role, row.active, row.version, row.createdAt, row.createdAt)
}

func (r memUsers) FindByID(_ context.Context, id uuid.UUID) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.users[id]
	if !ok {
		return nil, domain.NewNotFoundError("user", id.String())
	}
	return r.toUser(row), nil
}

func (r memUsers) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]*userDomain.User)
	for _, id := range ids {
		if row, ok := r.users[id]; ok {
			out[id] = r.toUser(row)
		}
	}
	return out, nil
}

func (r memUsers) List(_ context.Context, f userDomain.ListFilter, page, limit int) ([]*userDomain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*userDomain.User
	for _, row := range r.users {
		if (f.Role != nil && row.role != *f.Role) || (f.Active != nil && row.active != *f.Active) {
			continue
		}
		out = append(out, r.toUser(row))
	}
	return out, int64(len(out)), nil
}

func (r memUsers) Update(_ context.Context, u *userDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.users[u.ID()]
	if !ok {
		return domain.NewNotFoundError("user", u.ID().String())
	}
	row.active = u.IsActive()
	row.version = u.Version()
	r.users[u.ID()] = row
	return nil
}

func (r memUsers) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

// --- events ---

type publishedEvent struct {
	topic string
	event kafka.CloudEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{topic: topic, event: event})
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.event.Type)
	}
	return out
}

// --- harness ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	store     *memStore
	bookings  memBookings
	slots     memSlots
	locations memLocations
	users     memUsers
	clock     *fakeClock
	publisher *recordingPublisher

	ledger          *CapacityLedger
	bookingService  *BookingService
	slotService     *SlotService
	locationService *LocationService
	userService     *UserService
}

var baseTime = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := newMemStore()
	h := &harness{
		store:     store,
		bookings:  memBookings{store},
		slots:     memSlots{store},
		locations: memLocations{store},
		users:     memUsers{store},
		clock:     &fakeClock{now: baseTime},
		publisher: &recordingPublisher{},
	}

	logger := zap.NewNop()
	h.ledger = NewCapacityLedger(h.slots, h.locations, logger)
	h.bookingService = NewBookingService(
		h.bookings, h.slots, h.locations, h.users, h.ledger, store, lock.NewLocalLocker(),
		bookingDomain.NewIntervalPricingStrategy(), h.publisher, DefaultBookingSettings(), logger,
	)
	h.bookingService.SetClock(h.clock.Now)
	h.slotService = NewSlotService(h.slots, h.locations, h.ledger, store, lock.NewLocalLocker(), h.publisher, logger)
	h.slotService.SetClock(h.clock.Now)
	h.locationService = NewLocationService(h.locations, h.slots, logger)
	h.locationService.SetClock(h.clock.Now)
	h.userService = NewUserService(h.users, h.bookings, h.ledger, store, logger)
	h.userService.SetClock(h.clock.Now)
	return h
}

func (h *harness) addUser(role auth.Role) auth.Identity {
	id := uuid.New()
	h.store.mu.Lock()
	h.store.users[id] = userRow{
		id:        id,
		name:      "User " + id.String()[:4],
		email:     id.String()[:8] + "@example.com",
		role:      role,
		active:    true,
		version:   1,
		createdAt: baseTime,
	}
	h.store.mu.Unlock()
	return auth.Identity{UserID: id, Role: role}
}

func (h *harness) addLocation(t *testing.T, code string) *LocationDTO {
	t.Helper()
	loc, err := h.locationService.CreateLocation(context.Background(), uuid.New(), CreateLocationRequest{
		Code:      code,
		Name:      "Location " + code,
		Address:   "1 Main Road",
		Latitude:  12.97,
		Longitude: 77.59,
	})
	require.NoError(t, err)
	return loc
}

func (h *harness) addSlot(t *testing.T, locationID uuid.UUID, no string) *SlotDTO {
	t.Helper()
	s, err := h.slotService.CreateSlot(context.Background(), CreateSlotRequest{
		LocationID: locationID,
		SlotNo:     no,
		Latitude:   12.97,
		Longitude:  77.59,
	})
	require.NoError(t, err)
	return s
}

func (h *harness) location(t *testing.T, id uuid.UUID) *locationDomain.Location {
	t.Helper()
	loc, err := h.locations.FindByID(context.Background(), id)
	require.NoError(t, err)
	return loc
}

func (h *harness) slot(t *testing.T, id uuid.UUID) *slotDomain.Slot {
	t.Helper()
	s, err := h.slots.FindByID(context.Background(), id)
	require.NoError(t, err)
	return s
}

func (h *harness) bookingRequest(loc *LocationDTO, s *SlotDTO, start time.Time, d time.Duration) CreateBookingRequest {
	return CreateBookingRequest{
		SlotID:        s.ID,
		LocationID:    loc.ID,
		VehicleNumber: "ka01ab1234",
		VehicleType:   "car",
		BookingDate:   start,
		StartTime:     start,
		EndTime:       start.Add(d),
	}
}

// --- report reader ---

type fakeReportReader struct {
	facts   []report.BookingFact
	counts  slotDomain.Counts
	queries []report.FactQuery
	mu      sync.Mutex
	err     error
}

func (r *fakeReportReader) BookingFacts(_ context.Context, q report.FactQuery) ([]report.BookingFact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
	if r.err != nil {
		return nil, r.err
	}
	var out []report.BookingFact
	for _, f := range r.facts {
		if q.PaymentStatus != "" && f.PaymentStatus != q.PaymentStatus {
			continue
		}
		if q.CreatedFrom != nil && f.CreatedAt.Before(*q.CreatedFrom) {
			continue
		}
		if q.BookingDateFrom != nil && f.BookingDate.Before(*q.BookingDateFrom) {
			continue
		}
		if q.BookingDateTo != nil && !f.BookingDate.Before(*q.BookingDateTo) {
			continue
		}
		if len(q.Statuses) > 0 && !containsString(q.Statuses, f.Status) {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (r *fakeReportReader) SlotCounts(_ context.Context, _ *uuid.UUID) (slotDomain.Counts, error) {
	return r.counts, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var errBroker = errors.New("broker down")
