package user

import (
	"time"

	"github.com/ParkEase/service-parking/internal/common/auth"
	"github.com/ParkEase/service-parking/internal/common/domain"
	"github.com/google/uuid"
)

var ErrCannotDeleteAdmin = domain.New(domain.KindForbidden, "cannot_delete_admin", "cannot delete admin users")

// User is the aggregate root for an account known to the parking service.
// Accounts are registered by the auth service; this service toggles and removes them.
type User struct {
	id        uuid.UUID
	name      string
	email     string
	phone     string
	role      auth.Role
	active    bool
	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// Reconstruct rebuilds a User from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	name, email, phone string,
	role auth.Role,
	active bool,
	version int64,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:        id,
		name:      name,
		email:     email,
		phone:     phone,
		role:      role,
		active:    active,
		version:   version,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// --- Getters ---

func (u *User) ID() uuid.UUID { return u.id }
func (u *User) Name() string { return u.name }
func (u *User) Email() string { return u.email }
func (u *User) Phone() string { return u.phone }
func (u *User) Role() auth.Role { return u.role }
func (u *User) IsActive() bool { return u.active }
func (u *User) IsAdmin() bool { return u.role == auth.RoleAdmin }
func (u *User) Version() int64 { return u.version }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// --- Behavior ---

// ToggleActive flips the active flag. A deactivated user can no longer authenticate.
func (u *User) ToggleActive(now time.Time) {
	u.active = !u.active
	u.version++
	u.updatedAt = now.UTC()
}

// CheckDeletable refuses to remove administrators.
func (u *User) CheckDeletable() error {
	if u.IsAdmin() {
		return ErrCannotDeleteAdmin
	}
	return nil
}

// Account returns the authorization view of the user.
func (u *User) Account() auth.Account {
	return auth.Account{Role: u.role, Active: u.active}
}

// Stats summarizes a user's booking history.
type Stats struct {
	TotalBookings     int
	CompletedBookings int
	CancelledBookings int
	TotalSpent        float64
}
