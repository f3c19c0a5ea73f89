package user

import (
	"context"

	"github.com/ParkEase/service-parking/internal/common/auth"
	"github.com/google/uuid"
)

// ListFilter narrows a user listing. Nil fields are ignored.
type ListFilter struct {
	Role   *auth.Role
	Active *bool
}

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*User, error)
	List(ctx context.Context, filter ListFilter, page, limit int) ([]*User, int64, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uuid.UUID) error
}
