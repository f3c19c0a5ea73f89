package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ParkEase/service-parking/internal/common/auth"
	"github.com/ParkEase/service-parking/internal/common/domain"
	userDomain "github.com/ParkEase/service-parking/internal/domain/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"type:varchar(100);not null"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Phone     string    `gorm:"type:varchar(20)"`
	Role      string    `gorm:"type:varchar(20);not null;default:'user';index"`
	IsActive  bool      `gorm:"not null;default:true"`
	Version   int64     `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (UserModel) TableName() string { return "users" }

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	var model UserModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User", id.String())
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return toUserDomain(&model), nil
}

func (r *GormUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*userDomain.User, error) {
	out := make(map[uuid.UUID]*userDomain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var models []UserModel
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	for i := range models {
		out[models[i].ID] = toUserDomain(&models[i])
	}
	return out, nil
}

func (r *GormUserRepository) List(ctx context.Context, filter userDomain.ListFilter, page, limit int) ([]*userDomain.User, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Role != nil {
			db = db.Where("role = ?", string(*filter.Role))
		}
		if filter.Active != nil {
			db = db.Where("is_active = ?", *filter.Active)
		}
		return db
	}

	var total int64
	if err := conn(ctx, r.db).Model(&UserModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var models []UserModel
	if err := conn(ctx, r.db).
		Scopes(scope).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*userDomain.User, len(models))
	for i := range models {
		users[i] = toUserDomain(&models[i])
	}
	return users, total, nil
}

func (r *GormUserRepository) Update(ctx context.Context, u *userDomain.User) error {
	previousVersion := u.Version() - 1

	result := conn(ctx, r.db).
		Model(&UserModel{}).
		Where("id = ? AND version = ?", u.ID(), previousVersion).
		Updates(map[string]interface{}{
			"is_active":  u.IsActive(),
			"version":    u.Version(),
			"updated_at": u.UpdatedAt(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("user was modified by another transaction")
	}
	return nil
}

func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := conn(ctx, r.db).Where("id = ?", id).Delete(&UserModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// --- Conversions ---

func toUserDomain(m *UserModel) *userDomain.User {
	return userDomain.Reconstruct(
		m.ID,
		m.Name, m.Email, m.Phone,
		auth.Role(m.Role),
		m.IsActive,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}
