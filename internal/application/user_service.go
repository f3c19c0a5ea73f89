package application

import (
	"context"
	"fmt"

	"github.com/ParkEase/service-parking/internal/common/auth"
	"github.com/ParkEase/service-parking/internal/common/domain"
	bookingDomain "github.com/ParkEase/service-parking/internal/domain/booking"
	userDomain "github.com/ParkEase/service-parking/internal/domain/user"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserStatsDTO summarizes a user's booking history.
type UserStatsDTO struct {
	TotalBookings     int     `json:"total_bookings"`
	CompletedBookings int     `json:"completed_bookings"`
	CancelledBookings int     `json:"cancelled_bookings"`
	TotalSpent        float64 `json:"total_spent"`
}

// UserDetailDTO is a user with their bookings and stats.
type UserDetailDTO struct {
	User     UserDTO      `json:"user"`
	Bookings []BookingDTO `json:"bookings"`
	Stats    UserStatsDTO `json:"stats"`
}

// ToggleUserResult is returned after activating or deactivating a user.
type ToggleUserResult struct {
	Message string  `json:"message"`
	User    UserDTO `json:"user"`
}

// UserService administers user accounts and resolves accounts for authentication.
type UserService struct {
	users    userDomain.UserRepository
	bookings bookingDomain.BookingRepository
	ledger   *CapacityLedger
	tx       TxManager
	logger   *zap.Logger
	now      Clock
}

// NewUserService creates a new UserService.
func NewUserService(
	users userDomain.UserRepository,
	bookings bookingDomain.BookingRepository,
	ledger *CapacityLedger,
	tx TxManager,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:    users,
		bookings: bookings,
		ledger:   ledger,
		tx:       tx,
		logger:   logger,
		now:      systemClock,
	}
}

// SetClock replaces the time source.
func (s *UserService) SetClock(c Clock) {
	s.now = c
}

// LookupAccount implements auth.AccountLookup.
func (s *UserService) LookupAccount(ctx context.Context, userID uuid.UUID) (auth.Account, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return auth.Account{}, err
	}
	return u.Account(), nil
}

// ListUsers returns a paginated list of users, newest first.
func (s *UserService) ListUsers(ctx context.Context, role string, active *bool, page, limit int) (domain.PaginatedResult[UserDTO], error) {
	filter := userDomain.ListFilter{Active: active}
	if role != "" {
		r := auth.Role(role)
		if !r.IsValid() {
			return domain.PaginatedResult[UserDTO]{}, domain.NewValidationError(fmt.Sprintf("invalid role: %s", role))
		}
		filter.Role = &r
	}

	list, total, err := s.users.List(ctx, filter, page, limit)
	if err != nil {
		return domain.PaginatedResult[UserDTO]{}, err
	}

	dtos := make([]UserDTO, 0, len(list))
	for _, u := range list {
		dtos = append(dtos, toUserDTO(u))
	}
	return domain.NewPaginatedResult(dtos, total, page, limit), nil
}

// GetUserDetail returns a user with their bookings and booking stats.
func (s *UserService) GetUserDetail(ctx context.Context, userID uuid.UUID) (*UserDetailDTO, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	list, err := s.bookings.FindByUserID(ctx, userID, nil)
	if err != nil {
		return nil, err
	}

	stats := bookingStats(list)
	detail := &UserDetailDTO{
		User:     toUserDTO(u),
		Bookings: make([]BookingDTO, 0, len(list)),
		Stats: UserStatsDTO{
			TotalBookings:     stats.TotalBookings,
			CompletedBookings: stats.CompletedBookings,
			CancelledBookings: stats.CancelledBookings,
			TotalSpent:        stats.TotalSpent,
		},
	}
	for _, bk := range list {
		detail.Bookings = append(detail.Bookings, toBookingDTO(bk))
	}
	return detail, nil
}

// ToggleUserStatus activates a deactivated user or deactivates an active one.
func (s *UserService) ToggleUserStatus(ctx context.Context, userID uuid.UUID) (*ToggleUserResult, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	u.ToggleActive(s.now())
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}

	state := "deactivated"
	if u.IsActive() {
		state = "activated"
	}
	s.logger.Info("user status toggled",
		zap.String("user_id", userID.String()),
		zap.Bool("active", u.IsActive()),
	)

	return &ToggleUserResult{
		Message: fmt.Sprintf("User %s successfully", state),
		User:    toUserDTO(u),
	}, nil
}

// DeleteUser removes a non-admin user and all of their bookings. Slots held by
// the user's open bookings are released first.
func (s *UserService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := u.CheckDeletable(); err != nil {
		return err
	}

	now := s.now()
	var removed int64
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		list, err := s.bookings.FindByUserID(txCtx, userID, nil)
		if err != nil {
			return err
		}
		for _, bk := range list {
			if bk.Status().IsTerminal() {
				continue
			}
			if _, err := s.ledger.Release(txCtx, bk.SlotID(), now); err != nil {
				return err
			}
		}
		removed, err = s.bookings.DeleteByUserID(txCtx, userID)
		if err != nil {
			return err
		}
		return s.users.Delete(txCtx, userID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("user deleted",
		zap.String("user_id", userID.String()),
		zap.Int64("bookings_removed", removed),
	)
	return nil
}

func bookingStats(list []*bookingDomain.Booking) userDomain.Stats {
	stats := userDomain.Stats{TotalBookings: len(list)}
	for _, bk := range list {
		switch bk.Status() {
		case bookingDomain.StatusCompleted:
			stats.CompletedBookings++
		case bookingDomain.StatusCancelled:
			stats.CancelledBookings++
		}
		if bk.PaymentStatus() == bookingDomain.PaymentCompleted {
			stats.TotalSpent += bk.TotalAmount()
		}
	}
	return stats
}
