package booking

import "github.com/ParkEase/service-parking/internal/common/domain"

// Workflow failures. Compare with errors.Is; matching is by code.
var (
	ErrInvalidWindow          = domain.New(domain.KindValidation, "invalid_window", "end time must be after start time")
	ErrTooEarly               = domain.New(domain.KindValidation, "too_early", "cannot start timer before booking start time")
	ErrTimerAlreadyStarted    = domain.New(domain.KindConflict, "timer_already_started", "timer already started")
	ErrTimerNotStarted        = domain.New(domain.KindConflict, "timer_not_started", "timer not started")
	ErrCannotCancelAfterStart = domain.New(domain.KindConflict, "cannot_cancel_after_start", "cannot cancel booking after timer has started")
	ErrAlreadyFinalized       = domain.New(domain.KindInvalidState, "already_finalized", "booking is already finalized")
	ErrAlreadyCompleted       = domain.New(domain.KindInvalidState, "already_completed", "booking already completed")
	ErrNotFinalized           = domain.New(domain.KindInvalidState, "not_finalized", "can only delete completed or cancelled bookings")
	ErrNotOwner               = domain.New(domain.KindForbidden, "not_owner", "not authorized to access this booking")
)
