package report

import (
	"time"

	"github.com/google/uuid"
)

// FactQuery selects the bookings a report aggregates over. Nil and empty fields are ignored.
// Time ranges are half open: From inclusive, To exclusive.
type FactQuery struct {
	LocationID      *uuid.UUID
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	BookingDateFrom *time.Time
	BookingDateTo   *time.Time
	Statuses        []string
	PaymentStatus   string
}
