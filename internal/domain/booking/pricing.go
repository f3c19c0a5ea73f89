package booking

import "time"

// BillingInterval is the unit a booking is billed in. Partial intervals round up.
const BillingInterval = 15 * time.Minute

// Charge is the outcome of pricing a window.
type Charge struct {
	DurationMinutes int
	Intervals       int
	TotalAmount     float64
}

// PricingStrategy defines the interface for calculating booking prices.
type PricingStrategy interface {
	// Calculate prices the window [start, end) at rate per billing interval.
	Calculate(rate float64, start, end time.Time) (Charge, error)
}

// IntervalPricingStrategy bills rate for every started 15-minute interval.
type IntervalPricingStrategy struct{}

// NewIntervalPricingStrategy creates a new IntervalPricingStrategy.
func NewIntervalPricingStrategy() *IntervalPricingStrategy {
	return &IntervalPricingStrategy{}
}

// Calculate implements PricingStrategy.
func (s *IntervalPricingStrategy) Calculate(rate float64, start, end time.Time) (Charge, error) {
	return ComputeCharge(rate, start, end)
}

// ComputeCharge returns the duration in whole minutes (rounded up), the number of
// billing intervals (rounded up) and rate multiplied by the interval count.
func ComputeCharge(rate float64, start, end time.Time) (Charge, error) {
	if !end.After(start) {
		return Charge{}, ErrInvalidWindow
	}
	minutes := CeilMinutes(end.Sub(start))
	intervals := (minutes + intervalMinutes - 1) / intervalMinutes
	return Charge{
		DurationMinutes: minutes,
		Intervals:       intervals,
		TotalAmount:     rate * float64(intervals),
	}, nil
}

const intervalMinutes = int(BillingInterval / time.Minute)

// CeilMinutes rounds d up to whole minutes. Non-positive durations yield 0.
func CeilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Minute - 1) / time.Minute)
}
