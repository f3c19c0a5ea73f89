package report

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	paymentCompleted = "completed"
	statusCompleted  = "completed"
	statusActive     = "active"
	statusCancelled  = "cancelled"
)

// BookingFact is the read-only projection of a booking that reports aggregate over.
type BookingFact struct {
	BookingID       uuid.UUID `db:"id"`
	BookingNumber   string    `db:"booking_number"`
	UserID          uuid.UUID `db:"user_id"`
	LocationID      uuid.UUID `db:"location_id"`
	VehicleType     string    `db:"vehicle_type"`
	Status          string    `db:"booking_status"`
	PaymentStatus   string    `db:"payment_status"`
	BookingDate     time.Time `db:"booking_date"`
	StartTime       time.Time `db:"start_time"`
	DurationMinutes int       `db:"duration_minutes"`
	TotalAmount     float64   `db:"total_amount"`
	CreatedAt       time.Time `db:"created_at"`
}

// RevenueSummary totals paid bookings.
type RevenueSummary struct {
	Total         float64
	Bookings      int
	ByVehicleType map[string]float64
}

// Revenue sums the amounts of bookings whose payment completed.
func Revenue(facts []BookingFact) RevenueSummary {
	out := RevenueSummary{ByVehicleType: make(map[string]float64)}
	for _, f := range facts {
		if f.PaymentStatus != paymentCompleted {
			continue
		}
		out.Total += f.TotalAmount
		out.Bookings++
		out.ByVehicleType[f.VehicleType] += f.TotalAmount
	}
	return out
}

// StatusCounts counts bookings by lifecycle status.
type StatusCounts struct {
	Total     int
	Completed int
	Active    int
	Cancelled int
	ByStatus  map[string]int
}

// CountByStatus tallies facts by status.
func CountByStatus(facts []BookingFact) StatusCounts {
	out := StatusCounts{Total: len(facts), ByStatus: make(map[string]int)}
	for _, f := range facts {
		out.ByStatus[f.Status]++
	}
	out.Completed = out.ByStatus[statusCompleted]
	out.Active = out.ByStatus[statusActive]
	out.Cancelled = out.ByStatus[statusCancelled]
	return out
}

// OccupancyRate returns booked/total as a percentage rounded to 2 decimals, or 0 when there are no slots.
func OccupancyRate(booked, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(booked) / float64(total) * 100)
}

// HourCount is one bucket of the peak-hour histogram.
type HourCount struct {
	Hour     int
	Bookings int
}

// HourlyDistribution buckets facts by the hour of their start time in loc, hours 0 through 23.
func HourlyDistribution(facts []BookingFact, loc *time.Location) []HourCount {
	if loc == nil {
		loc = time.UTC
	}
	buckets := make([]HourCount, 24)
	for h := range buckets {
		buckets[h].Hour = h
	}
	for _, f := range facts {
		buckets[f.StartTime.In(loc).Hour()].Bookings++
	}
	return buckets
}

// PeakHours returns the 24 hourly buckets ranked by bookings descending, ties by hour ascending.
func PeakHours(facts []BookingFact, loc *time.Location) []HourCount {
	ranked := HourlyDistribution(facts, loc)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Bookings > ranked[j].Bookings
	})
	return ranked
}

// AverageDuration returns the mean duration in whole minutes, or 0 with no facts.
func AverageDuration(facts []BookingFact) int {
	if len(facts) == 0 {
		return 0
	}
	total := 0
	for _, f := range facts {
		total += f.DurationMinutes
	}
	return int(math.Round(float64(total) / float64(len(facts))))
}

// DayCount is the number of bookings dated on one day of a month.
type DayCount struct {
	Day      int
	Bookings int
}

// DailyCounts counts bookings by the day of month of their booking date in loc, ordered by day.
func DailyCounts(facts []BookingFact, loc *time.Location) []DayCount {
	if loc == nil {
		loc = time.UTC
	}
	counts := make(map[int]int)
	for _, f := range facts {
		counts[f.BookingDate.In(loc).Day()]++
	}
	out := make([]DayCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, DayCount{Day: day, Bookings: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// UserSegments splits users into those with exactly one booking and those with more.
type UserSegments struct {
	NewUsers       int
	ReturningUsers int
}

// SegmentUsers classifies the users appearing in facts.
func SegmentUsers(facts []BookingFact) UserSegments {
	perUser := make(map[uuid.UUID]int)
	for _, f := range facts {
		perUser[f.UserID]++
	}
	var out UserSegments
	for _, n := range perUser {
		if n == 1 {
			out.NewUsers++
		} else {
			out.ReturningUsers++
		}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
